package multiout

import "strings"

// Built-in macOS outputs are named like "MacBook Pro Speakers" or
// "Mac mini Speakers". Localized systems name them differently; there the
// aggregate has to be created by hand in Audio MIDI Setup.
const primarySubstring = "speaker"

// SelectPrimaryOutput picks the device the aggregate will clock from: the
// first device in snapshot order whose name contains "speaker" (case
// insensitive) and that actually has output channels. Snapshot order is
// whatever the platform returned; no further tie-break is applied.
func SelectPrimaryOutput(devices []Device) (Device, error) {
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), primarySubstring) && d.OutputChannels > 0 {
			return d, nil
		}
	}
	return Device{}, &NotFoundError{Which: "primary output"}
}

// SelectLoopback picks the BlackHole capture sink. Unlike the primary output
// this is an exact name match (case insensitive): "BlackHole 16ch" must not
// qualify, its channel layout would break downstream capture.
func SelectLoopback(devices []Device) (Device, error) {
	for _, d := range devices {
		if strings.EqualFold(d.Name, LoopbackName) {
			return d, nil
		}
	}
	return Device{}, &NotFoundError{Which: "loopback"}
}

// FindExisting reports whether a device with exactly the given name is
// already present in the snapshot. Case sensitive: the aggregate is created
// with a fixed literal name, so only that literal counts as "ours".
func FindExisting(devices []Device, name string) (Device, bool) {
	for _, d := range devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
