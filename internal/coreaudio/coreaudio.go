// Package coreaudio implements multiout.Service against the macOS CoreAudio
// HAL. Device attributes are read with the HAL's two-phase property protocol
// (query the byte size, then fetch into a buffer of exactly that size), and
// aggregate creation goes through AudioHardwareCreateAggregateDevice.
package coreaudio

import "errors"

// ErrUnsupported is returned on platforms without a device-aggregation
// primitive. Provisioning is macOS only; capture and playback elsewhere run
// through malgo and are unaffected.
var ErrUnsupported = errors.New("aggregate audio devices are only supported on macOS")
