// Package multiout provisions the stacked aggregate audio device the bot
// listens through: system output plus the BlackHole loopback, presented to
// macOS as a single "Multi-Output Device".
package multiout

// Names and identifiers of the aggregate device this tool provisions.
// AggregateName doubles as the existence-check target, so creation and
// detection can never drift apart.
const (
	AggregateName = "Multi-Output Device"
	AggregateUID  = "com.standupbot.multioutput"
	LoopbackName  = "BlackHole 2ch"
)

// DeviceID is the platform's in-session handle for an audio object. Handles
// are only valid for the boot session that issued them; persist UIDs instead.
type DeviceID uint32

// Device describes one audio device from a single enumeration snapshot.
type Device struct {
	ID             DeviceID
	Name           string
	UID            string // stable across reboots, unlike ID
	OutputChannels uint32 // summed over the output stream configuration; 0 for input-only
}

// AggregateSpec describes the composite device submitted to the platform.
// SubDevices is ordered: the first entry is listed first by the OS.
type AggregateSpec struct {
	UID        string
	Name       string
	SubDevices []string // member device UIDs
	MainUID    string   // clock source, must be one of SubDevices
	Stacked    bool     // true = duplicate audio to every member
}

// Service is the platform audio surface the provisioning run needs. The real
// implementation lives in internal/coreaudio; tests use an in-memory fake.
type Service interface {
	// ListDevices returns a snapshot of all attached audio devices.
	ListDevices() ([]Device, error)

	// CreateAggregate submits the descriptor and returns the new device's
	// handle. Failures carry the platform status code as a *CreateError.
	CreateAggregate(spec AggregateSpec) (DeviceID, error)
}

// BuildAggregateSpec builds the descriptor for a stacked aggregate of the two
// selected devices. The primary output always comes first in the member list
// and provides the clock, regardless of enumeration order.
func BuildAggregateSpec(primary, loopback Device) AggregateSpec {
	return AggregateSpec{
		UID:        AggregateUID,
		Name:       AggregateName,
		SubDevices: []string{primary.UID, loopback.UID},
		MainUID:    primary.UID,
		Stacked:    true,
	}
}
