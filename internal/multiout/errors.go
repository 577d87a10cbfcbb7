package multiout

import "fmt"

// NotFoundError reports that selection could not locate one of the two
// required member devices. Which is "primary output" or "loopback".
type NotFoundError struct {
	Which string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s device", e.Which)
}

// CreateError reports a failed aggregate creation call, carrying the
// platform's OSStatus so the operator can look it up.
type CreateError struct {
	Status int32
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create aggregate device (status %d)", e.Status)
}

// QueryError reports a failed property query during enumeration. A device
// that fails a sub-query aborts the run rather than entering the snapshot
// with a fabricated name or UID.
type QueryError struct {
	Device   DeviceID
	Property string
	Status   int32
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("querying %s of audio device %d failed (status %d)", e.Property, e.Device, e.Status)
}
