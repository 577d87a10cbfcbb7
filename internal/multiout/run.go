package multiout

import (
	"fmt"
	"io"
)

// Outcome is the terminal state of a successful provisioning run.
type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyExists Outcome = "already_exists"
)

// Runner drives one provisioning pass: enumerate, select, check, create.
// Progress lines go to out; they are the tool's user interface.
type Runner struct {
	svc Service
	out io.Writer
}

// NewRunner creates a runner over the given platform service.
func NewRunner(svc Service, out io.Writer) *Runner {
	return &Runner{svc: svc, out: out}
}

// Run executes the provisioning pass. The device list is enumerated exactly
// once; selection and the existence check both read that snapshot, so a
// device appearing or vanishing mid-run cannot split their view. Run never
// retries: any error is terminal and describes what failed.
func (r *Runner) Run() (Outcome, error) {
	devices, err := r.svc.ListDevices()
	if err != nil {
		return "", fmt.Errorf("enumerating audio devices: %w", err)
	}

	primary, err := SelectPrimaryOutput(devices)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(r.out, "Found output device: %s\n", primary.Name)

	loopback, err := SelectLoopback(devices)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(r.out, "Found loopback device: %s\n", loopback.Name)

	if existing, ok := FindExisting(devices, AggregateName); ok {
		fmt.Fprintf(r.out, "%s already exists (device id %d)\n", AggregateName, existing.ID)
		return OutcomeAlreadyExists, nil
	}

	spec := BuildAggregateSpec(primary, loopback)
	id, err := r.svc.CreateAggregate(spec)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(r.out, "Created %s (device id %d)\n", AggregateName, id)
	return OutcomeCreated, nil
}
