package domain

import (
	"fmt"
	"time"
)

// SendResult is the per-device outcome of one send operation.
type SendResult struct {
	// ID is the device the frame was sent to.
	ID DeviceID

	// Name is the device's display name at send time.
	Name string

	// Position is the grid slot the device served, or GridNone for
	// non-grid sends.
	Position GridPosition

	// Attempts is the number of connect attempts this send made. Zero
	// when a kept-alive link was reused or the send was rejected before
	// dialing.
	Attempts int

	// ChunksWritten is how many chunks reached the link before the send
	// finished or failed.
	ChunksWritten int

	// BytesSent is the total payload bytes written to the link.
	BytesSent int

	// Elapsed is the wall time spent on this device.
	Elapsed time.Duration

	// Err is nil on success, otherwise the terminal error for this device.
	Err error
}

// OK reports whether the send to this device succeeded.
func (r SendResult) OK() bool { return r.Err == nil }

// String renders a one-line human summary.
func (r SendResult) String() string {
	name := r.Name
	if name == "" {
		name = r.ID.String()
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: FAILED after %d attempt(s): %v", name, r.Attempts, r.Err)
	}
	return fmt.Sprintf("%s: ok (%d chunks, %d bytes, %s)", name, r.ChunksWritten, r.BytesSent, r.Elapsed.Round(time.Millisecond))
}

// SendReport is the ordered aggregate of per-device outcomes for one
// operation. The slice always holds one entry per targeted device, in the
// order the devices were targeted, regardless of individual failures.
type SendReport []SendResult

// Size returns the number of targeted devices.
func (rep SendReport) Size() int { return len(rep) }

// Empty returns true if no devices were targeted.
func (rep SendReport) Empty() bool { return len(rep) == 0 }

// Succeeded returns the number of devices that completed successfully.
func (rep SendReport) Succeeded() int {
	n := 0
	for _, r := range rep {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results that ended in an error, in target order.
func (rep SendReport) Failed() []SendResult {
	var out []SendResult
	for _, r := range rep {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// AllOK reports whether every targeted device succeeded.
func (rep SendReport) AllOK() bool { return rep.Succeeded() == len(rep) }

// Summary renders the "3 of 4 panels updated" line used by the CLI and the
// web API.
func (rep SendReport) Summary() string {
	return fmt.Sprintf("%d of %d panel(s) updated", rep.Succeeded(), len(rep))
}
