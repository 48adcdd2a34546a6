package panelhop

import (
	"fmt"
	"strings"
	"time"

	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
)

// Errors returned by Controller operations. All are matchable with
// errors.Is.
var (
	// ErrConfiguration marks invalid configuration or registry content.
	ErrConfiguration = domain.ErrConfiguration

	// ErrDimension marks a pixel buffer that does not fit its target.
	ErrDimension = domain.ErrDimension

	// ErrConnection marks a panel that could not be reached.
	ErrConnection = domain.ErrConnection

	// ErrUnknownDevice marks a target that is not in the registry.
	ErrUnknownDevice = domain.ErrUnknownDevice

	// ErrNotRunning marks an operation on a closed controller.
	ErrNotRunning = domain.ErrNotRunning
)

// ParseDeviceID parses a panel address in the colon-separated hex form
// "AA:BB:CC:DD:EE:FF".
func ParseDeviceID(s string) (DeviceID, error) {
	return domain.ParseDeviceID(s)
}

// Target selects which panels an operation addresses. Use All, Grid or
// Device to build one.
type Target struct {
	all   bool
	grid  bool
	panel string
}

// All addresses every enabled panel, in registry order.
func All() Target { return Target{all: true} }

// Grid addresses the panels assigned to grid slots. Image and text
// sends split one large rendering across them; clear and ping reach
// each slot holder.
func Grid() Target { return Target{grid: true} }

// Device addresses one panel by its registry name or address, enabled
// or not.
func Device(nameOrAddress string) Target { return Target{panel: nameOrAddress} }

// IsGrid reports whether the target is the composite grid.
func (t Target) IsGrid() bool { return t.grid }

// String renders the target for logs.
func (t Target) String() string {
	switch {
	case t.grid:
		return "grid"
	case t.panel != "":
		return t.panel
	}
	return "all"
}

// Panel describes one registered panel.
type Panel struct {
	// MAC is the panel's address.
	MAC string

	// Name is the operator-chosen label, empty if none.
	Name string

	// Enabled gates whether all-panel sends include this panel.
	Enabled bool

	// Order ranks the panel in listings and all-panel sends.
	Order int

	// Grid is the slot name in the composite ("top-left" and friends),
	// empty when unassigned.
	Grid string

	// Notes is free-form operator text.
	Notes string
}

// Discovery is one panel heard advertising during a scan.
type Discovery struct {
	// MAC is the advertising panel's address.
	MAC string

	// Name is the advertised device name.
	Name string

	// RSSI is the received signal strength in dBm. 0 when unknown.
	RSSI int16

	// Known reports whether the panel is already registered.
	Known bool
}

// Result is the outcome of one send to one panel.
type Result struct {
	// MAC is the panel's address.
	MAC string

	// Name is the panel's display name at send time.
	Name string

	// Position is the grid slot served, empty outside grid sends.
	Position string

	// Attempts is how many connect attempts the send made.
	Attempts int

	// Chunks is how many chunks reached the panel.
	Chunks int

	// Bytes is the total bytes written to the link.
	Bytes int

	// Elapsed is the wall time spent on this panel.
	Elapsed time.Duration

	// Err is nil on success, otherwise the terminal error.
	Err error
}

// OK reports whether the send to this panel succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Report is the ordered per-panel outcome of one operation, one entry
// per targeted panel regardless of individual failures.
type Report []Result

// OK reports whether every targeted panel succeeded.
func (rep Report) OK() bool {
	for _, r := range rep {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Summary renders the "3 of 4 panel(s) updated" line.
func (rep Report) Summary() string {
	ok := 0
	for _, r := range rep {
		if r.Err == nil {
			ok++
		}
	}
	return fmt.Sprintf("%d of %d panel(s) updated", ok, len(rep))
}

// Failed returns the entries that did not succeed.
func (rep Report) Failed() []Result {
	var out []Result
	for _, r := range rep {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func convertReport(rep domain.SendReport) Report {
	out := make(Report, 0, len(rep))
	for _, res := range rep {
		r := Result{
			MAC:      res.ID.String(),
			Name:     res.Name,
			Attempts: res.Attempts,
			Chunks:   res.ChunksWritten,
			Bytes:    res.BytesSent,
			Elapsed:  res.Elapsed,
			Err:      res.Err,
		}
		if res.Position != domain.GridNone {
			r.Position = res.Position.String()
		}
		out = append(out, r)
	}
	return out
}

func convertProfile(p domain.DeviceProfile) Panel {
	grid := ""
	if p.Grid != domain.GridNone {
		grid = p.Grid.String()
	}
	return Panel{
		MAC:     p.ID.String(),
		Name:    p.Name,
		Enabled: p.Enabled,
		Order:   p.Order,
		Grid:    grid,
		Notes:   p.Notes,
	}
}

func (t Target) resolve(profiles []domain.DeviceProfile) (app.Target, error) {
	switch {
	case t.grid:
		return app.GridTarget(), nil
	case t.panel == "":
		return app.AllTarget(), nil
	}

	if id, err := domain.ParseDeviceID(t.panel); err == nil {
		return app.DeviceTarget(id), nil
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, t.panel) {
			return app.DeviceTarget(p.ID), nil
		}
	}
	return app.Target{}, fmt.Errorf("%w: no panel named %q", domain.ErrUnknownDevice, t.panel)
}
