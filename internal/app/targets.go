package app

import (
	"fmt"

	"github.com/hoplab/panelhop/internal/domain"
)

// TargetKind says how a send operation picks its panels.
type TargetKind int

const (
	// TargetAll addresses every enabled panel in registry order.
	TargetAll TargetKind = iota

	// TargetDevice addresses exactly one panel by address, enabled or not.
	TargetDevice

	// TargetGrid addresses the panels occupying grid slots, in raster
	// order. Plain sends deliver the same frame to each; SendGrid gives
	// each its own quadrant of a composite image.
	TargetGrid
)

// Target selects the panels one operation addresses.
type Target struct {
	Kind   TargetKind
	Device domain.DeviceID
}

// AllTarget addresses every enabled panel.
func AllTarget() Target { return Target{Kind: TargetAll} }

// DeviceTarget addresses one panel by address.
func DeviceTarget(id domain.DeviceID) Target {
	return Target{Kind: TargetDevice, Device: id}
}

// GridTarget addresses the assigned grid panels.
func GridTarget() Target { return Target{Kind: TargetGrid} }

// String renders the target for logs.
func (t Target) String() string {
	switch t.Kind {
	case TargetAll:
		return "all"
	case TargetDevice:
		return fmt.Sprintf("device %s", t.Device)
	case TargetGrid:
		return "grid"
	}
	return fmt.Sprintf("TargetKind(%d)", int(t.Kind))
}
