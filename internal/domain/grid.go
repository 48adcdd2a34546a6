package domain

import "fmt"

// GridPosition identifies a panel's slot in the 2×2 composite image.
type GridPosition int

// Grid slots. GridNone marks a panel that takes no part in grid sends.
const (
	GridNone GridPosition = iota
	GridTopLeft
	GridTopRight
	GridBottomLeft
	GridBottomRight
)

// GridPositions returns the four fillable slots in raster order:
// top-left, top-right, bottom-left, bottom-right.
func GridPositions() []GridPosition {
	return []GridPosition{GridTopLeft, GridTopRight, GridBottomLeft, GridBottomRight}
}

// ParseGridPosition parses the textual slot names used in config files and
// on the command line: "top-left", "top-right", "bottom-left",
// "bottom-right", or "none".
func ParseGridPosition(s string) (GridPosition, error) {
	switch s {
	case "", "none":
		return GridNone, nil
	case "top-left":
		return GridTopLeft, nil
	case "top-right":
		return GridTopRight, nil
	case "bottom-left":
		return GridBottomLeft, nil
	case "bottom-right":
		return GridBottomRight, nil
	}
	return GridNone, fmt.Errorf("%w: unknown grid position %q", ErrConfiguration, s)
}

// String returns the canonical textual name of the slot.
func (g GridPosition) String() string {
	switch g {
	case GridNone:
		return "none"
	case GridTopLeft:
		return "top-left"
	case GridTopRight:
		return "top-right"
	case GridBottomLeft:
		return "bottom-left"
	case GridBottomRight:
		return "bottom-right"
	}
	return fmt.Sprintf("GridPosition(%d)", int(g))
}

// Valid reports whether the value is one of the defined slots.
func (g GridPosition) Valid() bool {
	return g >= GridNone && g <= GridBottomRight
}

// Origin returns the pixel origin of the slot's quadrant within the
// GridSize×GridSize composite. GridNone has no quadrant and returns (0, 0).
func (g GridPosition) Origin() (x, y int) {
	switch g {
	case GridTopRight:
		return PanelSize, 0
	case GridBottomLeft:
		return 0, PanelSize
	case GridBottomRight:
		return PanelSize, PanelSize
	}
	return 0, 0
}

// GridLayout maps grid slots to the devices that occupy them. A layout may
// be partial; empty slots are simply absent. The same device never occupies
// two slots.
type GridLayout struct {
	cells map[GridPosition]DeviceID
}

// NewGridLayout builds a layout from slot assignments. GridNone keys and
// duplicate device assignments are rejected with ErrConfiguration.
func NewGridLayout(cells map[GridPosition]DeviceID) (GridLayout, error) {
	seen := make(map[DeviceID]GridPosition, len(cells))
	out := make(map[GridPosition]DeviceID, len(cells))
	for pos, id := range cells {
		if pos == GridNone || !pos.Valid() {
			return GridLayout{}, fmt.Errorf("%w: device %s assigned to slot %q", ErrConfiguration, id, pos)
		}
		if id.IsZero() {
			return GridLayout{}, fmt.Errorf("%w: empty device in grid slot %s", ErrConfiguration, pos)
		}
		if prev, dup := seen[id]; dup {
			return GridLayout{}, fmt.Errorf("%w: device %s in both %s and %s", ErrConfiguration, id, prev, pos)
		}
		seen[id] = pos
		out[pos] = id
	}
	return GridLayout{cells: out}, nil
}

// LayoutFromProfiles derives the grid layout from a profile set: every
// enabled profile with a slot other than GridNone claims that slot.
// Two profiles claiming the same slot is ErrConfiguration.
func LayoutFromProfiles(profiles []DeviceProfile) (GridLayout, error) {
	cells := make(map[GridPosition]DeviceID)
	for _, p := range profiles {
		if !p.Enabled || p.Grid == GridNone {
			continue
		}
		if prev, taken := cells[p.Grid]; taken {
			return GridLayout{}, fmt.Errorf("%w: slot %s claimed by both %s and %s",
				ErrConfiguration, p.Grid, prev, p.ID)
		}
		cells[p.Grid] = p.ID
	}
	return NewGridLayout(cells)
}

// At returns the device in the given slot, if any.
func (l GridLayout) At(pos GridPosition) (DeviceID, bool) {
	id, ok := l.cells[pos]
	return id, ok
}

// Len returns the number of occupied slots.
func (l GridLayout) Len() int { return len(l.cells) }

// Complete reports whether all four slots are occupied.
func (l GridLayout) Complete() bool { return len(l.cells) == len(GridPositions()) }

// Devices returns the occupying devices in raster slot order.
func (l GridLayout) Devices() []DeviceID {
	out := make([]DeviceID, 0, len(l.cells))
	for _, pos := range GridPositions() {
		if id, ok := l.cells[pos]; ok {
			out = append(out, id)
		}
	}
	return out
}

// GridTile pairs one quadrant of a composite image with the device that
// shows it.
type GridTile struct {
	// Position is the slot this tile belongs to.
	Position GridPosition

	// ID is the device occupying the slot.
	ID DeviceID

	// Buffer is the PanelSize×PanelSize quadrant cut from the composite.
	Buffer PixelBuffer
}

// SplitGrid cuts a GridSize×GridSize composite into per-device tiles
// according to the layout. Slots without a device produce no tile; those
// quadrant pixels are dropped. The input buffer itself is never modified.
// A buffer of any other dimensions is rejected with ErrDimension.
func SplitGrid(buf PixelBuffer, layout GridLayout) ([]GridTile, error) {
	if !buf.IsGrid() {
		return nil, fmt.Errorf("%w: grid send needs %dx%d, got %dx%d",
			ErrDimension, GridSize, GridSize, buf.Width(), buf.Height())
	}
	tiles := make([]GridTile, 0, layout.Len())
	for _, pos := range GridPositions() {
		id, ok := layout.At(pos)
		if !ok {
			continue
		}
		x, y := pos.Origin()
		quad, err := buf.Sub(x, y, PanelSize, PanelSize)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, GridTile{Position: pos, ID: id, Buffer: quad})
	}
	return tiles, nil
}
