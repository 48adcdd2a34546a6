package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tuning defaults applied to device profiles that leave a field unset.
// They mirror the pacing the panels are known to tolerate.
const (
	// DefaultConnectTimeout bounds a single connect attempt.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultRetryCount is the number of retries after the first attempt,
	// for both connecting and individual chunk writes.
	DefaultRetryCount = 3

	// DefaultSendDelay is the pause between consecutive chunk writes.
	DefaultSendDelay = 150 * time.Millisecond

	// DefaultIdleWindow is how long a session keeps its connection open
	// after a successful send before disconnecting.
	DefaultIdleWindow = 3 * time.Second

	// DefaultScanTimeout bounds one discovery sweep.
	DefaultScanTimeout = 10 * time.Second
)

// DeviceID is the 6-byte link-layer address of a panel.
type DeviceID [6]byte

// ParseDeviceID parses a textual address of the form "AA:BB:CC:DD:EE:FF".
// Dashes are accepted in place of colons and hex digits may be lower case.
func ParseDeviceID(s string) (DeviceID, error) {
	var id DeviceID
	norm := strings.ReplaceAll(strings.TrimSpace(s), "-", ":")
	parts := strings.Split(norm, ":")
	if len(parts) != 6 {
		return DeviceID{}, fmt.Errorf("%w: malformed device address %q", ErrConfiguration, s)
	}
	for i, part := range parts {
		if len(part) != 2 {
			return DeviceID{}, fmt.Errorf("%w: malformed device address %q", ErrConfiguration, s)
		}
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return DeviceID{}, fmt.Errorf("%w: malformed device address %q", ErrConfiguration, s)
		}
		id[i] = byte(v)
	}
	return id, nil
}

// MustDeviceID is like ParseDeviceID but panics on malformed input.
// Intended for tests and compile-time constants.
func MustDeviceID(s string) DeviceID {
	id, err := ParseDeviceID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String formats the address as upper-case colon-separated hex.
func (id DeviceID) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		id[0], id[1], id[2], id[3], id[4], id[5])
}

// IsZero reports whether the address is all zeroes.
func (id DeviceID) IsZero() bool { return id == DeviceID{} }

// DeviceProfile holds the registry entry for one physical panel.
// Profiles are read-only to the transport core; editing happens through the
// registry, which persists and re-publishes a fresh snapshot.
type DeviceProfile struct {
	// ID is the link-layer address of the panel.
	ID DeviceID

	// Name is a human-chosen label. Empty means the address is displayed.
	Name string

	// Enabled gates whether broadcast sends include this panel.
	Enabled bool

	// Order ranks the panel in listings and all-panel sends (ascending).
	Order int

	// Grid is the panel's slot in the 2×2 composite, or GridNone.
	Grid GridPosition

	// Notes is free-form operator text carried through the registry.
	Notes string

	// ConnectTimeout bounds a single connect attempt.
	// Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// RetryCount is the number of retries after the first attempt.
	// Negative means DefaultRetryCount; zero means no retries.
	RetryCount int

	// SendDelay is the pause between consecutive chunk writes.
	// Zero means DefaultSendDelay.
	SendDelay time.Duration

	// IdleWindow is how long the session lingers connected after a send.
	// Zero means DefaultIdleWindow.
	IdleWindow time.Duration
}

// DisplayName returns the label to show for this panel: the configured name,
// or the address when no name is set.
func (p DeviceProfile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID.String()
}

// WithDefaults returns a copy of the profile with unset tuning fields
// replaced by package defaults.
func (p DeviceProfile) WithDefaults() DeviceProfile {
	out := p
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.RetryCount < 0 {
		out.RetryCount = DefaultRetryCount
	}
	if out.SendDelay <= 0 {
		out.SendDelay = DefaultSendDelay
	}
	if out.IdleWindow <= 0 {
		out.IdleWindow = DefaultIdleWindow
	}
	return out
}

// Validate checks the profile for obvious misconfiguration.
func (p DeviceProfile) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("%w: profile %q has no device address", ErrConfiguration, p.Name)
	}
	if p.ConnectTimeout < 0 {
		return fmt.Errorf("%w: profile %s has negative connect timeout", ErrConfiguration, p.DisplayName())
	}
	if p.SendDelay < 0 {
		return fmt.Errorf("%w: profile %s has negative send delay", ErrConfiguration, p.DisplayName())
	}
	if p.IdleWindow < 0 {
		return fmt.Errorf("%w: profile %s has negative idle window", ErrConfiguration, p.DisplayName())
	}
	if !p.Grid.Valid() {
		return fmt.Errorf("%w: profile %s has unknown grid position", ErrConfiguration, p.DisplayName())
	}
	return nil
}

// AttemptBudget returns the worst-case wall time one send can spend on this
// device before giving up: every connect attempt bounded by ConnectTimeout.
func (p DeviceProfile) AttemptBudget() time.Duration {
	pp := p.WithDefaults()
	return pp.ConnectTimeout * time.Duration(pp.RetryCount+1)
}

// TuningOverride carries per-run tuning values forced over every
// profile's own settings, the mechanism behind command-line and
// environment overrides of the registry file. A positive duration or a
// non-negative retry count replaces the profile value; other fields are
// left alone. Build one with NoTuningOverride, not a struct literal:
// the zero value would force RetryCount to zero, which means "never
// retry".
type TuningOverride struct {
	// ConnectTimeout replaces every profile's connect timeout when
	// positive.
	ConnectTimeout time.Duration

	// RetryCount replaces every profile's retry count when zero or
	// positive. Negative leaves profile values in place.
	RetryCount int

	// SendDelay replaces every profile's inter-chunk delay when
	// positive.
	SendDelay time.Duration
}

// NoTuningOverride returns an override that leaves every profile
// untouched.
func NoTuningOverride() TuningOverride {
	return TuningOverride{RetryCount: -1}
}

// Apply returns a copy of the profile with the override's set fields
// forced over the profile's own tuning.
func (o TuningOverride) Apply(p DeviceProfile) DeviceProfile {
	out := p
	if o.ConnectTimeout > 0 {
		out.ConnectTimeout = o.ConnectTimeout
	}
	if o.RetryCount >= 0 {
		out.RetryCount = o.RetryCount
	}
	if o.SendDelay > 0 {
		out.SendDelay = o.SendDelay
	}
	return out
}

// SortProfiles orders profiles by ascending Order, then by name, then by
// address, so listings and broadcast sends are deterministic.
func SortProfiles(profiles []DeviceProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return lessProfile(profiles[i], profiles[j])
	})
}

func lessProfile(a, b DeviceProfile) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}
