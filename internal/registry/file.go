package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hoplab/panelhop/internal/domain"
)

// DefaultOrder places panels without an explicit order after the
// numbered ones.
const DefaultOrder = 99

// fileRegistry mirrors the on-disk panels.toml. Durations are strings so
// the file reads naturally; pointer fields distinguish omitted from zero.
type fileRegistry struct {
	Settings fileSettings `toml:"settings,omitempty"`
	Server   fileServer   `toml:"server,omitempty"`
	Panels   []filePanel  `toml:"panels,omitempty"`
}

type fileSettings struct {
	ScanTimeout    string `toml:"scan_timeout,omitempty"`
	ConnectTimeout string `toml:"connect_timeout,omitempty"`
	RetryCount     *int   `toml:"retry_count,omitempty"`
	SendDelay      string `toml:"send_delay,omitempty"`
	IdleWindow     string `toml:"idle_window,omitempty"`
}

type fileServer struct {
	Host string `toml:"host,omitempty"`
	Port int    `toml:"port,omitempty"`
}

type filePanel struct {
	MAC     string `toml:"mac"`
	Name    string `toml:"name,omitempty"`
	Enabled *bool  `toml:"enabled,omitempty"`
	Order   *int   `toml:"order,omitempty"`
	Grid    string `toml:"grid,omitempty"`
	Notes   string `toml:"notes,omitempty"`

	// Per-panel tuning overrides; absent fields inherit [settings].
	ConnectTimeout string `toml:"connect_timeout,omitempty"`
	RetryCount     *int   `toml:"retry_count,omitempty"`
	SendDelay      string `toml:"send_delay,omitempty"`
	IdleWindow     string `toml:"idle_window,omitempty"`
}

// DefaultPath returns the registry location under the user's home
// directory, or a file in the working directory when home is unknown.
func DefaultPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".panelhop", "panels.toml")
	}
	return "panels.toml"
}

// decode parses registry file bytes into a validated snapshot.
func decode(data []byte) (Snapshot, error) {
	var f fileRegistry
	if err := toml.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parse registry: %v", domain.ErrConfiguration, err)
	}
	return f.toSnapshot()
}

func (f fileRegistry) toSnapshot() (Snapshot, error) {
	set := DefaultSettings()
	if err := overlayDuration(&set.ScanTimeout, f.Settings.ScanTimeout, "settings.scan_timeout"); err != nil {
		return Snapshot{}, err
	}
	if err := overlayDuration(&set.ConnectTimeout, f.Settings.ConnectTimeout, "settings.connect_timeout"); err != nil {
		return Snapshot{}, err
	}
	if err := overlayDuration(&set.SendDelay, f.Settings.SendDelay, "settings.send_delay"); err != nil {
		return Snapshot{}, err
	}
	if err := overlayDuration(&set.IdleWindow, f.Settings.IdleWindow, "settings.idle_window"); err != nil {
		return Snapshot{}, err
	}
	if f.Settings.RetryCount != nil && *f.Settings.RetryCount >= 0 {
		set.RetryCount = *f.Settings.RetryCount
	}
	if err := set.Validate(); err != nil {
		return Snapshot{}, err
	}

	srv := DefaultServer()
	if f.Server.Host != "" {
		srv.Host = f.Server.Host
	}
	if f.Server.Port != 0 {
		srv.Port = f.Server.Port
	}

	profiles := make([]domain.DeviceProfile, 0, len(f.Panels))
	seen := make(map[domain.DeviceID]bool, len(f.Panels))
	for i, fp := range f.Panels {
		p, err := fp.toProfile(set)
		if err != nil {
			return Snapshot{}, fmt.Errorf("panel %d: %w", i+1, err)
		}
		if seen[p.ID] {
			return Snapshot{}, fmt.Errorf("%w: duplicate panel %s", domain.ErrConfiguration, p.ID)
		}
		seen[p.ID] = true
		profiles = append(profiles, p)
	}
	domain.SortProfiles(profiles)

	// A slot claimed twice makes grid sends ambiguous; reject the file
	// rather than let the conflict surface mid-send.
	if _, err := domain.LayoutFromProfiles(profiles); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Profiles: profiles, Settings: set, Server: srv}, nil
}

func (fp filePanel) toProfile(set Settings) (domain.DeviceProfile, error) {
	id, err := domain.ParseDeviceID(fp.MAC)
	if err != nil {
		return domain.DeviceProfile{}, err
	}
	grid, err := domain.ParseGridPosition(fp.Grid)
	if err != nil {
		return domain.DeviceProfile{}, err
	}

	p := domain.DeviceProfile{
		ID:             id,
		Name:           fp.Name,
		Enabled:        fp.Enabled == nil || *fp.Enabled,
		Order:          DefaultOrder,
		Grid:           grid,
		Notes:          fp.Notes,
		ConnectTimeout: set.ConnectTimeout,
		RetryCount:     set.RetryCount,
		SendDelay:      set.SendDelay,
		IdleWindow:     set.IdleWindow,
	}
	if fp.Order != nil {
		p.Order = *fp.Order
	}
	if err := overlayDuration(&p.ConnectTimeout, fp.ConnectTimeout, "connect_timeout"); err != nil {
		return domain.DeviceProfile{}, err
	}
	if err := overlayDuration(&p.SendDelay, fp.SendDelay, "send_delay"); err != nil {
		return domain.DeviceProfile{}, err
	}
	if err := overlayDuration(&p.IdleWindow, fp.IdleWindow, "idle_window"); err != nil {
		return domain.DeviceProfile{}, err
	}
	if fp.RetryCount != nil && *fp.RetryCount >= 0 {
		p.RetryCount = *fp.RetryCount
	}
	if err := p.Validate(); err != nil {
		return domain.DeviceProfile{}, err
	}
	return p, nil
}

// encode renders a snapshot back to TOML. Panel tuning fields equal to
// the shared settings stay implicit so the file keeps reading as
// "defaults plus exceptions".
func encode(snap Snapshot) ([]byte, error) {
	retry := snap.Settings.RetryCount
	f := fileRegistry{
		Settings: fileSettings{
			ScanTimeout:    snap.Settings.ScanTimeout.String(),
			ConnectTimeout: snap.Settings.ConnectTimeout.String(),
			RetryCount:     &retry,
			SendDelay:      snap.Settings.SendDelay.String(),
			IdleWindow:     snap.Settings.IdleWindow.String(),
		},
		Server: fileServer{Host: snap.Server.Host, Port: snap.Server.Port},
	}

	for _, p := range snap.Profiles {
		enabled := p.Enabled
		order := p.Order
		fp := filePanel{
			MAC:     p.ID.String(),
			Name:    p.Name,
			Enabled: &enabled,
			Order:   &order,
			Notes:   p.Notes,
		}
		if p.Grid != domain.GridNone {
			fp.Grid = p.Grid.String()
		}
		if p.ConnectTimeout > 0 && p.ConnectTimeout != snap.Settings.ConnectTimeout {
			fp.ConnectTimeout = p.ConnectTimeout.String()
		}
		if p.SendDelay > 0 && p.SendDelay != snap.Settings.SendDelay {
			fp.SendDelay = p.SendDelay.String()
		}
		if p.IdleWindow > 0 && p.IdleWindow != snap.Settings.IdleWindow {
			fp.IdleWindow = p.IdleWindow.String()
		}
		if p.RetryCount >= 0 && p.RetryCount != snap.Settings.RetryCount {
			rc := p.RetryCount
			fp.RetryCount = &rc
		}
		f.Panels = append(f.Panels, fp)
	}

	return toml.Marshal(f)
}

// overlayDuration parses a duration string from the file over dst.
// Empty keeps the current value; nonpositive parses are ignored.
func overlayDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrConfiguration, field, err)
	}
	if d > 0 {
		*dst = d
	}
	return nil
}
