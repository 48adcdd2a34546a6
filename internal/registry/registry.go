package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/pkg/log"
)

// Snapshot is one consistent view of the registry file.
type Snapshot struct {
	// Profiles are the stored panels, sorted, with tuning fields already
	// resolved against Settings.
	Profiles []domain.DeviceProfile

	// Settings are the shared tuning values.
	Settings Settings

	// Server is the serve-mode listen binding.
	Server Server
}

// Registry reads and writes panels.toml. It implements
// ports.ProfileStore; the richer Snapshot and mutation methods serve the
// CLI and the web surface.
type Registry struct {
	path   string
	logger ports.Logger
}

// New creates a registry backed by the given file. An empty path means
// DefaultPath.
func New(path string, logger ports.Logger) *Registry {
	if path == "" {
		path = DefaultPath()
	}
	return &Registry{path: path, logger: logger}
}

// Path returns the backing file location.
func (r *Registry) Path() string { return r.path }

// Snapshot loads the whole registry. A missing file yields defaults and
// no panels, matching a fresh install.
func (r *Registry) Snapshot(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{Settings: DefaultSettings(), Server: DefaultServer()}, nil
		}
		return Snapshot{}, fmt.Errorf("read registry: %w", err)
	}

	snap, err := decode(data)
	if err != nil {
		return Snapshot{}, err
	}
	r.logger.Debug("registry loaded",
		log.String("path", r.path),
		log.Int("panels", len(snap.Profiles)),
	)
	return snap, nil
}

// Load retrieves the stored profile set.
func (r *Registry) Load(ctx context.Context) ([]domain.DeviceProfile, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Profiles, nil
}

// Save replaces the stored profiles, keeping the settings and server
// sections already in the file.
func (r *Registry) Save(ctx context.Context, profiles []domain.DeviceProfile) error {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}
	snap.Profiles = append([]domain.DeviceProfile(nil), profiles...)
	domain.SortProfiles(snap.Profiles)
	return r.write(snap)
}

// Upsert adds a panel or replaces the record with the same address.
func (r *Registry) Upsert(ctx context.Context, profile domain.DeviceProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, p := range snap.Profiles {
		if p.ID == profile.ID {
			snap.Profiles[i] = profile
			replaced = true
			break
		}
	}
	if !replaced {
		snap.Profiles = append(snap.Profiles, profile)
	}
	domain.SortProfiles(snap.Profiles)
	return r.write(snap)
}

// Remove deletes a panel record. Unknown addresses are
// domain.ErrUnknownDevice.
func (r *Registry) Remove(ctx context.Context, id domain.DeviceID) error {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}

	kept := snap.Profiles[:0]
	removed := false
	for _, p := range snap.Profiles {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDevice, id)
	}
	snap.Profiles = kept
	return r.write(snap)
}

// Assign moves a panel to a grid slot, evicting any panel already
// holding it. GridNone clears the panel's assignment.
func (r *Registry) Assign(ctx context.Context, id domain.DeviceID, pos domain.GridPosition) error {
	if !pos.Valid() {
		return fmt.Errorf("%w: invalid grid position", domain.ErrConfiguration)
	}
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range snap.Profiles {
		p := &snap.Profiles[i]
		switch {
		case p.ID == id:
			p.Grid = pos
			found = true
		case pos != domain.GridNone && p.Grid == pos:
			p.Grid = domain.GridNone
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDevice, id)
	}
	return r.write(snap)
}

// AddDiscovered merges scan results into the registry, keeping existing
// records untouched. It returns how many panels were new.
func (r *Registry) AddDiscovered(ctx context.Context, discoveries []ports.Discovery) (int, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	known := make(map[domain.DeviceID]bool, len(snap.Profiles))
	for _, p := range snap.Profiles {
		known[p.ID] = true
	}

	added := 0
	for _, d := range discoveries {
		if known[d.ID] {
			continue
		}
		known[d.ID] = true
		snap.Profiles = append(snap.Profiles, domain.DeviceProfile{
			ID:             d.ID,
			Name:           d.LocalName,
			Enabled:        true,
			Order:          DefaultOrder,
			ConnectTimeout: snap.Settings.ConnectTimeout,
			RetryCount:     snap.Settings.RetryCount,
			SendDelay:      snap.Settings.SendDelay,
			IdleWindow:     snap.Settings.IdleWindow,
		})
		added++
	}
	if added == 0 {
		return 0, nil
	}

	domain.SortProfiles(snap.Profiles)
	return added, r.write(snap)
}

// write persists a snapshot atomically via temp file and rename.
func (r *Registry) write(snap Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return err
	}

	r.logger.Debug("registry saved",
		log.String("path", r.path),
		log.Int("panels", len(snap.Profiles)),
	)
	return nil
}

// Ensure Registry implements ports.ProfileStore.
var _ ports.ProfileStore = (*Registry)(nil)
