package ports

import (
	"context"

	"github.com/hoplab/panelhop/internal/domain"
)

// ProfileStore persists the device registry.
type ProfileStore interface {
	// Load retrieves the stored profile set.
	// Returns an empty set and nil error when no registry file exists yet.
	// Returns an error only for actual read or parse failures.
	Load(ctx context.Context) ([]domain.DeviceProfile, error)

	// Save persists the profile set atomically. The implementation should
	// write to a temp file and rename so a crash never corrupts the
	// registry.
	Save(ctx context.Context, profiles []domain.DeviceProfile) error

	// Path returns the backing file location, for logs and the watcher.
	// Empty for in-memory stores.
	Path() string
}
