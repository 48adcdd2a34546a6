package panelhop

import (
	"fmt"
	"time"

	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/registry"
)

// Config holds the settings for a Controller. The zero value is usable:
// SetDefaults fills every field.
type Config struct {
	// RegistryPath is the panel registry file. Empty means the default
	// location (~/.panelhop/panels.toml, falling back to the working
	// directory).
	RegistryPath string

	// MaxConcurrentConnects caps how many panels are dialed at once.
	// Zero means the coordinator default.
	MaxConcurrentConnects int

	// ScanWindow bounds one discovery sweep. Zero means the registry's
	// scan timeout setting.
	ScanWindow time.Duration
}

// SetDefaults fills unset fields with their defaults.
func (c *Config) SetDefaults() {
	if c.RegistryPath == "" {
		c.RegistryPath = registry.DefaultPath()
	}
	if c.MaxConcurrentConnects == 0 {
		c.MaxConcurrentConnects = app.DefaultMaxConcurrentConnects
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MaxConcurrentConnects < 0 {
		return fmt.Errorf("%w: max concurrent connects must be positive", domain.ErrConfiguration)
	}
	if c.ScanWindow < 0 {
		return fmt.Errorf("%w: scan window must be positive", domain.ErrConfiguration)
	}
	return nil
}
