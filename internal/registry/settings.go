package registry

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hoplab/panelhop/internal/domain"
)

// Settings are the shared tuning values panels inherit unless their own
// record overrides them.
type Settings struct {
	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
	RetryCount     int
	SendDelay      time.Duration
	IdleWindow     time.Duration
}

// DefaultSettings returns the built-in tuning values.
func DefaultSettings() Settings {
	return Settings{
		ScanTimeout:    domain.DefaultScanTimeout,
		ConnectTimeout: domain.DefaultConnectTimeout,
		RetryCount:     domain.DefaultRetryCount,
		SendDelay:      domain.DefaultSendDelay,
		IdleWindow:     domain.DefaultIdleWindow,
	}
}

// Validate checks the settings for values the stack cannot run with.
func (s Settings) Validate() error {
	if s.ScanTimeout <= 0 {
		return fmt.Errorf("%w: scan timeout must be positive", domain.ErrConfiguration)
	}
	if s.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive", domain.ErrConfiguration)
	}
	if s.RetryCount < 0 {
		return fmt.Errorf("%w: retry count must not be negative", domain.ErrConfiguration)
	}
	return nil
}

// Server is the listen binding for serve mode.
type Server struct {
	Host string
	Port int
}

// DefaultServer returns the default web binding.
func DefaultServer() Server {
	return Server{Host: "0.0.0.0", Port: 8000}
}

// Addr formats the binding for net.Listen.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ApplyEnv overlays PANELHOP_* environment variables onto the settings
// and server binding. It respects values already fixed by flags (changed
// map) and returns an error for unparseable variables.
func ApplyEnv(set *Settings, srv *Server, changed map[string]bool) error {
	s := newSetter(changed)

	if err := s.setDuration("scan-timeout", os.Getenv("PANELHOP_SCAN_TIMEOUT"), &set.ScanTimeout); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", os.Getenv("PANELHOP_CONNECT_TIMEOUT"), &set.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("send-delay", os.Getenv("PANELHOP_SEND_DELAY"), &set.SendDelay); err != nil {
		return err
	}
	if err := s.setDuration("idle-window", os.Getenv("PANELHOP_IDLE_WINDOW"), &set.IdleWindow); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", os.Getenv("PANELHOP_RETRIES"), &set.RetryCount); err != nil {
		return err
	}

	s.setString("host", os.Getenv("PANELHOP_HOST"), &srv.Host)
	if err := s.setIntFromString("port", os.Getenv("PANELHOP_PORT"), &srv.Port); err != nil {
		return err
	}

	return nil
}

// EnvRegistryPath returns the registry file location from the
// environment, or empty when unset.
func EnvRegistryPath() string {
	return os.Getenv("PANELHOP_REGISTRY")
}

// setter applies configuration values while respecting flag precedence.
// A value is skipped when its flag was explicitly set on the command
// line.
type setter struct {
	changed map[string]bool
}

func newSetter(changed map[string]bool) *setter {
	return &setter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *setter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag
// not changed.
func (s *setter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination.
// Negative values are ignored; zero is meaningful for retry counts.
func (s *setter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}
