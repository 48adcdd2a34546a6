package panelhop

import (
	"time"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Aliases for the transport types, so custom dialers and scanners can
// be implemented outside this module.
type (
	// DeviceID is a panel's 48-bit address.
	DeviceID = domain.DeviceID

	// Chunk is one link-layer write of an encoded frame.
	Chunk = domain.Chunk

	// DeviceLink is an open connection to one panel.
	DeviceLink = ports.DeviceLink

	// Advertisement is one advertisement heard by a Scanner.
	Advertisement = ports.Discovery
)

// LinkDialer opens links to panels. The default implementation drives
// the host's BLE adapter.
type LinkDialer = ports.LinkDialer

// Scanner sweeps for advertising panels. The default implementation
// drives the host's BLE adapter.
type Scanner = ports.Scanner

// Option configures optional behavior of a Controller.
type Option func(*options)

// options holds the optional configuration for a Controller.
type options struct {
	logger       Logger
	eventHandler EventHandler
	dialer       LinkDialer
	scanner      Scanner
	override     domain.TuningOverride
}

func defaultOptions() options {
	return options{
		logger:   log.NewNoopLogger(),
		override: domain.NoTuningOverride(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for panel session events.
// Events are called synchronously from send goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithDialer sets a custom link dialer. If not provided, the
// controller opens the host's BLE adapter on first use.
func WithDialer(dialer LinkDialer) Option {
	return func(o *options) {
		o.dialer = dialer
	}
}

// WithScanner sets a custom discovery scanner. If not provided, the
// controller scans with the host's BLE adapter.
func WithScanner(scanner Scanner) Option {
	return func(o *options) {
		o.scanner = scanner
	}
}

// WithConnectTimeout forces the per-attempt connect timeout for every
// panel, overriding registry values for the life of this controller.
// Persistent tuning belongs in the registry file; this serves one-off
// runs such as CLI flag overrides. Nonpositive values are ignored.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.override.ConnectTimeout = d
		}
	}
}

// WithRetries forces the retry count for connects and chunk writes on
// every panel, overriding registry values. Zero means a single attempt
// with no retries. Negative values are ignored.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.override.RetryCount = n
		}
	}
}

// WithSendDelay forces the pause between chunk writes for every panel,
// overriding registry values. Nonpositive values are ignored.
func WithSendDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.override.SendDelay = d
		}
	}
}
