package panelhop

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/hoplab/panelhop/internal/adapters/ble"
	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/media"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
	"github.com/hoplab/panelhop/internal/registry"
	"github.com/hoplab/panelhop/internal/session"
)

// Controller drives a set of LED matrix panels. Use New to create one,
// then call the send operations; Close drops any open connections.
// All methods are safe for concurrent use.
type Controller struct {
	cfg      Config
	logger   Logger
	reg      *registry.Registry
	coord    *app.Coordinator
	scanner  Scanner
	override domain.TuningOverride

	mu          sync.Mutex
	loaded      bool
	closed      bool
	scanTimeout time.Duration
}

// New creates a Controller over the panel registry at
// cfg.RegistryPath. No radio or file access happens until the first
// operation. Returns an error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Controller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dialer := o.dialer
	scanner := o.scanner
	if dialer == nil || scanner == nil {
		central := ble.NewCentral(o.logger)
		if dialer == nil {
			dialer = central
		}
		if scanner == nil {
			scanner = central
		}
	}

	var observer session.StateObserver
	if o.eventHandler != nil {
		observer = &eventBridge{handler: o.eventHandler}
	}

	return &Controller{
		cfg:      cfg,
		logger:   o.logger,
		reg:      registry.New(cfg.RegistryPath, o.logger),
		coord:    app.NewCoordinator(dialer, o.logger, cfg.MaxConcurrentConnects, observer),
		scanner:  scanner,
		override: o.override,
	}, nil
}

// Refresh reloads the registry and applies it to running sessions.
// Panels whose tuning changed drop their open connections.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrNotRunning
	}
	return c.loadLocked(ctx)
}

// Panels lists the registered panels in registry order.
func (c *Controller) Panels(ctx context.Context) ([]Panel, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	profiles := c.coord.Profiles()
	out := make([]Panel, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, convertProfile(p))
	}
	return out, nil
}

// SendImage shows an image on the targeted panels. Grid targets split
// the image across the assigned slots; other targets each show the
// whole image. mode is "fill", "fit" or "stretch"; empty means fill.
func (c *Controller) SendImage(ctx context.Context, target Target, img image.Image, mode string) (Report, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	resize, err := media.ParseResizeMode(mode)
	if err != nil {
		return nil, err
	}

	if target.IsGrid() {
		buf, err := media.PrepareGrid(img, resize)
		if err != nil {
			return nil, err
		}
		return c.report(c.coord.SendGrid(ctx, buf))
	}

	buf, err := media.PreparePanel(img, resize)
	if err != nil {
		return nil, err
	}
	frame, err := protocol.EncodeImage(buf)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, target, frame)
}

// SendImageFile loads an image file and shows it on the targeted
// panels. See SendImage.
func (c *Controller) SendImageFile(ctx context.Context, target Target, path, mode string) (Report, error) {
	img, err := media.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return c.SendImage(ctx, target, img, mode)
}

// SendText shows text on the targeted panels, scaled to fit and
// centered. color is a palette name or "#RRGGBB"; empty means amber.
func (c *Controller) SendText(ctx context.Context, target Target, text, color string) (Report, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	fg, err := media.ParseColor(color)
	if err != nil {
		return nil, err
	}

	if target.IsGrid() {
		buf, err := media.RenderText(text, domain.GridSize, domain.GridSize, fg, media.Color{})
		if err != nil {
			return nil, err
		}
		return c.report(c.coord.SendGrid(ctx, buf))
	}

	mask, err := media.RenderMask(text, domain.PanelSize, domain.PanelSize)
	if err != nil {
		return nil, err
	}
	frame, err := protocol.EncodeText(mask, fg.R, fg.G, fg.B)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, target, frame)
}

// Clear blanks the targeted panels.
func (c *Controller) Clear(ctx context.Context, target Target) (Report, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, target, protocol.EncodeClear())
}

// Ping probes the targeted panels without changing what they show.
func (c *Controller) Ping(ctx context.Context, target Target) (Report, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return c.send(ctx, target, protocol.EncodePing())
}

// Scan sweeps for advertising panels for the configured window and
// returns each panel heard, de-duplicated, with Known set for panels
// already in the registry.
func (c *Controller) Scan(ctx context.Context) ([]Discovery, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	known := make(map[domain.DeviceID]bool)
	for _, p := range c.coord.Profiles() {
		known[p.ID] = true
	}

	scanCtx, cancel := context.WithTimeout(ctx, c.scanWindow())
	defer cancel()

	seen := make(map[domain.DeviceID]bool)
	var found []Discovery
	err := c.scanner.Scan(scanCtx, func(d ports.Discovery) {
		if seen[d.ID] {
			return
		}
		seen[d.ID] = true
		found = append(found, Discovery{
			MAC:   d.ID.String(),
			Name:  d.LocalName,
			RSSI:  d.RSSI,
			Known: known[d.ID],
		})
	})
	if err != nil && ctx.Err() == nil && scanCtx.Err() == nil {
		return nil, err
	}
	return found, nil
}

// SaveDiscovered merges newly discovered panels into the registry and
// returns how many were added. Already-known panels are left untouched.
func (c *Controller) SaveDiscovered(ctx context.Context, discoveries []Discovery) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	in := make([]ports.Discovery, 0, len(discoveries))
	for _, d := range discoveries {
		id, err := domain.ParseDeviceID(d.MAC)
		if err != nil {
			return 0, err
		}
		in = append(in, ports.Discovery{ID: id, LocalName: d.Name, RSSI: d.RSSI})
	}

	added, err := c.reg.AddDiscovered(ctx, in)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		c.mu.Lock()
		err = c.loadLocked(ctx)
		c.mu.Unlock()
	}
	return added, err
}

// Close drops every open panel connection. The controller cannot be
// used afterwards.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.coord.Close()
}

// send resolves the target and fans the frame out.
func (c *Controller) send(ctx context.Context, target Target, frame domain.CommandFrame) (Report, error) {
	resolved, err := target.resolve(c.coord.Profiles())
	if err != nil {
		return nil, err
	}
	return c.report(c.coord.Send(ctx, resolved, frame))
}

func (c *Controller) report(rep domain.SendReport, err error) (Report, error) {
	if err != nil {
		return nil, err
	}
	return convertReport(rep), nil
}

// ensureLoaded loads the registry on first use.
func (c *Controller) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrNotRunning
	}
	if c.loaded {
		return nil
	}
	return c.loadLocked(ctx)
}

func (c *Controller) loadLocked(ctx context.Context) error {
	snap, err := c.reg.Snapshot(ctx)
	if err != nil {
		return err
	}
	profiles := make([]domain.DeviceProfile, len(snap.Profiles))
	for i, p := range snap.Profiles {
		profiles[i] = c.override.Apply(p)
	}
	c.coord.UpdateProfiles(profiles)
	c.scanTimeout = snap.Settings.ScanTimeout
	c.loaded = true
	return nil
}

// scanWindow resolves the discovery sweep bound: the configured
// ScanWindow, or the registry's scan timeout when none is set.
func (c *Controller) scanWindow() time.Duration {
	if c.cfg.ScanWindow > 0 {
		return c.cfg.ScanWindow
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanTimeout > 0 {
		return c.scanTimeout
	}
	return domain.DefaultScanTimeout
}
