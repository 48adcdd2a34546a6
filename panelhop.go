// Package panelhop drives BLE RGB LED matrix panels: 32x32 displays
// that speak a small chunked frame protocol over GATT writes.
//
// Example usage:
//
//	ctrl, err := panelhop.New(panelhop.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	report, err := ctrl.SendText(context.Background(), panelhop.All(), "HELLO", "amber")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.OK())
//
// The full API, including custom dialers, scanners and event handlers,
// lives in pkg/panelhop; this package re-exports the pieces most
// callers need.
package panelhop

import (
	core "github.com/hoplab/panelhop/pkg/panelhop"
)

// Controller drives a set of LED matrix panels through their registry.
type Controller = core.Controller

// Config holds the settings for a Controller. The zero value uses the
// default registry location.
type Config = core.Config

// Option configures optional behavior of a Controller.
type Option = core.Option

// Target selects which panels an operation addresses. Build one with
// All, Grid or Device.
type Target = core.Target

// Report is the ordered per-panel outcome of one operation.
type Report = core.Report

// New creates a Controller over the panel registry. No radio or file
// access happens until the first operation.
func New(cfg Config, opts ...Option) (*Controller, error) {
	return core.New(cfg, opts...)
}

// All addresses every enabled panel, in registry order.
func All() Target { return core.All() }

// Grid addresses the panels assigned to grid slots.
func Grid() Target { return core.Grid() }

// Device addresses one panel by its registry name or address.
func Device(nameOrAddress string) Target { return core.Device(nameOrAddress) }

// WithLogger sets a custom logger for structured logging.
func WithLogger(logger core.Logger) Option { return core.WithLogger(logger) }
