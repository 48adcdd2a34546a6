package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
)

// GATT identifiers of the panel firmware.
var (
	serviceUUID = bluetooth.New16BitUUID(0xFFF0)
	writeUUID   = bluetooth.New16BitUUID(0xFFF2)
	notifyUUID  = bluetooth.New16BitUUID(0xFFF1)
)

// resolveScanTimeout bounds the discovery pass that maps a panel address
// to a connectable peripheral when no prior scan has seen it.
const resolveScanTimeout = 15 * time.Second

// Central owns the local Bluetooth adapter and hands out links and scan
// results. It implements both ports.LinkDialer and ports.Scanner.
//
// The radio runs one scan at a time, so discovery scans and the address
// resolution that Dial may need are serialized internally. Connects and
// writes on established links do not take that lock.
type Central struct {
	adapter *bluetooth.Adapter
	logger  ports.Logger

	mu      sync.Mutex
	enabled bool
	addrs   map[domain.DeviceID]bluetooth.Address

	// scanMu serializes use of the radio's single scanner.
	scanMu sync.Mutex
}

// NewCentral wraps the default system adapter. The adapter is powered on
// lazily on first use.
func NewCentral(logger ports.Logger) *Central {
	return &Central{
		adapter: bluetooth.DefaultAdapter,
		logger:  logger,
		addrs:   make(map[domain.DeviceID]bluetooth.Address),
	}
}

// ensureEnabled powers on the adapter once.
func (c *Central) ensureEnabled() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		return nil
	}
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	c.enabled = true
	return nil
}

// cacheAddress remembers the connectable address seen for a panel.
func (c *Central) cacheAddress(id domain.DeviceID, addr bluetooth.Address) {
	c.mu.Lock()
	c.addrs[id] = addr
	c.mu.Unlock()
}

func (c *Central) cachedAddress(id domain.DeviceID) (bluetooth.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, ok := c.addrs[id]
	return addr, ok
}

// resolveAddress returns a connectable address for the panel, scanning
// for its advertisement if no previous scan has cached one. Some stacks
// only connect to peripherals they have recently seen advertise, so the
// scan also primes the stack's own device cache.
func (c *Central) resolveAddress(ctx context.Context, id domain.DeviceID) (bluetooth.Address, error) {
	if addr, ok := c.cachedAddress(id); ok {
		return addr, nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, resolveScanTimeout)
	defer cancel()

	var (
		found bool
		addr  bluetooth.Address
	)
	err := c.scan(scanCtx, func(result bluetooth.ScanResult) bool {
		got, ok := deviceID(result.Address)
		if !ok || got != id {
			return true
		}
		addr = result.Address
		found = true
		return false
	})
	if found {
		c.cacheAddress(id, addr)
		return addr, nil
	}
	if err != nil && scanCtx.Err() == nil {
		return bluetooth.Address{}, fmt.Errorf("resolve %s: %w", id, err)
	}
	return bluetooth.Address{}, fmt.Errorf("panel %s not seen advertising", id)
}

// scan runs one radio scan, feeding results to keep until it returns
// false or ctx ends. Holding scanMu keeps concurrent dials and discovery
// runs from fighting over the scanner.
func (c *Central) scan(ctx context.Context, keep func(bluetooth.ScanResult) bool) error {
	if err := c.ensureEnabled(); err != nil {
		return err
	}

	c.scanMu.Lock()
	defer c.scanMu.Unlock()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		// Unblocks the Scan call below.
		_ = c.adapter.StopScan()
	}()
	defer close(stop)

	err := c.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !keep(result) {
			_ = c.adapter.StopScan()
		}
	})
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	return nil
}

// deviceID parses a scan result address into a panel identity. Platforms
// that hide MAC addresses behind opaque identifiers yield no identity and
// those results are skipped.
func deviceID(addr bluetooth.Address) (domain.DeviceID, bool) {
	id, err := domain.ParseDeviceID(addr.String())
	if err != nil {
		return domain.DeviceID{}, false
	}
	return id, true
}
