package ble

import (
	"context"
	"strings"

	"tinygo.org/x/bluetooth"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/pkg/log"
)

// NamePrefix marks panel advertisements. Firmware appends a per-unit
// suffix to it.
const NamePrefix = "LED_BLE_"

// Scan discovers advertising panels until ctx ends, reporting each one
// once per call. Discovered addresses are cached so a later Dial can skip
// its own resolution scan.
func (c *Central) Scan(ctx context.Context, found func(ports.Discovery)) error {
	seen := make(map[domain.DeviceID]bool)

	return c.scan(ctx, func(result bluetooth.ScanResult) bool {
		name := result.LocalName()
		if !strings.HasPrefix(name, NamePrefix) {
			return true
		}
		id, ok := deviceID(result.Address)
		if !ok || seen[id] {
			return true
		}
		seen[id] = true
		c.cacheAddress(id, result.Address)

		c.logger.Debug("panel advertisement",
			log.String("device", id.String()),
			log.String("name", name),
			log.Int("rssi", int(result.RSSI)),
		)
		found(ports.Discovery{ID: id, LocalName: name, RSSI: result.RSSI})
		return true
	})
}
