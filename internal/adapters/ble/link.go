package ble

import (
	"context"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/ports"
	"github.com/hoplab/panelhop/internal/protocol"
	"github.com/hoplab/panelhop/pkg/log"
)

// attHeaderLength is subtracted from the negotiated ATT MTU to get the
// usable write size.
const attHeaderLength = 3

// Dial connects to a panel, discovers the display service and returns a
// link ready for chunk writes. The context deadline bounds the whole
// sequence including the advertisement scan a first contact needs.
func (c *Central) Dial(ctx context.Context, id domain.DeviceID) (ports.DeviceLink, error) {
	if err := c.ensureEnabled(); err != nil {
		return nil, err
	}

	addr, err := c.resolveAddress(ctx, id)
	if err != nil {
		return nil, err
	}

	params := bluetooth.ConnectionParams{}
	if deadline, ok := ctx.Deadline(); ok {
		params.ConnectionTimeout = bluetooth.NewDuration(time.Until(deadline))
	}

	device, err := c.adapter.Connect(addr, params)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}

	link, err := c.attachLink(device, id)
	if err != nil {
		_ = device.Disconnect()
		return nil, err
	}
	return link, nil
}

// attachLink discovers the display service on a connected device and
// negotiates the chunk size.
func (c *Central) attachLink(device bluetooth.Device, id domain.DeviceID) (*link, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return nil, fmt.Errorf("discover display service: %w", err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("%s exposes no display service", id)
	}

	// Discover everything: requesting a fixed UUID list fails outright on
	// firmware revisions that omit the notify characteristic.
	chars, err := services[0].DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	l := &link{device: device, logger: c.logger, chunkSize: protocol.DefaultChunkSize}
	haveWrite := false
	for _, ch := range chars {
		switch {
		case ch.UUID() == writeUUID:
			l.write = ch
			haveWrite = true
		case ch.UUID() == notifyUUID:
			// Panel acks are informational only; keep them visible in
			// debug logs.
			notifyLog := c.logger
			_ = ch.EnableNotifications(func(buf []byte) {
				notifyLog.Debug("panel notification", log.Hex("data", buf))
			})
		}
	}
	if !haveWrite {
		return nil, fmt.Errorf("%s has no write characteristic", id)
	}

	if mtu, err := l.write.GetMTU(); err == nil {
		l.chunkSize = chunkSizeFromMTU(mtu)
	}

	c.logger.Debug("ble link up",
		log.String("device", id.String()),
		log.Int("chunk_size", l.chunkSize),
	)
	return l, nil
}

// chunkSizeFromMTU converts a negotiated ATT MTU to a usable chunk size,
// falling back to the protocol default when the value is implausible.
func chunkSizeFromMTU(mtu uint16) int {
	size := int(mtu) - attHeaderLength
	if size < protocol.MinChunkSize {
		return protocol.DefaultChunkSize
	}
	return size
}

// link is one established GATT connection to a panel.
type link struct {
	device    bluetooth.Device
	write     bluetooth.DeviceCharacteristic
	logger    ports.Logger
	chunkSize int
}

// WriteChunk pushes one chunk over the write-without-response
// characteristic.
func (l *link) WriteChunk(ctx context.Context, ch domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := l.write.WriteWithoutResponse(ch.Payload); err != nil {
		return fmt.Errorf("write chunk %d: %w", ch.Index, err)
	}
	return nil
}

// ChunkSize reports the negotiated write size for this link.
func (l *link) ChunkSize() int { return l.chunkSize }

// Close drops the GATT connection.
func (l *link) Close() error {
	return l.device.Disconnect()
}
