package ports

import (
	"context"

	"github.com/hoplab/panelhop/internal/domain"
)

// DeviceLink is one open connection to a panel. Links are not safe for
// concurrent writers; the owning session serializes access.
type DeviceLink interface {
	// WriteChunk writes one chunk to the panel's write characteristic
	// without waiting for an acknowledgement. The context bounds the
	// single write, not the whole transfer.
	WriteChunk(ctx context.Context, chunk domain.Chunk) error

	// ChunkSize returns the usable bytes per write as negotiated with the
	// device, or 0 when the link cannot tell. Callers fall back to the
	// protocol default.
	ChunkSize() int

	// Close tears down the connection. Close is idempotent.
	Close() error
}

// LinkDialer opens connections to panels. Implementations own radio
// setup and service discovery; a returned link is ready to write.
type LinkDialer interface {
	// Dial connects to the device. The context bounds the whole attempt
	// including service discovery. Dial does not retry; the session
	// drives retries with backoff.
	Dial(ctx context.Context, id domain.DeviceID) (DeviceLink, error)
}
