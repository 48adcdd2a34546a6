package protocol

import "time"

// Frame layout constants, fixed by the panel firmware.
const (
	// headerLength covers kind, payload length, width and height.
	headerLength = 5

	// trailerLength is the checksum width.
	trailerLength = 2

	// MaxPayload is the largest frame body the 16-bit length field can carry.
	MaxPayload = 0xFFFF
)

// Chunking constants.
const (
	// controlLength is the per-chunk control byte prefix.
	controlLength = 1

	// MinChunkSize is the smallest usable chunk: control byte plus a few
	// payload bytes. Smaller values are rejected as misconfiguration.
	MinChunkSize = 8

	// DefaultChunkSize is used when the link reports no usable MTU. It is
	// the 23-byte minimum ATT MTU minus the 3-byte ATT write header.
	DefaultChunkSize = 20

	// seqModulus wraps the 7-bit chunk sequence counter.
	seqModulus = 128

	// finalMask marks the last chunk of a frame in the control byte.
	finalMask = 0x80
)

// MinSendGap is the smallest pause between chunk writes the panels
// tolerate. Configured gaps below it are raised to it.
const MinSendGap = 20 * time.Millisecond

// ClampSendGap returns the configured inter-chunk gap raised to MinSendGap
// when it falls below it.
func ClampSendGap(gap time.Duration) time.Duration {
	if gap < MinSendGap {
		return MinSendGap
	}
	return gap
}
