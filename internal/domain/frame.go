package domain

import "fmt"

// CommandKind identifies what a frame instructs the panel to do.
// The values are fixed by the wire format and must not be renumbered.
type CommandKind byte

const (
	// KindImage carries a full row-major RGB bitmap.
	KindImage CommandKind = 0x01

	// KindText carries a foreground color and run-length-packed glyph rows.
	KindText CommandKind = 0x02

	// KindClear blanks the panel. It carries no payload.
	KindClear CommandKind = 0x03

	// KindPing probes liveness. It carries no payload.
	KindPing CommandKind = 0x04
)

// String returns the lower-case command name used in logs.
func (k CommandKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindClear:
		return "clear"
	case KindPing:
		return "ping"
	}
	return fmt.Sprintf("CommandKind(0x%02X)", byte(k))
}

// Valid reports whether the kind is one of the defined commands.
func (k CommandKind) Valid() bool {
	return k >= KindImage && k <= KindPing
}

// CommandFrame is one complete encoded panel command: header, payload and
// trailing checksum, exactly as it travels over the link. Frames are built
// by the protocol codec and treated as read-only afterwards.
type CommandFrame struct {
	// Kind is the command this frame carries.
	Kind CommandKind

	// Width and Height are the pixel dimensions stamped in the header.
	// Zero for payload-less commands.
	Width, Height uint8

	// Payload is the command body: row-major RGB for KindImage, color plus
	// glyph runs for KindText, empty for KindClear and KindPing. It aliases
	// a region of Wire and must not be modified.
	Payload []byte

	// Wire is the full framed byte sequence including header and checksum.
	// This is what the chunker slices and the link transmits.
	Wire []byte
}

// Size returns the total framed length in bytes.
func (f CommandFrame) Size() int { return len(f.Wire) }

// Checksum returns the additive checksum stamped in the frame trailer.
func (f CommandFrame) Checksum() uint16 {
	n := len(f.Wire)
	if n < 2 {
		return 0
	}
	return uint16(f.Wire[n-2]) | uint16(f.Wire[n-1])<<8
}

// Chunk is one link-sized slice of a frame, the unit handed to the device
// link. The chunker stamps each chunk with its position so a receiver can
// detect loss and find the frame boundary.
type Chunk struct {
	// Index is the zero-based position of this chunk within its frame.
	Index int

	// Final marks the last chunk of the frame.
	Final bool

	// Payload is the chunk bytes as written to the link, control byte
	// included. Each chunk owns its bytes.
	Payload []byte
}
