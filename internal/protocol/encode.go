package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/hoplab/panelhop/internal/domain"
)

// EncodeImage builds an image frame from a panel-sized pixel buffer.
// Buffers of any other dimensions are rejected with ErrDimension.
func EncodeImage(buf domain.PixelBuffer) (domain.CommandFrame, error) {
	if !buf.IsPanel() {
		return domain.CommandFrame{}, fmt.Errorf("%w: image frame needs %dx%d, got %dx%d",
			domain.ErrDimension, domain.PanelSize, domain.PanelSize, buf.Width(), buf.Height())
	}
	return buildFrame(domain.KindImage, uint8(buf.Width()), uint8(buf.Height()), buf.RGB())
}

// GlyphMask is a row-major on/off raster, the output of text rendering
// before it is packed into a text frame.
type GlyphMask struct {
	// Width and Height are the raster dimensions in pixels.
	Width, Height int

	// On holds one entry per pixel in row-major order.
	On []bool
}

// Validate checks that the mask dimensions match its backing slice.
func (m GlyphMask) Validate() error {
	if m.Width <= 0 || m.Height <= 0 || m.Width > 0xFF || m.Height > 0xFF {
		return fmt.Errorf("%w: glyph mask %dx%d", domain.ErrDimension, m.Width, m.Height)
	}
	if len(m.On) != m.Width*m.Height {
		return fmt.Errorf("%w: glyph mask has %d cells for %dx%d",
			domain.ErrDimension, len(m.On), m.Width, m.Height)
	}
	return nil
}

// EncodeText builds a text frame: a foreground color followed by the mask
// packed as run bytes (pixel state in bit 7, run length 1..127 in bits 0..6).
func EncodeText(mask GlyphMask, r, g, b byte) (domain.CommandFrame, error) {
	if err := mask.Validate(); err != nil {
		return domain.CommandFrame{}, err
	}
	payload := make([]byte, 0, 3+len(mask.On)/4)
	payload = append(payload, r, g, b)
	payload = appendRuns(payload, mask.On)
	return buildFrame(domain.KindText, uint8(mask.Width), uint8(mask.Height), payload)
}

// EncodeClear builds the payload-less frame that blanks a panel.
func EncodeClear() domain.CommandFrame {
	f, _ := buildFrame(domain.KindClear, 0, 0, nil)
	return f
}

// EncodePing builds the payload-less liveness probe frame.
func EncodePing() domain.CommandFrame {
	f, _ := buildFrame(domain.KindPing, 0, 0, nil)
	return f
}

// buildFrame assembles header, payload and checksum into one wire frame.
func buildFrame(kind domain.CommandKind, width, height uint8, payload []byte) (domain.CommandFrame, error) {
	if len(payload) > MaxPayload {
		return domain.CommandFrame{}, fmt.Errorf("%w: payload %d bytes exceeds %d",
			domain.ErrEncoding, len(payload), MaxPayload)
	}

	total := headerLength + len(payload) + trailerLength
	wire := make([]byte, total)
	wire[0] = byte(kind)
	binary.LittleEndian.PutUint16(wire[1:3], uint16(len(payload)))
	wire[3] = width
	wire[4] = height
	copy(wire[headerLength:], payload)
	binary.LittleEndian.PutUint16(wire[total-trailerLength:], checksum(wire[:total-trailerLength]))

	return domain.CommandFrame{
		Kind:    kind,
		Width:   width,
		Height:  height,
		Payload: wire[headerLength : headerLength+len(payload)],
		Wire:    wire,
	}, nil
}

// appendRuns packs an on/off raster into run bytes. Runs never exceed 127
// pixels; longer stretches emit consecutive runs of the same state.
func appendRuns(dst []byte, on []bool) []byte {
	i := 0
	for i < len(on) {
		state := on[i]
		n := 1
		for i+n < len(on) && on[i+n] == state && n < 127 {
			n++
		}
		run := byte(n)
		if state {
			run |= 0x80
		}
		dst = append(dst, run)
		i += n
	}
	return dst
}

// checksum returns the additive checksum over data: the unsigned 16-bit
// sum of all bytes.
func checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// ParseHeader reads the frame header from raw wire bytes. It returns ok
// false when data is shorter than a header.
func ParseHeader(data []byte) (kind domain.CommandKind, payloadLen uint16, width, height uint8, ok bool) {
	if len(data) < headerLength {
		return 0, 0, 0, 0, false
	}
	kind = domain.CommandKind(data[0])
	payloadLen = binary.LittleEndian.Uint16(data[1:3])
	return kind, payloadLen, data[3], data[4], true
}

// VerifyFrame checks that wire holds one complete frame whose stamped
// length and trailing checksum are consistent.
func VerifyFrame(wire []byte) error {
	kind, payloadLen, _, _, ok := ParseHeader(wire)
	if !ok {
		return fmt.Errorf("%w: frame shorter than header", domain.ErrEncoding)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown command kind 0x%02X", domain.ErrEncoding, byte(kind))
	}
	want := headerLength + int(payloadLen) + trailerLength
	if len(wire) != want {
		return fmt.Errorf("%w: frame is %d bytes, header says %d", domain.ErrEncoding, len(wire), want)
	}
	stamped := binary.LittleEndian.Uint16(wire[len(wire)-trailerLength:])
	if sum := checksum(wire[:len(wire)-trailerLength]); sum != stamped {
		return fmt.Errorf("%w: checksum 0x%04X, frame carries 0x%04X", domain.ErrEncoding, sum, stamped)
	}
	return nil
}
