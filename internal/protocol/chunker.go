package protocol

import (
	"fmt"

	"github.com/hoplab/panelhop/internal/domain"
)

// Chunker slices encoded frames into link-sized chunks. A Chunker is
// immutable and safe for concurrent use.
type Chunker struct {
	chunkSize int
}

// NewChunker builds a chunker for the given chunk size, the total bytes of
// one link write including the control byte. Zero or negative means
// DefaultChunkSize. Sizes below MinChunkSize are rejected with
// ErrConfiguration.
func NewChunker(chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < MinChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d below minimum %d",
			domain.ErrConfiguration, chunkSize, MinChunkSize)
	}
	return &Chunker{chunkSize: chunkSize}, nil
}

// ChunkSize returns the configured write size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Count returns how many chunks Split will produce for a frame of the
// given wire length.
func (c *Chunker) Count(frameLen int) int {
	if frameLen <= 0 {
		return 0
	}
	per := c.chunkSize - controlLength
	return (frameLen + per - 1) / per
}

// Split cuts a frame into chunks. Every chunk starts with a control byte
// carrying the final flag (bit 7) and the sequence counter mod 128
// (bits 0..6); the rest is the next slice of the frame. All chunks except
// possibly the last are exactly ChunkSize bytes.
func (c *Chunker) Split(frame domain.CommandFrame) []domain.Chunk {
	wire := frame.Wire
	if len(wire) == 0 {
		return nil
	}

	per := c.chunkSize - controlLength
	chunks := make([]domain.Chunk, 0, c.Count(len(wire)))

	for off, idx := 0, 0; off < len(wire); idx++ {
		n := len(wire) - off
		if n > per {
			n = per
		}
		final := off+n == len(wire)

		payload := make([]byte, controlLength+n)
		payload[0] = byte(idx % seqModulus)
		if final {
			payload[0] |= finalMask
		}
		copy(payload[controlLength:], wire[off:off+n])

		chunks = append(chunks, domain.Chunk{Index: idx, Final: final, Payload: payload})
		off += n
	}
	return chunks
}
