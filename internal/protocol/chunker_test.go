package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/hoplab/panelhop/internal/domain"
)

func TestNewChunker(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantSize int
		wantErr  bool
	}{
		{name: "explicit", size: 64, wantSize: 64},
		{name: "zero falls back to default", size: 0, wantSize: DefaultChunkSize},
		{name: "negative falls back to default", size: -5, wantSize: DefaultChunkSize},
		{name: "minimum accepted", size: MinChunkSize, wantSize: MinChunkSize},
		{name: "below minimum rejected", size: MinChunkSize - 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Fatalf("NewChunker(%d) error = %v, want ErrConfiguration", tt.size, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewChunker(%d): %v", tt.size, err)
			}
			if c.ChunkSize() != tt.wantSize {
				t.Errorf("ChunkSize() = %d, want %d", c.ChunkSize(), tt.wantSize)
			}
		})
	}
}

func TestChunker_Split(t *testing.T) {
	frame, err := EncodeImage(panelBuffer(t))
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}

	c, err := NewChunker(DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	chunks := c.Split(frame)

	if len(chunks) != c.Count(frame.Size()) {
		t.Fatalf("got %d chunks, Count says %d", len(chunks), c.Count(frame.Size()))
	}

	// Indexes are contiguous from zero, exactly the last chunk is final,
	// and every chunk except the last is completely full.
	var reassembled []byte
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has Index %d", i, ch.Index)
		}
		if got, want := ch.Final, i == len(chunks)-1; got != want {
			t.Errorf("chunk %d Final = %v, want %v", i, got, want)
		}
		if len(ch.Payload) > DefaultChunkSize {
			t.Errorf("chunk %d is %d bytes, exceeds %d", i, len(ch.Payload), DefaultChunkSize)
		}
		if i < len(chunks)-1 && len(ch.Payload) != DefaultChunkSize {
			t.Errorf("chunk %d is %d bytes, want full %d", i, len(ch.Payload), DefaultChunkSize)
		}

		ctrl := ch.Payload[0]
		if got, want := ctrl&0x7F, byte(i%128); got != want {
			t.Errorf("chunk %d control seq = %d, want %d", i, got, want)
		}
		if got, want := ctrl&0x80 != 0, i == len(chunks)-1; got != want {
			t.Errorf("chunk %d control final bit = %v, want %v", i, got, want)
		}

		reassembled = append(reassembled, ch.Payload[1:]...)
	}

	// Stripping control bytes and concatenating yields the frame exactly.
	if !bytes.Equal(reassembled, frame.Wire) {
		t.Errorf("reassembled %d bytes differ from frame wire %d bytes", len(reassembled), frame.Size())
	}
}

func TestChunker_SplitSmallFrame(t *testing.T) {
	// A ping frame fits in one chunk.
	c, err := NewChunker(DefaultChunkSize)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	chunks := c.Split(EncodePing())
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if !chunks[0].Final || chunks[0].Index != 0 {
		t.Errorf("single chunk = {Index %d, Final %v}, want {0, true}", chunks[0].Index, chunks[0].Final)
	}
	if chunks[0].Payload[0] != 0x80 {
		t.Errorf("control byte = %#x, want 0x80", chunks[0].Payload[0])
	}
}

func TestChunker_SequenceWraps(t *testing.T) {
	// An image frame at the minimum chunk size needs more than 128 chunks,
	// so the 7-bit counter must wrap.
	frame, err := EncodeImage(panelBuffer(t))
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	c, err := NewChunker(MinChunkSize)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	chunks := c.Split(frame)
	if len(chunks) <= 128 {
		t.Fatalf("got %d chunks, need >128 to exercise wrap", len(chunks))
	}
	if got := chunks[128].Payload[0] & 0x7F; got != 0 {
		t.Errorf("chunk 128 seq = %d, want wrapped 0", got)
	}
	if chunks[128].Index != 128 {
		t.Errorf("chunk 128 Index = %d, want 128", chunks[128].Index)
	}
}

func TestClampSendGap(t *testing.T) {
	if got := ClampSendGap(5 * time.Millisecond); got != MinSendGap {
		t.Errorf("ClampSendGap(5ms) = %v, want %v", got, MinSendGap)
	}
	if got := ClampSendGap(150 * time.Millisecond); got != 150*time.Millisecond {
		t.Errorf("ClampSendGap(150ms) = %v, want 150ms", got)
	}
	if got := ClampSendGap(0); got != MinSendGap {
		t.Errorf("ClampSendGap(0) = %v, want %v", got, MinSendGap)
	}
}
