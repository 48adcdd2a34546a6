package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/hoplab/panelhop/internal/domain"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestParseResizeMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ResizeMode
		wantErr bool
	}{
		{name: "empty defaults to fill", input: "", want: ResizeFill},
		{name: "fill", input: "fill", want: ResizeFill},
		{name: "fit", input: "fit", want: ResizeFit},
		{name: "stretch", input: "stretch", want: ResizeStretch},
		{name: "unknown", input: "zoom", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResizeMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResizeMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Fatalf("error = %v, want ErrConfiguration", err)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("ParseResizeMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResizeStretchAndFillCoverTarget(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src := uniformImage(20, 10, red)

	for _, mode := range []ResizeMode{ResizeStretch, ResizeFill} {
		t.Run(mode.String(), func(t *testing.T) {
			dst, err := Resize(src, 10, 10, mode)
			if err != nil {
				t.Fatalf("Resize() error = %v", err)
			}
			if got := dst.Bounds(); got.Dx() != 10 || got.Dy() != 10 {
				t.Fatalf("resized to %dx%d, want 10x10", got.Dx(), got.Dy())
			}
			for y := 0; y < 10; y++ {
				for x := 0; x < 10; x++ {
					if got := dst.RGBAAt(x, y); got != red {
						t.Fatalf("pixel (%d,%d) = %+v, want %+v", x, y, got, red)
					}
				}
			}
		})
	}
}

func TestResizeFitLetterboxes(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	black := color.RGBA{A: 255}

	// A 2:1 source into a square target scales to 10x5 and centers,
	// leaving black bars above and below.
	dst, err := Resize(uniformImage(20, 10, red), 10, 10, ResizeFit)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	for x := 0; x < 10; x++ {
		if got := dst.RGBAAt(x, 0); got != black {
			t.Fatalf("bar pixel (%d,0) = %+v, want black", x, got)
		}
		if got := dst.RGBAAt(x, 4); got != red {
			t.Fatalf("image pixel (%d,4) = %+v, want red", x, got)
		}
		if got := dst.RGBAAt(x, 9); got != black {
			t.Fatalf("bar pixel (%d,9) = %+v, want black", x, got)
		}
	}
}

func TestResizeRejectsBadInput(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}

	if _, err := Resize(uniformImage(4, 4, red), 0, 10, ResizeFill); !errors.Is(err, domain.ErrDimension) {
		t.Fatalf("zero target: error = %v, want ErrDimension", err)
	}
	if _, err := Resize(image.NewRGBA(image.Rect(0, 0, 0, 0)), 10, 10, ResizeFill); !errors.Is(err, domain.ErrDimension) {
		t.Fatalf("empty source: error = %v, want ErrDimension", err)
	}
	if _, err := Resize(uniformImage(4, 4, red), 10, 10, ResizeMode(9)); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("bad mode: error = %v, want ErrConfiguration", err)
	}
}

func TestToBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 7, G: 8, B: 9, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 11, B: 12, A: 255})

	buf, err := ToBuffer(img)
	if err != nil {
		t.Fatalf("ToBuffer() error = %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !bytes.Equal(buf.RGB(), want) {
		t.Fatalf("RGB() = %v, want %v", buf.RGB(), want)
	}
}

func TestToBufferConvertsNonRGBA(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 100})
	gray.SetGray(1, 0, color.Gray{Y: 200})

	buf, err := ToBuffer(gray)
	if err != nil {
		t.Fatalf("ToBuffer() error = %v", err)
	}
	want := []byte{100, 100, 100, 200, 200, 200}
	if !bytes.Equal(buf.RGB(), want) {
		t.Fatalf("RGB() = %v, want %v", buf.RGB(), want)
	}
}

func TestDecode(t *testing.T) {
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, uniformImage(3, 3, color.RGBA{G: 255, A: 255})); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	img, err := Decode(&encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 3 {
		t.Fatalf("decoded %dx%d, want 3x3", b.Dx(), b.Dy())
	}

	if _, err := Decode(bytes.NewReader([]byte("not an image"))); !errors.Is(err, domain.ErrEncoding) {
		t.Fatalf("garbage input: error = %v, want ErrEncoding", err)
	}
}

func TestPrepareTargets(t *testing.T) {
	src := uniformImage(100, 60, color.RGBA{B: 255, A: 255})

	panel, err := PreparePanel(src, ResizeFill)
	if err != nil {
		t.Fatalf("PreparePanel() error = %v", err)
	}
	if !panel.IsPanel() {
		t.Fatalf("PreparePanel() produced %dx%d", panel.Width(), panel.Height())
	}

	grid, err := PrepareGrid(src, ResizeFill)
	if err != nil {
		t.Fatalf("PrepareGrid() error = %v", err)
	}
	if !grid.IsGrid() {
		t.Fatalf("PrepareGrid() produced %dx%d", grid.Width(), grid.Height())
	}
}
