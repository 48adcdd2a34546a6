package domain

import "fmt"

// Panel geometry. Every supported device exposes a square matrix of
// PanelSize×PanelSize pixels; a full 2×2 grid composes four of them into a
// GridSize×GridSize image.
const (
	// PanelSize is the edge length, in pixels, of a single panel.
	PanelSize = 32

	// GridSize is the edge length, in pixels, of the 2×2 composite image.
	GridSize = PanelSize * 2
)

// BytesPerPixel is the storage cost of one pixel: 8-bit red, green, blue.
const BytesPerPixel = 3

// PixelBuffer is an immutable, row-major RGB pixel grid.
//
// The zero value is an empty 0×0 buffer. Buffers are constructed with
// NewPixelBuffer (which validates and copies the pixel data) and never
// mutated afterwards, so they can be shared freely across goroutines.
type PixelBuffer struct {
	width  int
	height int
	pix    []byte
}

// NewPixelBuffer builds a buffer of the given dimensions from row-major RGB
// bytes. The data is copied, so the caller keeps ownership of pix.
// Returns ErrDimension when width or height is not positive or len(pix)
// does not equal width*height*BytesPerPixel.
func NewPixelBuffer(width, height int, pix []byte) (PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return PixelBuffer{}, fmt.Errorf("%w: %dx%d", ErrDimension, width, height)
	}
	want := width * height * BytesPerPixel
	if len(pix) != want {
		return PixelBuffer{}, fmt.Errorf("%w: got %d bytes for %dx%d, want %d",
			ErrDimension, len(pix), width, height, want)
	}
	cp := make([]byte, want)
	copy(cp, pix)
	return PixelBuffer{width: width, height: height, pix: cp}, nil
}

// NewPanelBuffer builds a PanelSize×PanelSize buffer. It is a convenience
// wrapper around NewPixelBuffer with the single-panel dimensions.
func NewPanelBuffer(pix []byte) (PixelBuffer, error) {
	return NewPixelBuffer(PanelSize, PanelSize, pix)
}

// NewFilledBuffer builds a buffer of the given dimensions with every pixel
// set to the given color.
func NewFilledBuffer(width, height int, r, g, b byte) (PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return PixelBuffer{}, fmt.Errorf("%w: %dx%d", ErrDimension, width, height)
	}
	pix := make([]byte, width*height*BytesPerPixel)
	for i := 0; i < len(pix); i += BytesPerPixel {
		pix[i] = r
		pix[i+1] = g
		pix[i+2] = b
	}
	return PixelBuffer{width: width, height: height, pix: pix}, nil
}

// Width returns the buffer width in pixels.
func (p PixelBuffer) Width() int { return p.width }

// Height returns the buffer height in pixels.
func (p PixelBuffer) Height() int { return p.height }

// Empty reports whether the buffer holds no pixels.
func (p PixelBuffer) Empty() bool { return len(p.pix) == 0 }

// IsPanel reports whether the buffer has single-panel dimensions.
func (p PixelBuffer) IsPanel() bool {
	return p.width == PanelSize && p.height == PanelSize
}

// IsGrid reports whether the buffer has full 2×2 composite dimensions.
func (p PixelBuffer) IsGrid() bool {
	return p.width == GridSize && p.height == GridSize
}

// At returns the color of the pixel at (x, y). Coordinates outside the
// buffer return black.
func (p PixelBuffer) At(x, y int) (r, g, b byte) {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return 0, 0, 0
	}
	i := (y*p.width + x) * BytesPerPixel
	return p.pix[i], p.pix[i+1], p.pix[i+2]
}

// RGB returns the raw row-major pixel bytes. The returned slice is the
// buffer's backing array and must not be modified.
func (p PixelBuffer) RGB() []byte { return p.pix }

// Sub extracts a rectangular region as a new independent buffer. The region
// must lie entirely within the source; otherwise ErrDimension is returned.
func (p PixelBuffer) Sub(x, y, width, height int) (PixelBuffer, error) {
	if width <= 0 || height <= 0 || x < 0 || y < 0 ||
		x+width > p.width || y+height > p.height {
		return PixelBuffer{}, fmt.Errorf("%w: region %dx%d at (%d,%d) outside %dx%d",
			ErrDimension, width, height, x, y, p.width, p.height)
	}
	pix := make([]byte, width*height*BytesPerPixel)
	for row := 0; row < height; row++ {
		srcOff := ((y+row)*p.width + x) * BytesPerPixel
		dstOff := row * width * BytesPerPixel
		copy(pix[dstOff:dstOff+width*BytesPerPixel], p.pix[srcOff:])
	}
	return PixelBuffer{width: width, height: height, pix: pix}, nil
}
