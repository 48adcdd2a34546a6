package media

import (
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/draw"

	// Decoders for the formats panels are fed in practice.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hoplab/panelhop/internal/domain"
)

// ResizeMode selects how a source image maps onto the fixed panel
// dimensions.
type ResizeMode int

const (
	// ResizeFill scales keeping aspect ratio and center-crops the
	// overflow. The default; no bars, no distortion.
	ResizeFill ResizeMode = iota

	// ResizeFit scales keeping aspect ratio and letterboxes the
	// remainder in black.
	ResizeFit

	// ResizeStretch maps the image onto the panel corner to corner,
	// distorting if the ratios differ.
	ResizeStretch
)

// ParseResizeMode parses the mode names used on the command line and in
// the web API. Empty means ResizeFill.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch s {
	case "", "fill":
		return ResizeFill, nil
	case "fit":
		return ResizeFit, nil
	case "stretch":
		return ResizeStretch, nil
	}
	return ResizeFill, fmt.Errorf("%w: unknown resize mode %q", domain.ErrConfiguration, s)
}

func (m ResizeMode) String() string {
	switch m {
	case ResizeFill:
		return "fill"
	case ResizeFit:
		return "fit"
	case ResizeStretch:
		return "stretch"
	}
	return fmt.Sprintf("ResizeMode(%d)", int(m))
}

// scaler is the resampling kernel for all panel scaling. CatmullRom
// keeps edges crisp at these tiny target sizes.
var scaler draw.Scaler = draw.CatmullRom

// Decode reads one image in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrEncoding, err)
	}
	return img, nil
}

// LoadFile reads and decodes an image file.
func LoadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Resize scales src to exactly width by height using the given mode.
func Resize(src image.Image, width, height int, mode ResizeMode) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resize target %dx%d", domain.ErrDimension, width, height)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: source image is empty", domain.ErrDimension)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	switch mode {
	case ResizeStretch:
		scaler.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	case ResizeFill:
		// Crop the source to the target aspect ratio, centered, then
		// scale the crop over the whole target.
		cw, ch := b.Dx(), b.Dy()
		if b.Dx()*height > width*b.Dy() {
			cw = b.Dy() * width / height
		} else {
			ch = b.Dx() * height / width
		}
		x0 := b.Min.X + (b.Dx()-cw)/2
		y0 := b.Min.Y + (b.Dy()-ch)/2
		scaler.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Src, nil)

	case ResizeFit:
		nw, nh := width, height
		if b.Dx()*height > width*b.Dy() {
			nh = b.Dy() * width / b.Dx()
		} else {
			nw = b.Dx() * height / b.Dy()
		}
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		x := (width - nw) / 2
		y := (height - nh) / 2
		draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
		scaler.Scale(dst, image.Rect(x, y, x+nw, y+nh), src, b, draw.Src, nil)

	default:
		return nil, fmt.Errorf("%w: unknown resize mode %d", domain.ErrConfiguration, int(mode))
	}

	return dst, nil
}

// ToBuffer converts any image to the panel's packed RGB layout. The
// alpha channel is discarded; panels have no notion of transparency.
func ToBuffer(img image.Image) (domain.PixelBuffer, error) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := make([]byte, w*h*domain.BytesPerPixel)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := rgba.Pix[(y-b.Min.Y)*rgba.Stride : (y-b.Min.Y)*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			pix[i] = row[x*4]
			pix[i+1] = row[x*4+1]
			pix[i+2] = row[x*4+2]
			i += 3
		}
	}
	return domain.NewPixelBuffer(w, h, pix)
}

// PreparePanel resizes and converts an image for one panel.
func PreparePanel(img image.Image, mode ResizeMode) (domain.PixelBuffer, error) {
	resized, err := Resize(img, domain.PanelSize, domain.PanelSize, mode)
	if err != nil {
		return domain.PixelBuffer{}, err
	}
	return ToBuffer(resized)
}

// PrepareGrid resizes and converts an image for the 2x2 composite.
func PrepareGrid(img image.Image, mode ResizeMode) (domain.PixelBuffer, error) {
	resized, err := Resize(img, domain.GridSize, domain.GridSize, mode)
	if err != nil {
		return domain.PixelBuffer{}, err
	}
	return ToBuffer(resized)
}

// toRGBA returns img as RGBA, copying only when the backing type
// differs.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
