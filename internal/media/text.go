package media

import (
	"fmt"
	"strings"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/protocol"
)

// maxTextScale bounds the auto-scale search; 4x is already 28 pixels
// tall on a 32-pixel panel.
const maxTextScale = 4

// TextWidth returns the unscaled pixel width of text in the dot-matrix
// face. Runes outside the face take no space.
func TextWidth(text string) int {
	width := 0
	for _, r := range strings.ToUpper(text) {
		if _, ok := glyphs[r]; ok {
			width += glyphWidth + glyphSpacing
		}
	}
	if width == 0 {
		return 0
	}
	return width - glyphSpacing
}

// RenderMask rasterizes text into an on/off raster of the given size.
// The text is scaled to the largest integer factor that fits with a
// one-pixel margin and centered; text too wide even at 1x is clipped at
// the edges. Lowercase maps to uppercase, unrenderable runes are
// dropped.
func RenderMask(text string, width, height int) (protocol.GlyphMask, error) {
	if width <= 0 || height <= 0 || width > 0xFF || height > 0xFF {
		return protocol.GlyphMask{}, fmt.Errorf("%w: text raster %dx%d", domain.ErrDimension, width, height)
	}

	mask := protocol.GlyphMask{
		Width:  width,
		Height: height,
		On:     make([]bool, width*height),
	}

	upper := strings.ToUpper(text)
	textW := TextWidth(upper)
	if textW == 0 {
		return mask, nil
	}

	scale := 1
	for s := maxTextScale; s > 1; s-- {
		if textW*s <= width-2 && glyphHeight*s <= height-2 {
			scale = s
			break
		}
	}

	x := width/2 - textW*scale/2
	y := height/2 - glyphHeight*scale/2

	for _, r := range upper {
		pattern, ok := glyphs[r]
		if !ok {
			continue
		}
		drawGlyph(mask, pattern, x, y, scale)
		x += (glyphWidth + glyphSpacing) * scale
	}
	return mask, nil
}

// RenderText rasterizes text onto a solid background, for targets that
// take full pixel buffers such as grid sends and web previews.
func RenderText(text string, width, height int, fg, bg Color) (domain.PixelBuffer, error) {
	mask, err := RenderMask(text, width, height)
	if err != nil {
		return domain.PixelBuffer{}, err
	}

	pix := make([]byte, width*height*domain.BytesPerPixel)
	for i, on := range mask.On {
		c := bg
		if on {
			c = fg
		}
		pix[i*3] = c.R
		pix[i*3+1] = c.G
		pix[i*3+2] = c.B
	}
	return domain.NewPixelBuffer(width, height, pix)
}

// drawGlyph stamps one pattern into the mask at scale, clipping at the
// raster edges.
func drawGlyph(mask protocol.GlyphMask, pattern [glyphHeight]string, x, y, scale int) {
	for row, line := range pattern {
		for col := 0; col < len(line); col++ {
			if line[col] != '#' {
				continue
			}
			px := x + col*scale
			py := y + row*scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					setOn(mask, px+dx, py+dy)
				}
			}
		}
	}
}

func setOn(mask protocol.GlyphMask, x, y int) {
	if x < 0 || y < 0 || x >= mask.Width || y >= mask.Height {
		return
	}
	mask.On[y*mask.Width+x] = true
}
