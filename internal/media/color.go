package media

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hoplab/panelhop/internal/domain"
)

// Color is an 8-bit-per-channel RGB value.
type Color struct {
	R, G, B uint8
}

// DefaultForeground is the amber tone of highway signage, the
// traditional color for panel text.
var DefaultForeground = Color{R: 255, G: 191, B: 0}

// palette maps the color names accepted on the command line and in the
// web API.
var palette = map[string]Color{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"orange":  {255, 153, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
	"amber":   {255, 191, 0},
	"purple":  {128, 0, 255},
}

// ParseColor accepts a palette name or a "#RRGGBB" hex triplet. Empty
// input means DefaultForeground.
func ParseColor(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return DefaultForeground, nil
	}

	if strings.HasPrefix(name, "#") {
		hex := name[1:]
		if len(hex) != 6 {
			return Color{}, fmt.Errorf("%w: color %q is not #RRGGBB", domain.ErrConfiguration, s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: color %q is not #RRGGBB", domain.ErrConfiguration, s)
		}
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}

	if c, ok := palette[name]; ok {
		return c, nil
	}
	return Color{}, fmt.Errorf("%w: unknown color %q", domain.ErrConfiguration, s)
}

// PaletteNames lists the accepted color names, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(palette))
	for name := range palette {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
