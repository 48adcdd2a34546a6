package media

import (
	"errors"
	"sort"
	"testing"

	"github.com/hoplab/panelhop/internal/domain"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{name: "named red", input: "red", want: Color{R: 255}},
		{name: "named amber", input: "amber", want: Color{R: 255, G: 191}},
		{name: "uppercase name", input: "GREEN", want: Color{G: 255}},
		{name: "padded name", input: "  blue ", want: Color{B: 255}},
		{name: "hex", input: "#ff9900", want: Color{R: 255, G: 153}},
		{name: "hex uppercase", input: "#FF00FF", want: Color{R: 255, B: 255}},
		{name: "empty defaults", input: "", want: DefaultForeground},
		{name: "unknown name", input: "mauve", wantErr: true},
		{name: "short hex", input: "#fff", wantErr: true},
		{name: "bad hex digits", input: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Fatalf("error = %v, want ErrConfiguration", err)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("ParseColor(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPaletteNames(t *testing.T) {
	names := PaletteNames()
	if len(names) != len(palette) {
		t.Fatalf("got %d names, want %d", len(names), len(palette))
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
}
