// Package colour provides colour extraction and palette handling for Paleta.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// hexPattern is the accepted external form of a colour, before normalisation.
var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// RGB represents an opaque colour with 8-bit channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the canonical uppercase hex form (e.g., "#1A2B3C").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", rgb.R, rgb.G, rgb.B)
}

// RGBA returns the colour as a fully opaque color.RGBA.
func (rgb RGB) RGBA() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// ToRGB converts a color.Color to RGB.
// Alpha is ignored; callers flatten transparent images before this point.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ParseHex parses a "#RRGGBB" string, ignoring surrounding whitespace.
// Returns an error wrapping ErrInvalidArgument for anything else.
func ParseHex(s string) (RGB, error) {
	trimmed := strings.TrimSpace(s)
	if !hexPattern.MatchString(trimmed) {
		return RGB{}, fmt.Errorf("%w: malformed hex colour %q (expected #RRGGBB)", ErrInvalidArgument, s)
	}

	c, err := colorful.Hex(trimmed)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: malformed hex colour %q: %v", ErrInvalidArgument, s, err)
	}

	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Palette is an ordered list of colours. Order is caller-significant and is
// never sorted or deduplicated.
type Palette struct {
	Colors []RGB

	// Weights holds the relative cluster size of each colour, summing to 1.0.
	// Nil when the palette was not produced by extraction.
	Weights []float64
}

// NewPalette creates a new Palette with the given colors.
func NewPalette(colors []RGB) *Palette {
	return &Palette{
		Colors: colors,
	}
}

// NewPaletteWithWeights creates a new Palette with colors and their weights.
func NewPaletteWithWeights(colors []RGB, weights []float64) *Palette {
	return &Palette{
		Colors:  colors,
		Weights: weights,
	}
}

// Len returns the number of colors in the palette.
func (p *Palette) Len() int {
	return len(p.Colors)
}

// ToHex converts the palette colours to uppercase hex strings.
func (p *Palette) ToHex() []string {
	hexColors := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		hexColors[i] = c.Hex()
	}
	return hexColors
}

// ColorJSON represents a color in JSON output format.
type ColorJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Weight float64 `json:"weight,omitempty"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count  int         `json:"count"`
	Colors []ColorJSON `json:"colors"`
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	colors := make([]ColorJSON, len(p.Colors))
	for i, c := range p.Colors {
		colors[i] = ColorJSON{
			Hex: c.Hex(),
			RGB: c,
		}
		if i < len(p.Weights) {
			colors[i].Weight = p.Weights[i]
		}
	}

	paletteJSON := PaletteJSON{
		Count:  len(p.Colors),
		Colors: colors,
	}

	return json.MarshalIndent(paletteJSON, "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colors) == 0 {
		return "Empty palette"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Palette with %d colors:\n", len(p.Colors))
	for i, c := range p.Colors {
		fmt.Fprintf(&sb, "  %2d: %s (%s)\n", i+1, c.Hex(), c.String())
	}
	return sb.String()
}

// Get returns the color at the specified index.
// Returns an error if the index is out of bounds.
func (p *Palette) Get(index int) (RGB, error) {
	if index < 0 || index >= len(p.Colors) {
		return RGB{}, fmt.Errorf("index out of bounds: %d (palette has %d colors)", index, len(p.Colors))
	}
	return p.Colors[index], nil
}

// All returns an iterator over all colors in the palette.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		for i, c := range p.Colors {
			if !yield(i, c) {
				return
			}
		}
	}
}
