package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/jmylchreest/paleta/internal/colour"
)

// Layout describes the geometry of the PNG swatch preview.
type Layout struct {
	Columns      int     // Maximum swatches per row.
	CellWidth    int     // Width of each swatch in pixels.
	SwatchHeight int     // Height of the coloured block.
	LabelHeight  int     // Height of the caption strip under each swatch.
	FontSize     float64 // Text size in points at 72 DPI.
}

// DefaultLayout returns the standard preview geometry: five columns of
// 160x120 swatches with a 36 px caption strip.
func DefaultLayout() Layout {
	return Layout{
		Columns:      5,
		CellWidth:    160,
		SwatchHeight: 120,
		LabelHeight:  36,
		FontSize:     18,
	}
}

// Validate checks the layout can produce an image.
func (l Layout) Validate() error {
	if l.Columns < 1 || l.CellWidth < 1 || l.SwatchHeight < 1 || l.LabelHeight < 1 {
		return fmt.Errorf("invalid preview layout: %+v", l)
	}
	if l.SwatchHeight <= l.LabelHeight {
		return fmt.Errorf("invalid preview layout: swatch height %d must exceed label height %d", l.SwatchHeight, l.LabelHeight)
	}
	if l.FontSize <= 0 {
		return fmt.Errorf("invalid preview layout: font size must be positive, got %g", l.FontSize)
	}
	return nil
}

// Bounds returns the size of the preview for n colours.
func (l Layout) Bounds(n int) image.Rectangle {
	cols := min(n, l.Columns)
	rows := (n + l.Columns - 1) / l.Columns
	return image.Rect(0, 0, cols*l.CellWidth, rows*(l.SwatchHeight+l.LabelHeight))
}

// Preview colours.
var (
	darkText    = color.RGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF}
	lightText   = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	captionFill = color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}
)

// regularFont parses the embedded Go Regular font once.
var regularFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// renderPNG draws a grid of swatches, each labelled with its hex code twice:
// inside the swatch in a contrasting colour and in the caption strip below.
func renderPNG(colors []colour.RGB, layout Layout) ([]byte, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse preview font: %w", err)
	}
	// Faces are not safe for concurrent use, so each render gets its own.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    layout.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(layout.Bounds(len(colors)))

	for i, c := range colors {
		col := i % layout.Columns
		row := i / layout.Columns
		x0 := col * layout.CellWidth
		y0 := row * (layout.SwatchHeight + layout.LabelHeight)

		swatch := image.Rect(x0, y0, x0+layout.CellWidth, y0+layout.SwatchHeight)
		caption := image.Rect(x0, swatch.Max.Y, x0+layout.CellWidth, swatch.Max.Y+layout.LabelHeight)

		draw.Draw(img, swatch, image.NewUniform(c.RGBA()), image.Point{}, draw.Src)
		draw.Draw(img, caption, image.NewUniform(captionFill), image.Point{}, draw.Src)

		textColour := lightText
		if colour.IsLight(c) {
			textColour = darkText
		}

		hex := c.Hex()
		drawCentred(img, face, swatch, hex, textColour)
		drawCentred(img, face, caption, hex, darkText)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCentred draws text centred horizontally and vertically inside rect.
func drawCentred(dst draw.Image, face font.Face, rect image.Rectangle, text string, c color.Color) {
	metrics := face.Metrics()
	width := font.MeasureString(face, text).Round()
	height := (metrics.Ascent + metrics.Descent).Round()

	x := rect.Min.X + (rect.Dx()-width)/2
	y := rect.Min.Y + (rect.Dy()-height)/2 + metrics.Ascent.Round()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
