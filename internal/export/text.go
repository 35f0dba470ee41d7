package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/paleta/internal/colour"
)

const (
	// paletteDisplayName is the fixed name written to JSON exports.
	paletteDisplayName = "Цветовая палитра"

	// gplPaletteName is the Name: header of GIMP palettes.
	gplPaletteName = "Generated Palette"

	// gplColumns is the Columns: header of GIMP palettes.
	gplColumns = 5

	// csvHeader is the single column header of CSV exports ("Colour").
	csvHeader = "Цвет"
)

// paletteDocument is the JSON export layout. Field order is significant.
type paletteDocument struct {
	Name      string   `json:"name"`
	Colors    []string `json:"colors"`
	Generated string   `json:"generated"`
}

// encodeJSON writes the palette name, the colours verbatim and the
// generation time, indented with two spaces.
func encodeJSON(colors []string, generated time.Time) ([]byte, error) {
	doc := paletteDocument{
		Name:      paletteDisplayName,
		Colors:    colors,
		Generated: generated.Format(time.RFC3339),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// encodeGPL writes a GIMP palette: three header lines, a comment line,
// then "RRR GGG BBB #RRGGBB" per colour.
func encodeGPL(colors []colour.RGB) []byte {
	var sb strings.Builder
	sb.WriteString("GIMP Palette\n")
	fmt.Fprintf(&sb, "Name: %s\n", gplPaletteName)
	fmt.Fprintf(&sb, "Columns: %d\n", gplColumns)
	sb.WriteString("#\n")
	for _, c := range colors {
		fmt.Fprintf(&sb, "%3d %3d %3d %s\n", c.R, c.G, c.B, c.Hex())
	}
	return []byte(sb.String())
}

// encodeCSV writes the localised header and one colour per line, verbatim.
func encodeCSV(colors []string) []byte {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteByte('\n')
	for _, c := range colors {
		sb.WriteString(c)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
