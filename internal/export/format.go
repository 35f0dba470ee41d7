// Package export encodes an ordered list of hex colours into palette file
// formats: JSON, GIMP palette, Adobe Swatch Exchange, CSV, Photoshop colour
// table and a rendered PNG preview.
package export

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/paleta/internal/colour"
)

// Format identifies an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatGPL  Format = "gpl"
	FormatASE  Format = "ase"
	FormatCSV  Format = "csv"
	FormatACO  Format = "aco"
	FormatPNG  Format = "png"
)

// Formats returns every supported format in canonical order.
func Formats() []Format {
	return []Format{FormatJSON, FormatGPL, FormatASE, FormatCSV, FormatACO, FormatPNG}
}

// ParseFormat converts a case-insensitive token to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatGPL, FormatASE, FormatCSV, FormatACO, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)", colour.ErrUnsupportedFormat, s, strings.Join(formatNames(), ", "))
	}
}

func formatNames() []string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return names
}

// Filename returns the suggested download name for the format.
func (f Format) Filename() string {
	return "palette." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatGPL:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// Description returns a short human-readable description.
func (f Format) Description() string {
	switch f {
	case FormatJSON:
		return "Palette name, colour list and generation time"
	case FormatGPL:
		return "GIMP / Inkscape palette"
	case FormatASE:
		return "Adobe Swatch Exchange (Illustrator, InDesign)"
	case FormatCSV:
		return "One hex colour per line"
	case FormatACO:
		return "Photoshop colour swatches, version 1"
	case FormatPNG:
		return "Rendered swatch preview"
	default:
		return ""
	}
}

// String implements pflag.Value.
func (f *Format) String() string {
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

var _ pflag.Value = (*Format)(nil)
