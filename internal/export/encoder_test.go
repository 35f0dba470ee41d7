package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/jmylchreest/paleta/internal/colour"
)

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestEncoder() *Encoder {
	return NewEncoder(WithClock(func() time.Time { return fixedTime }))
}

func TestEncodeJSON(t *testing.T) {
	colors := []string{"#FF5733", "#33FF57", "#3357FF"}

	res, err := newTestEncoder().Encode(colors, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if res.Filename != "palette.json" {
		t.Errorf("Filename = %q, want palette.json", res.Filename)
	}
	if res.ContentType != "application/json" {
		t.Errorf("ContentType = %q, want application/json", res.ContentType)
	}

	var doc struct {
		Name      string   `json:"name"`
		Colors    []string `json:"colors"`
		Generated string   `json:"generated"`
	}
	if err := json.Unmarshal(res.Data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc.Name != "Цветовая палитра" {
		t.Errorf("name = %q", doc.Name)
	}
	if len(doc.Colors) != len(colors) {
		t.Fatalf("got %d colours, want %d", len(doc.Colors), len(colors))
	}
	for i := range colors {
		if doc.Colors[i] != colors[i] {
			t.Errorf("colors[%d] = %q, want %q", i, doc.Colors[i], colors[i])
		}
	}

	generated, err := time.Parse(time.RFC3339, doc.Generated)
	if err != nil {
		t.Fatalf("generated %q is not RFC3339: %v", doc.Generated, err)
	}
	if !generated.Equal(fixedTime) {
		t.Errorf("generated = %v, want %v", generated, fixedTime)
	}

	if !bytes.Contains(res.Data, []byte("\n  \"colors\"")) {
		t.Errorf("expected two-space indentation, got:\n%s", res.Data)
	}
	// Key order is part of the format.
	s := string(res.Data)
	if !(strings.Index(s, `"name"`) < strings.Index(s, `"colors"`) && strings.Index(s, `"colors"`) < strings.Index(s, `"generated"`)) {
		t.Errorf("unexpected key order:\n%s", s)
	}
}

func TestEncodeJSONKeepsInputCase(t *testing.T) {
	res, err := newTestEncoder().Encode([]string{"#ff5733"}, FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Contains(res.Data, []byte(`"#ff5733"`)) {
		t.Errorf("expected colour to be written verbatim, got:\n%s", res.Data)
	}
}

func TestEncodeGPL(t *testing.T) {
	colors := []string{"#FF5733", "#33FF57", "#3357ff", "#000000"}

	res, err := newTestEncoder().Encode(colors, FormatGPL)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(res.Data), "\n"), "\n")
	header := []string{"GIMP Palette", "Name: Generated Palette", "Columns: 5", "#"}
	if len(lines) != len(header)+len(colors) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(header)+len(colors), res.Data)
	}
	for i, want := range header {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}

	want := []string{
		"255  87  51 #FF5733",
		" 51 255  87 #33FF57",
		" 51  87 255 #3357FF",
		"  0   0   0 #000000",
	}
	for i, w := range want {
		if got := lines[len(header)+i]; got != w {
			t.Errorf("colour line %d = %q, want %q", i, got, w)
		}
	}
}

func TestEncodeLengthsAcrossCounts(t *testing.T) {
	// Documented ASE sizes: header plus 24+2L bytes per swatch.
	aseLen := map[int]int{1: 48, 10: 374, 15: 564}

	enc := newTestEncoder()
	for n := 1; n <= 15; n++ {
		colors := make([]string, n)
		for i := range colors {
			colors[i] = fmt.Sprintf("#%02X%02X%02X", i*17, 255-i*17, i*5)
		}

		t.Run(fmt.Sprintf("%d colours", n), func(t *testing.T) {
			gpl, err := enc.Encode(colors, FormatGPL)
			if err != nil {
				t.Fatalf("Encode(gpl) error = %v", err)
			}
			lines := strings.Split(strings.TrimSuffix(string(gpl.Data), "\n"), "\n")
			if got := len(lines) - 4; got != n {
				t.Errorf("gpl colour lines = %d, want %d", got, n)
			}

			ase, err := enc.Encode(colors, FormatASE)
			if err != nil {
				t.Fatalf("Encode(ase) error = %v", err)
			}
			want := 12
			for i := 0; i < n; i++ {
				want += 24 + 2*len(utf16.Encode([]rune(swatchName(i))))
			}
			if len(ase.Data) != want {
				t.Errorf("ase len = %d, want %d", len(ase.Data), want)
			}
			if fixed, ok := aseLen[n]; ok && len(ase.Data) != fixed {
				t.Errorf("ase len = %d, want %d", len(ase.Data), fixed)
			}

			aco, err := enc.Encode(colors, FormatACO)
			if err != nil {
				t.Fatalf("Encode(aco) error = %v", err)
			}
			if len(aco.Data) != 4+8*n {
				t.Errorf("aco len = %d, want %d", len(aco.Data), 4+8*n)
			}
		})
	}
}

func TestEncodeCSV(t *testing.T) {
	res, err := newTestEncoder().Encode([]string{"#FF5733", "#33FF57", "#3357FF"}, FormatCSV)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "Цвет\n#FF5733\n#33FF57\n#3357FF\n"
	if string(res.Data) != want {
		t.Errorf("Encode() = %q, want %q", res.Data, want)
	}
}

func TestEncodeASE(t *testing.T) {
	colors := []string{"#FF5733", "#000000", "#FFFFFF"}

	res, err := newTestEncoder().Encode(colors, FormatASE)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := res.Data

	wantLen := 12
	for i := range colors {
		nameUnits := len(utf16.Encode([]rune(swatchName(i))))
		wantLen += 2 + 4 + 2 + 2*nameUnits + 4 + 12
	}
	if len(data) != wantLen {
		t.Fatalf("len = %d, want %d", len(data), wantLen)
	}

	if string(data[:4]) != "ASEF" {
		t.Errorf("signature = %q, want ASEF", data[:4])
	}
	if v := binary.BigEndian.Uint32(data[4:8]); v != 0x00010000 {
		t.Errorf("version = %#x, want 0x00010000", v)
	}
	if n := binary.BigEndian.Uint32(data[8:12]); n != uint32(len(colors)) {
		t.Errorf("count = %d, want %d", n, len(colors))
	}

	// Walk the blocks and check each one.
	off := 12
	for i, hex := range colors {
		if typ := binary.BigEndian.Uint16(data[off:]); typ != 0x0001 {
			t.Fatalf("block %d type = %#x, want 0x0001", i, typ)
		}
		blockLen := int(binary.BigEndian.Uint32(data[off+2:]))
		block := data[off+6 : off+6+blockLen]

		nameLen := int(binary.BigEndian.Uint16(block))
		units := make([]uint16, nameLen)
		for j := range units {
			units[j] = binary.BigEndian.Uint16(block[2+2*j:])
		}
		if name := string(utf16.Decode(units)); name != swatchName(i) {
			t.Errorf("block %d name = %q, want %q", i, name, swatchName(i))
		}

		rest := block[2+2*nameLen:]
		if string(rest[:4]) != "RGB " {
			t.Errorf("block %d model = %q, want \"RGB \"", i, rest[:4])
		}

		rgb, _ := colour.ParseHex(hex)
		for ch, v := range []uint8{rgb.R, rgb.G, rgb.B} {
			got := math.Float32frombits(binary.BigEndian.Uint32(rest[4+4*ch:]))
			want := float32(float64(v) / 255.0)
			if got != want {
				t.Errorf("block %d channel %d = %v, want %v", i, ch, got, want)
			}
		}

		off += 6 + blockLen
	}
}

func TestSwatchName(t *testing.T) {
	if got := swatchName(0); got != "Цвет 1" {
		t.Errorf("swatchName(0) = %q", got)
	}
	if got := swatchName(11); got != "Цвет 12" {
		t.Errorf("swatchName(11) = %q", got)
	}
}

func TestEncodeACO(t *testing.T) {
	colors := []string{"#FF5733", "#000000", "#FFFFFF"}

	res, err := newTestEncoder().Encode(colors, FormatACO)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := res.Data

	if len(data) != 4+8*len(colors) {
		t.Fatalf("len = %d, want %d", len(data), 4+8*len(colors))
	}
	if v := binary.BigEndian.Uint16(data[0:2]); v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
	if n := binary.BigEndian.Uint16(data[2:4]); n != uint16(len(colors)) {
		t.Errorf("count = %d, want %d", n, len(colors))
	}

	want := [][4]uint16{
		{0, 65280, 87 * 256, 51 * 256},
		{0, 0, 0, 0},
		{0, 65280, 65280, 65280},
	}
	for i, w := range want {
		rec := data[4+8*i:]
		for j := range w {
			if got := binary.BigEndian.Uint16(rec[2*j:]); got != w[j] {
				t.Errorf("record %d word %d = %d, want %d", i, j, got, w[j])
			}
		}
	}
}

func TestEncodePNG(t *testing.T) {
	tests := []struct {
		name          string
		colors        []string
		width, height int
	}{
		{"three colours one row", []string{"#FF5733", "#33FF57", "#3357FF"}, 480, 156},
		{"five colours fill a row", []string{"#111111", "#222222", "#333333", "#444444", "#555555"}, 800, 156},
		{"seven colours wrap", []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#00FFFF", "#FF00FF", "#808080"}, 800, 312},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEncoder().Encode(tt.colors, FormatPNG)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if res.ContentType != "image/png" {
				t.Errorf("ContentType = %q", res.ContentType)
			}

			img, err := png.Decode(bytes.NewReader(res.Data))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.width || b.Dy() != tt.height {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.width, tt.height)
			}
		})
	}
}

func TestEncodePNGPixels(t *testing.T) {
	colors := []string{"#FF5733", "#F0F0F0"}
	res, err := newTestEncoder().Encode(colors, FormatPNG)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	layout := DefaultLayout()
	for i, hex := range colors {
		want, _ := colour.ParseHex(hex)
		x0 := i * layout.CellWidth

		// Corners of the swatch are away from the centred text.
		if got := colour.ToRGB(img.At(x0+2, 2)); got != want {
			t.Errorf("swatch %d corner = %s, want %s", i, got.Hex(), want.Hex())
		}
		if got := colour.ToRGB(img.At(x0+2, layout.SwatchHeight+2)); got.Hex() != "#F5F5F5" {
			t.Errorf("caption %d corner = %s, want #F5F5F5", i, got.Hex())
		}

		textColour := "#FFFFFF"
		if colour.IsLight(want) {
			textColour = "#1E1E1E"
		}
		if !regionContains(img, image.Rect(x0, 0, x0+layout.CellWidth, layout.SwatchHeight), textColour) {
			t.Errorf("swatch %d has no %s text pixels", i, textColour)
		}
		if !regionContains(img, image.Rect(x0, layout.SwatchHeight, x0+layout.CellWidth, layout.SwatchHeight+layout.LabelHeight), "#1E1E1E") {
			t.Errorf("caption %d has no text pixels", i)
		}
	}
}

func regionContains(img image.Image, r image.Rectangle, hex string) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if colour.ToRGB(img.At(x, y)).Hex() == hex {
				return true
			}
		}
	}
	return false
}

func TestLayout(t *testing.T) {
	l := DefaultLayout()
	if err := l.Validate(); err != nil {
		t.Fatalf("DefaultLayout().Validate() error = %v", err)
	}
	if got := l.Bounds(11); got != image.Rect(0, 0, 800, 468) {
		t.Errorf("Bounds(11) = %v", got)
	}

	bad := []Layout{
		{Columns: 0, CellWidth: 160, SwatchHeight: 120, LabelHeight: 36, FontSize: 18},
		{Columns: 5, CellWidth: 160, SwatchHeight: 30, LabelHeight: 36, FontSize: 18},
		{Columns: 5, CellWidth: 160, SwatchHeight: 120, LabelHeight: 36, FontSize: 0},
	}
	for _, l := range bad {
		if err := l.Validate(); err == nil {
			t.Errorf("Validate(%+v) expected error", l)
		}
	}
}

func TestEncodeCustomLayout(t *testing.T) {
	layout := Layout{Columns: 2, CellWidth: 50, SwatchHeight: 40, LabelHeight: 20, FontSize: 10}
	enc := NewEncoder(WithLayout(layout))

	res, err := enc.Encode([]string{"#FF0000", "#00FF00", "#0000FF"}, FormatPNG)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("png.DecodeConfig() error = %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 120 {
		t.Errorf("size = %dx%d, want 100x120", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.RGBAModel && cfg.ColorModel != color.NRGBAModel {
		t.Errorf("unexpected colour model %v", cfg.ColorModel)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		colors  []string
		format  Format
		wantErr error
	}{
		{"empty list", nil, FormatJSON, colour.ErrInvalidArgument},
		{"malformed entry", []string{"#FF5733", "red"}, FormatCSV, colour.ErrInvalidArgument},
		{"short hex", []string{"#FFF"}, FormatASE, colour.ErrInvalidArgument},
		{"unknown format", []string{"#FF5733"}, Format("xml"), colour.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEncoder().Encode(tt.colors, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeAll(t *testing.T) {
	results, err := newTestEncoder().EncodeAll([]string{"#FF5733", "#33FF57"})
	if err != nil {
		t.Fatalf("EncodeAll() error = %v", err)
	}

	formats := Formats()
	if len(results) != len(formats) {
		t.Fatalf("got %d results, want %d", len(results), len(formats))
	}
	for i, res := range results {
		if res.Format != formats[i] {
			t.Errorf("results[%d].Format = %s, want %s", i, res.Format, formats[i])
		}
		if len(res.Data) == 0 {
			t.Errorf("results[%d] is empty", i)
		}
		if res.Filename != "palette."+string(formats[i]) {
			t.Errorf("results[%d].Filename = %q", i, res.Filename)
		}
	}
}

func TestEncodeAllRejectsInvalidInput(t *testing.T) {
	if _, err := newTestEncoder().EncodeAll(nil); !errors.Is(err, colour.ErrInvalidArgument) {
		t.Errorf("EncodeAll(nil) error = %v, want ErrInvalidArgument", err)
	}
}
