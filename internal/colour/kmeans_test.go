package colour

import (
	"errors"
	"image"
	"image/color"
	"regexp"
	"slices"
	"testing"
)

// quadrantImage returns a size x size image split into four solid quadrants.
func quadrantImage(size int, fills [4]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	rects := []image.Rectangle{
		image.Rect(0, 0, half, half),
		image.Rect(half, 0, size, half),
		image.Rect(0, half, half, size),
		image.Rect(half, half, size, size),
	}
	for i, r := range rects {
		fillRect(img, r, fills[i])
	}
	return img
}

func fillRect(img *image.RGBA, rect image.Rectangle, fill color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
}

// gradientImage returns a deterministic image with many distinct colours.
func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestKMeansSolidImageSingleColour(t *testing.T) {
	solid := color.RGBA{R: 255, G: 87, B: 51, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	fillRect(img, img.Bounds(), solid)

	palette, err := NewKMeansExtractor(DefaultExtractorConfig()).Extract(img, 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if palette.Len() != 1 {
		t.Fatalf("Expected 1 colour, got %d", palette.Len())
	}

	got := palette.Colors[0]
	if absDiff(got.R, solid.R) > 1 || absDiff(got.G, solid.G) > 1 || absDiff(got.B, solid.B) > 1 {
		t.Errorf("Extract() = %s, want %s (+/-1 per channel)", got.Hex(), ToRGB(solid).Hex())
	}
}

func TestKMeansLowDiversityReturnsDuplicates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	fillRect(img, img.Bounds(), color.RGBA{R: 10, G: 20, B: 30, A: 255})

	palette, err := NewKMeansExtractor(DefaultExtractorConfig()).Extract(img, 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if palette.Len() != 5 {
		t.Fatalf("Expected exactly 5 colours, got %d", palette.Len())
	}
	for i, c := range palette.Colors {
		if absDiff(c.R, 10) > 1 || absDiff(c.G, 20) > 1 || absDiff(c.B, 30) > 1 {
			t.Errorf("colour %d = %s, want close to #0A141E", i, c.Hex())
		}
	}
}

func TestKMeansRecoversQuadrants(t *testing.T) {
	fills := [4]color.RGBA{
		{R: 198, G: 48, B: 59, A: 255},
		{R: 24, G: 144, B: 242, A: 255},
		{R: 242, G: 188, B: 12, A: 255},
		{R: 36, G: 184, B: 92, A: 255},
	}
	// Same size as the working image, so resampling is the identity.
	img := quadrantImage(DefaultWorkingSize, fills)

	palette, err := NewKMeansExtractor(DefaultExtractorConfig()).Extract(img, 4)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got := palette.ToHex()
	for _, f := range fills {
		want := ToRGB(f).Hex()
		if !slices.Contains(got, want) {
			t.Errorf("Extract() = %v, missing %s", got, want)
		}
	}

	for i, w := range palette.Weights {
		if w < 0.249 || w > 0.251 {
			t.Errorf("weight %d = %f, want 0.25", i, w)
		}
	}
}

func TestKMeansDeterministic(t *testing.T) {
	img := gradientImage(320, 240)

	cfg := DefaultExtractorConfig()
	first, err := NewKMeansExtractor(cfg).Extract(img, 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, workers := range []int{1, 3, 8} {
		cfg.Workers = workers
		again, err := NewKMeansExtractor(cfg).Extract(img, 5)
		if err != nil {
			t.Fatalf("Extract() with %d workers error = %v", workers, err)
		}
		if !slices.Equal(first.ToHex(), again.ToHex()) {
			t.Errorf("Extract() with %d workers = %v, want %v", workers, again.ToHex(), first.ToHex())
		}
	}

	canonical := regexp.MustCompile(`^#[0-9A-F]{6}$`)
	for _, hex := range first.ToHex() {
		if !canonical.MatchString(hex) {
			t.Errorf("Extract() produced non-canonical hex %q", hex)
		}
	}
}

func TestKMeansGolden(t *testing.T) {
	palette, err := NewKMeansExtractor(DefaultExtractorConfig()).Extract(gradientImage(640, 480), 5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Seed 42 with ten restarts. Any change to seeding, restart order or
	// tie-breaking shows up here.
	want := []string{"#BD3E87", "#28B565", "#D4BECA", "#7ABB96", "#3E383B"}
	if got := palette.ToHex(); !slices.Equal(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestKMeansInvalidArguments(t *testing.T) {
	extractor := NewKMeansExtractor(DefaultExtractorConfig())
	img := gradientImage(20, 20)

	tests := []struct {
		name    string
		img     image.Image
		count   int
		wantErr error
	}{
		{name: "zero count", img: img, count: 0, wantErr: ErrInvalidArgument},
		{name: "negative count", img: img, count: -3, wantErr: ErrInvalidArgument},
		{name: "count above pixel samples", img: img, count: DefaultWorkingSize*DefaultWorkingSize + 1, wantErr: ErrInvalidArgument},
		{name: "nil image", img: nil, count: 5, wantErr: ErrDecode},
		{name: "empty image", img: image.NewRGBA(image.Rect(0, 0, 0, 0)), count: 5, wantErr: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.img, tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTruncateChannel(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{in: 0, want: 0},
		{in: 12.99, want: 12},
		{in: 254.9999, want: 254},
		{in: 255, want: 255},
		{in: 300, want: 255},
		{in: -4.2, want: 0},
	}

	for _, tt := range tests {
		if got := truncateChannel(tt.in); got != tt.want {
			t.Errorf("truncateChannel(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSearchCumulative(t *testing.T) {
	cumulative := []float64{0, 1, 1, 4, 10}

	tests := []struct {
		target float64
		want   int
	}{
		{target: 0, want: 0},
		{target: 0.5, want: 1},
		{target: 1, want: 1},
		{target: 3.9, want: 3},
		{target: 10, want: 4},
		{target: 11, want: 4},
	}

	for _, tt := range tests {
		if got := searchCumulative(cumulative, tt.target); got != tt.want {
			t.Errorf("searchCumulative(%v) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestNewExtractor(t *testing.T) {
	if _, err := NewExtractor(DefaultExtractorConfig()); err != nil {
		t.Fatalf("NewExtractor(default) error = %v", err)
	}

	cfg := DefaultExtractorConfig()
	cfg.Algorithm = "mediancut"
	if _, err := NewExtractor(cfg); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewExtractor(mediancut) error = %v, want ErrInvalidArgument", err)
	}

	cfg = DefaultExtractorConfig()
	cfg.Restarts = 0
	if _, err := NewExtractor(cfg); err == nil {
		t.Error("NewExtractor() with zero restarts should fail")
	}
}
