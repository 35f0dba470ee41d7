// Package image provides utilities for loading and preparing images for
// colour extraction.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/paleta/internal/colour"
	"github.com/jmylchreest/paleta/internal/security"
	httputil "github.com/jmylchreest/paleta/internal/util/http"
)

// DefaultMaxPixels is the largest width*height accepted by default.
const DefaultMaxPixels = 40_000_000

// DefaultAllowedFormats are the decoder names accepted by default.
var DefaultAllowedFormats = []string{"jpeg", "png", "webp"}

// Options controls which images a loader accepts.
type Options struct {
	// MaxPixels rejects images whose width*height exceeds it. Zero disables the check.
	MaxPixels int

	// AllowedFormats lists accepted decoder names ("jpeg", "png", ...).
	// Empty accepts every registered format.
	AllowedFormats []string

	// Fetch configures remote downloads.
	Fetch httputil.FetchOptions

	// Logger receives debug output. Nil uses a null logger.
	Logger hclog.Logger
}

// DefaultOptions returns the default loader options.
func DefaultOptions() Options {
	return Options{
		MaxPixels:      DefaultMaxPixels,
		AllowedFormats: slices.Clone(DefaultAllowedFormats),
	}
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

func (o Options) formatAllowed(format string) bool {
	if len(o.AllowedFormats) == 0 {
		return true
	}
	return slices.ContainsFunc(o.AllowedFormats, func(f string) bool {
		return strings.EqualFold(normaliseFormat(f), format)
	})
}

// normaliseFormat maps common extension spellings to decoder names.
func normaliseFormat(f string) string {
	f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	switch f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return f
	}
}

// DecodeBytes decodes an in-memory image. The header is inspected first so
// disallowed formats and oversized images are rejected before the pixel data
// is decoded. The result is always opaque.
func DecodeBytes(data []byte, opts Options) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", colour.ErrDecode)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", colour.ErrDecode, err)
	}

	if !opts.formatAllowed(format) {
		return nil, fmt.Errorf("%w: format %q is not allowed", colour.ErrDecode, format)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels (%dx%d)", colour.ErrDecode, cfg.Width, cfg.Height)
	}

	if opts.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxPixels) {
		return nil, fmt.Errorf("%w: image is %dx%d, exceeding the %d pixel limit",
			colour.ErrDecode, cfg.Width, cfg.Height, opts.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s image: %w", colour.ErrDecode, format, err)
	}

	opts.logger().Debug("decoded image", "format", format, "width", cfg.Width, "height", cfg.Height)

	return Flatten(img), nil
}

// Flatten returns an opaque copy of img. Colour channels are taken from the
// non-premultiplied value of each pixel and alpha is discarded, so a
// half-transparent red stays red rather than being darkened.
// Images that are already opaque are returned unchanged.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		}
	}
	return out
}

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given source.
	Load(ctx context.Context, source string) (image.Image, error)
}

// LoadFile loads an image from a file path.
func LoadFile(path string, opts Options) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return DecodeBytes(data, opts)
}

// LoadURL fetches and decodes an image from an HTTP(S) URL.
func LoadURL(ctx context.Context, url string, opts Options) (image.Image, error) {
	opts.logger().Debug("fetching image", "url", url)

	data, err := httputil.Fetch(ctx, url, opts.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	return DecodeBytes(data, opts)
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	opts Options
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts Options) *SmartLoader {
	return &SmartLoader{opts: opts}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, source string) (image.Image, error) {
	if security.IsURL(source) {
		return LoadURL(ctx, source, l.opts)
	}
	return LoadFile(source, l.opts)
}

var _ Loader = (*SmartLoader)(nil)
