// Package config holds Paleta's runtime settings and the environment
// overrides applied to them.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/paleta/internal/colour"
	"github.com/jmylchreest/paleta/internal/image"
)

// Environment variables read by Builder.WithEnvConfig.
const (
	EnvMinColors      = "PALETA_MIN_COLORS"
	EnvMaxColors      = "PALETA_MAX_COLORS"
	EnvDefaultColors  = "PALETA_DEFAULT_COLORS"
	EnvWorkingSize    = "PALETA_WORKING_SIZE"
	EnvRestarts       = "PALETA_RESTARTS"
	EnvSeed           = "PALETA_SEED"
	EnvMaxImagePixels = "PALETA_MAX_IMAGE_PIXELS"
	EnvAllowedFormats = "PALETA_ALLOWED_FORMATS"
)

// Config holds extraction and loading settings.
type Config struct {
	// MinColors and MaxColors bound the requested palette size.
	MinColors int
	MaxColors int

	// DefaultColors is used when no palette size is requested.
	DefaultColors int

	// WorkingSize is the side of the square image clustered.
	WorkingSize int

	// Restarts is the number of seeded k-means restarts.
	Restarts int

	// Seed is the master seed for restart seeding.
	Seed int64

	MaxIterations int
	Tolerance     float64

	// MaxImagePixels rejects larger images before decoding.
	MaxImagePixels int

	// AllowedFormats lists the accepted image decoder names.
	AllowedFormats []string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		MinColors:      3,
		MaxColors:      15,
		DefaultColors:  5,
		WorkingSize:    colour.DefaultWorkingSize,
		Restarts:       colour.DefaultRestarts,
		Seed:           colour.DefaultSeed,
		MaxIterations:  colour.DefaultMaxIterations,
		Tolerance:      colour.DefaultTolerance,
		MaxImagePixels: image.DefaultMaxPixels,
		AllowedFormats: slices.Clone(image.DefaultAllowedFormats),
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.MinColors < 1 {
		return fmt.Errorf("min colours must be at least 1, got %d", c.MinColors)
	}
	if c.MaxColors < c.MinColors {
		return fmt.Errorf("max colours (%d) must not be less than min colours (%d)", c.MaxColors, c.MinColors)
	}
	if c.DefaultColors < c.MinColors || c.DefaultColors > c.MaxColors {
		return fmt.Errorf("default colours (%d) must be between %d and %d", c.DefaultColors, c.MinColors, c.MaxColors)
	}
	if c.MaxImagePixels < 0 {
		return fmt.Errorf("max image pixels must not be negative, got %d", c.MaxImagePixels)
	}
	return c.ExtractorConfig(nil).Validate()
}

// ClampColors resolves a requested palette size against the configured bounds.
func (c Config) ClampColors(requested *int) int {
	return colour.ClampCount(requested, c.MinColors, c.MaxColors, c.DefaultColors)
}

// ExtractorConfig returns the extractor settings derived from c.
func (c Config) ExtractorConfig(logger hclog.Logger) colour.ExtractorConfig {
	cfg := colour.DefaultExtractorConfig()
	cfg.WorkingSize = c.WorkingSize
	cfg.Restarts = c.Restarts
	cfg.Seed = c.Seed
	cfg.MaxIterations = c.MaxIterations
	cfg.Tolerance = c.Tolerance
	cfg.Logger = logger
	return cfg
}

// LoaderOptions returns the image loader settings derived from c.
func (c Config) LoaderOptions(logger hclog.Logger) image.Options {
	return image.Options{
		MaxPixels:      c.MaxImagePixels,
		AllowedFormats: slices.Clone(c.AllowedFormats),
		Logger:         logger,
	}
}

// Builder provides a fluent interface for constructing a Config.
type Builder struct {
	config Config
	useEnv bool
}

// NewBuilder creates a new Builder starting from Default().
func NewBuilder() *Builder {
	return &Builder{
		config: Default(),
	}
}

// WithConfig replaces the base configuration.
func (b *Builder) WithConfig(config Config) *Builder {
	b.config = config
	return b
}

// WithEnvConfig enables reading overrides from PALETA_* environment variables.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// Build applies environment overrides, if enabled, and validates the result.
func (b *Builder) Build() (Config, error) {
	cfg := b.config
	cfg.AllowedFormats = slices.Clone(cfg.AllowedFormats)

	if b.useEnv {
		if err := applyEnv(&cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvMinColors, &cfg.MinColors},
		{EnvMaxColors, &cfg.MaxColors},
		{EnvDefaultColors, &cfg.DefaultColors},
		{EnvWorkingSize, &cfg.WorkingSize},
		{EnvRestarts, &cfg.Restarts},
		{EnvMaxImagePixels, &cfg.MaxImagePixels},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(v.name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.name, raw, err)
		}
		*v.dst = n
	}

	if raw := strings.TrimSpace(os.Getenv(EnvSeed)); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, raw, err)
		}
		cfg.Seed = seed
	}

	if raw := os.Getenv(EnvAllowedFormats); strings.TrimSpace(raw) != "" {
		cfg.AllowedFormats = splitList(raw)
	}

	return nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
