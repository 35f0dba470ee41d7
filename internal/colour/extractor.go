package colour

import (
	"fmt"
	"image"
	"runtime"

	"github.com/hashicorp/go-hclog"
)

// Extractor defines the interface for color extraction algorithms.
type Extractor interface {
	// Extract reduces an image to exactly count representative colours.
	Extract(img image.Image, count int) (*Palette, error)
}

// Algorithm represents the color extraction algorithm type.
type Algorithm string

const (
	// AlgorithmKMeans uses k-means clustering for color extraction.
	AlgorithmKMeans Algorithm = "kmeans"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmKMeans,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// Default extraction parameters: a 200x200 working image, ten k-means++
// restarts and seed 42.
const (
	DefaultWorkingSize   = 200
	DefaultRestarts      = 10
	DefaultSeed          = 42
	DefaultMaxIterations = 300
	DefaultTolerance     = 1e-4

	maxWorkers = 8
)

// ExtractorConfig holds configuration for color extraction.
type ExtractorConfig struct {
	Algorithm Algorithm

	// WorkingSize is the side of the square working image every input is
	// resampled to before clustering.
	WorkingSize int

	// Restarts is the number of independent k-means++ initialisations.
	// The run with the lowest inertia wins.
	Restarts int

	// Seed drives every random choice made during clustering.
	Seed int64

	// MaxIterations caps Lloyd iterations per restart.
	MaxIterations int

	// Tolerance is relative to the mean per-channel variance of the points.
	Tolerance float64

	// Workers bounds how many restarts run concurrently (0 = GOMAXPROCS, capped).
	Workers int

	// Logger receives debug output. Nil means no logging.
	Logger hclog.Logger
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm:     AlgorithmKMeans,
		WorkingSize:   DefaultWorkingSize,
		Restarts:      DefaultRestarts,
		Seed:          DefaultSeed,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if !IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("%w: unknown algorithm: %s (valid algorithms: %v)", ErrInvalidArgument, c.Algorithm, ValidAlgorithms())
	}
	if c.WorkingSize < 1 {
		return fmt.Errorf("%w: working size must be at least 1, got %d", ErrInvalidArgument, c.WorkingSize)
	}
	if c.Restarts < 1 {
		return fmt.Errorf("%w: restarts must be at least 1, got %d", ErrInvalidArgument, c.Restarts)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidArgument, c.MaxIterations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance cannot be negative, got %g", ErrInvalidArgument, c.Tolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidArgument, c.Workers)
	}
	return nil
}

// workerCount resolves the number of goroutines used for restarts.
func (c ExtractorConfig) workerCount() int {
	workers := c.Workers
	if workers <= 0 {
		workers = min(runtime.GOMAXPROCS(0), maxWorkers)
	}
	return max(1, min(workers, c.Restarts))
}

// NewExtractor creates a new Extractor for the configured algorithm.
func NewExtractor(cfg ExtractorConfig) (Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case AlgorithmKMeans:
		return NewKMeansExtractor(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm: %s", ErrInvalidArgument, cfg.Algorithm)
	}
}
