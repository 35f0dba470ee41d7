// Package security provides input validation utilities for Paleta.
package security

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrSizeLimit is returned when a LimitedReader runs out of budget.
var ErrSizeLimit = errors.New("size limit exceeded")

// ValidateFetchURL checks that urlStr is an absolute http(s) URL with a host.
func ValidateFetchURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("invalid URL protocol (only http:// and https:// allowed): %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	return nil
}

// IsURL reports whether path looks like an http(s) URL rather than a file path.
func IsURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LimitedReader wraps an io.Reader and fails once more than the allowed
// number of bytes has been read. Unlike io.LimitReader it reports the
// overrun as an error instead of a silent EOF.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining < 0 {
		return 0, ErrSizeLimit
	}
	// Read one byte past the budget so an exact-size input still ends cleanly.
	if int64(len(p)) > l.Remaining+1 {
		p = p[:l.Remaining+1]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	if l.Remaining < 0 {
		return n, ErrSizeLimit
	}
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
