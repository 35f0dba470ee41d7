package colour

import (
	"fmt"
	"strings"
)

// ClampCount resolves a requested colour count against configured bounds.
// A nil request yields def; anything else is clamped to [minCount, maxCount].
func ClampCount(requested *int, minCount, maxCount, def int) int {
	if requested == nil {
		return def
	}
	return max(minCount, min(maxCount, *requested))
}

// NormalizePalette validates a caller-supplied colour list and returns the
// uppercased, whitespace-trimmed hex strings in the same order.
func NormalizePalette(colors []string, minCount, maxCount int) ([]string, error) {
	if len(colors) < minCount || len(colors) > maxCount {
		return nil, fmt.Errorf("%w: palette has %d colours (allowed: %d-%d)", ErrInvalidArgument, len(colors), minCount, maxCount)
	}

	normalized := make([]string, len(colors))
	for i, raw := range colors {
		c := strings.TrimSpace(raw)
		if !hexPattern.MatchString(c) {
			return nil, fmt.Errorf("%w: colour %d: malformed hex colour %q", ErrInvalidArgument, i+1, raw)
		}
		normalized[i] = strings.ToUpper(c)
	}

	return normalized, nil
}

// ValidateHexList checks that colors is non-empty and every entry is a
// well-formed hex colour. Entries are not modified.
func ValidateHexList(colors []string) error {
	if len(colors) == 0 {
		return fmt.Errorf("%w: palette is empty", ErrInvalidArgument)
	}
	for i, c := range colors {
		if !hexPattern.MatchString(strings.TrimSpace(c)) {
			return fmt.Errorf("%w: colour %d: malformed hex colour %q", ErrInvalidArgument, i+1, c)
		}
	}
	return nil
}
