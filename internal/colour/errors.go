package colour

import "errors"

// Error kinds shared by extraction, loading and export. Call sites wrap these
// with fmt.Errorf("...: %w", ...) so callers can test with errors.Is.
var (
	// ErrInvalidArgument reports a malformed colour count, an empty palette or
	// a malformed hex colour.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecode reports pixel data that cannot be interpreted as an image.
	ErrDecode = errors.New("image decode failed")

	// ErrUnsupportedFormat reports an unknown export format token.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrClustering reports a numerical failure inside k-means.
	ErrClustering = errors.New("clustering failed")
)
