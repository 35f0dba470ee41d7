// Package bundle packs exported palette files into a single archive.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Kind identifies an archive container.
type Kind string

const (
	KindTarGz Kind = "tar.gz"
	KindTarXz Kind = "tar.xz"
	KindZip   Kind = "zip"
)

// ErrUnknownKind is returned for archive names or kinds that cannot be written.
var ErrUnknownKind = errors.New("unknown archive kind")

// DefaultMaxBytes caps the decompressed size of a single entry when reading.
const DefaultMaxBytes = 64 << 20

// fileMode is the permission bits given to every entry.
const fileMode = 0o644

// File is a single archive entry.
type File struct {
	Name string
	Data []byte
}

// Kinds returns every supported archive kind.
func Kinds() []Kind {
	return []Kind{KindTarGz, KindTarXz, KindZip}
}

// KindFromFilename detects the archive kind from a file name's extension.
func KindFromFilename(name string) (Kind, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz, nil
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return KindTarXz, nil
	case strings.HasSuffix(lower, ".zip"):
		return KindZip, nil
	default:
		return "", fmt.Errorf("%w: %s (expected .tar.gz, .tar.xz or .zip)", ErrUnknownKind, name)
	}
}

// Write writes files to w as a kind archive, in the given order, with every
// entry stamped with modTime.
func Write(w io.Writer, files []File, kind Kind, modTime time.Time) error {
	if err := validateNames(files); err != nil {
		return err
	}

	switch kind {
	case KindTarGz:
		return writeTarGz(w, files, modTime)
	case KindTarXz:
		return writeTarXz(w, files, modTime)
	case KindZip:
		return writeZip(w, files, modTime)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Read returns the regular files stored in a kind archive. Entries larger
// than maxBytes after decompression are rejected; zero uses DefaultMaxBytes.
func Read(r io.Reader, kind Kind, maxBytes int64) ([]File, error) {
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	switch kind {
	case KindTarGz:
		return readTarGz(r, maxBytes)
	case KindTarXz:
		return readTarXz(r, maxBytes)
	case KindZip:
		return readZip(r, maxBytes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func validateNames(files []File) error {
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if f.Name == "" || strings.Contains(f.Name, "..") || strings.HasPrefix(f.Name, "/") {
			return fmt.Errorf("invalid archive entry name %q", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate archive entry %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
