package bundle

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/paleta/internal/security"
)

func writeTarGz(w io.Writer, files []File, modTime time.Time) error {
	gzw := gzip.NewWriter(w)
	gzw.ModTime = modTime

	if err := writeTar(gzw, files, modTime); err != nil {
		_ = gzw.Close()
		return err
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}

func writeTarXz(w io.Writer, files []File, modTime time.Time) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	if err := writeTar(xzw, files, modTime); err != nil {
		_ = xzw.Close()
		return err
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return nil
}

func writeTar(w io.Writer, files []File, modTime time.Time) error {
	tw := tar.NewWriter(w)

	for _, f := range files {
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     f.Name,
			Mode:     fileMode,
			Size:     int64(len(f.Data)),
			ModTime:  modTime,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar archive: %w", err)
	}
	return nil
}

func readTarGz(r io.Reader, maxBytes int64) ([]File, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	return readTar(gzr, maxBytes)
}

func readTarXz(r io.Reader, maxBytes int64) ([]File, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}

	return readTar(xzr, maxBytes)
}

func readTar(r io.Reader, maxBytes int64) ([]File, error) {
	tr := tar.NewReader(r)

	var files []File
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar archive: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(security.NewLimitedReader(tr, maxBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		files = append(files, File{Name: header.Name, Data: data})
	}

	return files, nil
}
