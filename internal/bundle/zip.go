package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/paleta/internal/security"
)

func writeZip(w io.Writer, files []File, modTime time.Time) error {
	zw := zip.NewWriter(w)

	for _, f := range files {
		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modTime,
		}
		header.SetMode(fileMode)

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return nil
}

func readZip(r io.Reader, maxBytes int64) ([]File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	files := make([]File, 0, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", zf.Name, err)
		}
		content, err := io.ReadAll(security.NewLimitedReader(rc, maxBytes))
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", zf.Name, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close %s: %w", zf.Name, closeErr)
		}

		files = append(files, File{Name: zf.Name, Data: content})
	}

	return files, nil
}
