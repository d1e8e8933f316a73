// Package archive reads and writes transcription files. Files ending in .xz
// or .gz are compressed and decompressed transparently.
package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/motheatensoul/menota-helper/internal/validation"
)

// readLimit caps the decompressed size ReadFile accepts.
var readLimit int64 = validation.MaxFileSize

// Compression identifies the compression of a file.
type Compression int

const (
	None Compression = iota
	XZ
	Gzip
)

// CompressionFor returns the compression implied by the file name.
func CompressionFor(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return XZ
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	default:
		return None
	}
}

// ReadFile reads the file at path, decompressing it if its name says so.
// Content larger than validation.MaxFileSize after decompression is rejected
// with validation.ErrFileTooLarge before it is held in memory in full.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	switch CompressionFor(path) {
	case XZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case Gzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	}

	data, err := io.ReadAll(io.LimitReader(reader, readLimit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > readLimit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", validation.ErrFileTooLarge, path, readLimit)
	}
	return data, nil
}

// WriteFile writes data to path, compressing it if its name says so. The
// file is written to a temporary sibling and renamed into place, so readers
// never see a partial transcription.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	encoded, err := compress(CompressionFor(path), data)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return os.Rename(tmpName, path)
}

func compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case XZ:
		xzw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		w = xzw
	case Gzip:
		w = gzip.NewWriter(&buf)
	default:
		return data, nil
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}
