// Package validation checks user-supplied paths and transcription input
// before the CLI reads or writes anything.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Security limits to prevent resource exhaustion (CWE-400).
const (
	// MaxFileSize is the maximum allowed transcription size (256 MB).
	MaxFileSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotText          = errors.New("input is not UTF-8 text")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidatePath performs basic validation on a file path.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	// Check length
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	// Check for control characters
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateSize rejects inputs larger than MaxFileSize.
func ValidateSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, MaxFileSize)
	}
	return nil
}

// ValidateText checks that data is UTF-8 text without NUL bytes. A leading
// byte order mark is allowed.
func ValidateText(data []byte) error {
	if err := ValidateSize(int64(len(data))); err != nil {
		return err
	}
	body := bytes.TrimPrefix(data, utf8BOM)
	if i := bytes.IndexByte(body, 0); i >= 0 {
		return fmt.Errorf("%w: NUL byte at offset %d", ErrNotText, i+len(data)-len(body))
	}
	if !utf8.Valid(body) {
		return fmt.Errorf("%w: invalid UTF-8", ErrNotText)
	}
	return nil
}
