package editor

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"sync"
	"unicode/utf8"

	"github.com/zeebo/blake3"

	menotaerrors "github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/internal/archive"
	"github.com/motheatensoul/menota-helper/internal/validation"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Buffer is an in-memory Host. All methods are thread-safe.
type Buffer struct {
	mu     sync.RWMutex
	text   string
	cursor int
}

// NewBuffer creates a buffer holding text with the cursor at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

// Load reads a transcription file into a new buffer. Files ending in .xz or
// .gz are decompressed. The content must be UTF-8 text.
func Load(path string) (*Buffer, error) {
	data, err := archive.ReadFile(path)
	switch {
	case menotaerrors.Is(err, fs.ErrNotExist):
		return nil, &menotaerrors.NotFoundError{Resource: "file", ID: path, Err: err}
	case menotaerrors.Is(err, validation.ErrFileTooLarge):
		return nil, &menotaerrors.ValidationError{Field: "input", Value: path, Message: err.Error(), Err: err}
	case err != nil:
		return nil, menotaerrors.NewIO("read", path, err)
	}
	if err := validation.ValidateText(data); err != nil {
		return nil, &menotaerrors.ValidationError{Field: "input", Value: path, Message: err.Error(), Err: err}
	}
	return NewBuffer(string(data)), nil
}

// Save writes the buffer to path, compressing it if the name ends in .xz or .gz.
func (b *Buffer) Save(path string) error {
	if err := archive.WriteFile(path, []byte(b.Text()), 0o644); err != nil {
		return menotaerrors.NewIO("write", path, err)
	}
	return nil
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// CursorOffset returns the cursor position.
func (b *Buffer) CursorOffset() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// SetCursor moves the cursor to offset.
func (b *Buffer) SetCursor(offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkOffset(offset); err != nil {
		return err
	}
	b.cursor = offset
	return nil
}

// Revision returns a BLAKE3 digest of the content. Equal content always has
// an equal revision.
func (b *Buffer) Revision() string {
	sum := blake3.Sum256([]byte(b.Text()))
	return hex.EncodeToString(sum[:])
}

// ReplaceRange replaces the bytes in [start, end) with text. A cursor after
// the range moves with the text behind it; a cursor inside it moves to start.
func (b *Buffer) ReplaceRange(start, end int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start > end {
		return ErrRangeInvalid
	}
	if err := b.checkOffset(start); err != nil {
		return err
	}
	if err := b.checkOffset(end); err != nil {
		return err
	}

	b.text = b.text[:start] + text + b.text[end:]
	switch {
	case b.cursor >= end:
		b.cursor += len(text) - (end - start)
	case b.cursor > start:
		b.cursor = start
	}
	return nil
}

// InsertAtCursor inserts text at the cursor and leaves the cursor after it.
func (b *Buffer) InsertAtCursor(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = b.text[:b.cursor] + text + b.text[b.cursor:]
	b.cursor += len(text)
	return nil
}

// checkOffset requires offset to lie within the text on a rune boundary.
func (b *Buffer) checkOffset(offset int) error {
	if offset < 0 || offset > len(b.text) {
		return ErrOffsetOutOfRange
	}
	if offset < len(b.text) && !utf8.RuneStart(b.text[offset]) {
		return ErrOffsetOutOfRange
	}
	return nil
}
