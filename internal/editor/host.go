// Package editor connects the transcription engine to an editing host: a
// text buffer with a cursor. Commands read the host's text, compute their
// result on a private document tree and hand back a single edit, so a
// failed command leaves the host untouched.
package editor

// Host is the editing environment a command works against. Offsets are
// byte offsets into Text.
type Host interface {
	// Text returns the full current document text.
	Text() string
	// CursorOffset returns the cursor position.
	CursorOffset() int
	// ReplaceRange replaces text[start:end] with text in one edit.
	ReplaceRange(start, end int, text string) error
	// InsertAtCursor inserts text at the cursor position.
	InsertAtCursor(text string) error
}
