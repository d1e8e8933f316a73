package editor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	menotaerrors "github.com/motheatensoul/menota-helper/core/errors"
)

func TestReplaceRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		text       string
		cursor     int
		want       string
		wantCursor int
	}{
		{"insert before cursor", 0, 0, "ab", 3, "abhello world", 5},
		{"replace after cursor", 6, 11, "there", 2, "hello there", 2},
		{"shrink before cursor", 0, 6, "", 8, "world", 2},
		{"cursor inside range", 2, 8, "-", 5, "he-rld", 2},
		{"cursor at range end", 0, 5, "HI", 5, "HI world", 2},
		{"whole text", 0, 11, "x", 11, "x", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer("hello world")
			if err := b.SetCursor(tt.cursor); err != nil {
				t.Fatalf("SetCursor failed: %v", err)
			}
			if err := b.ReplaceRange(tt.start, tt.end, tt.text); err != nil {
				t.Fatalf("ReplaceRange failed: %v", err)
			}
			if got := b.Text(); got != tt.want {
				t.Errorf("Text = %q, want %q", got, tt.want)
			}
			if got := b.CursorOffset(); got != tt.wantCursor {
				t.Errorf("cursor = %d, want %d", got, tt.wantCursor)
			}
		})
	}
}

func TestReplaceRangeErrors(t *testing.T) {
	b := NewBuffer("þat")
	tests := []struct {
		name       string
		start, end int
		want       error
	}{
		{"reversed", 2, 1, ErrRangeInvalid},
		{"negative", -1, 1, ErrOffsetOutOfRange},
		{"past end", 0, 99, ErrOffsetOutOfRange},
		{"inside rune", 1, 2, ErrOffsetOutOfRange},
	}
	for _, tt := range tests {
		if err := b.ReplaceRange(tt.start, tt.end, "x"); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
	if b.Text() != "þat" {
		t.Errorf("failed edits changed the text to %q", b.Text())
	}
}

func TestInsertAtCursor(t *testing.T) {
	b := NewBuffer("<p>ab</p>")
	if err := b.SetCursor(4); err != nil {
		t.Fatal(err)
	}
	if err := b.InsertAtCursor(`<lb n="2"/>`); err != nil {
		t.Fatalf("InsertAtCursor failed: %v", err)
	}
	if got, want := b.Text(), `<p>a<lb n="2"/>b</p>`; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if got := b.CursorOffset(); got != 15 {
		t.Errorf("cursor = %d, want 15", got)
	}
	if err := b.SetCursor(100); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("SetCursor(100) error = %v, want ErrOffsetOutOfRange", err)
	}
}

// TestRevision verifies revisions follow content, not edit history.
func TestRevision(t *testing.T) {
	a := NewBuffer("<p>x</p>")
	b := NewBuffer("<p>y</p>")
	if a.Revision() == b.Revision() {
		t.Error("different content should have different revisions")
	}
	if len(a.Revision()) != 64 {
		t.Errorf("revision length = %d, want 64 hex digits", len(a.Revision()))
	}
	if err := b.ReplaceRange(3, 4, "x"); err != nil {
		t.Fatal(err)
	}
	if a.Revision() != b.Revision() {
		t.Error("equal content should have equal revisions")
	}
}

// TestLoadSave verifies plain and compressed files round trip.
func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"saga.xml", "saga.xml.xz"} {
		path := filepath.Join(dir, name)
		if err := NewBuffer("<TEI>&thorn;</TEI>\n").Save(path); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		b, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if b.Text() != "<TEI>&thorn;</TEI>\n" {
			t.Errorf("Load(%s) = %q", name, b.Text())
		}
	}

	_, err := Load(filepath.Join(dir, "missing.xml"))
	var nf *menotaerrors.NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "file" {
		t.Errorf("Load(missing) error = %v, want *NotFoundError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want fs.ErrNotExist in the chain", err)
	}

	dirPath := filepath.Join(dir, "sub.xml")
	if err := os.Mkdir(dirPath, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err = Load(dirPath)
	var ioErr *menotaerrors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Load(directory) error = %v, want *IOError", err)
	}

	binary := filepath.Join(dir, "binary.xml")
	if err := os.WriteFile(binary, []byte{'<', 0, '>'}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(binary)
	var ve *menotaerrors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Load(binary) error = %v, want *ValidationError", err)
	}
}

func TestBufferConcurrentAccess(t *testing.T) {
	b := NewBuffer("")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.InsertAtCursor("a")
				_ = b.Text()
				_ = b.Revision()
			}
		}()
	}
	wg.Wait()
	if b.Len() != 400 {
		t.Errorf("Len = %d, want 400", b.Len())
	}
}
