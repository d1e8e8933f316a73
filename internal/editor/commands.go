package editor

import (
	"context"

	"github.com/motheatensoul/menota-helper/core/milestone"
	"github.com/motheatensoul/menota-helper/core/wrap"
	"github.com/motheatensoul/menota-helper/internal/logging"
)

// Editor runs menota commands against a host.
type Editor struct {
	host   Host
	scheme wrap.Scheme
}

// New returns an Editor for host using scheme.
func New(host Host, scheme wrap.Scheme) *Editor {
	return &Editor{host: host, scheme: scheme}
}

// PreviewMilestones reports the latest page and line breaks and their
// successor values.
func (e *Editor) PreviewMilestones(ctx context.Context) (milestone.Preview, error) {
	p, err := milestone.PreviewText(e.host.Text())
	if err != nil {
		logging.CommandError(ctx, "preview", err)
		return milestone.Preview{}, err
	}
	for _, info := range []*milestone.Info{p.PageBreak, p.LineBreak} {
		if info != nil {
			logging.DebugContext(ctx, "milestone", "kind", info.Kind, "current", info.Current, "next", info.Next)
		}
	}
	return p, nil
}

// WrapDocument wraps every word and punctuation run of the document and
// replaces the host text in one edit. It reports whether anything changed.
func (e *Editor) WrapDocument(ctx context.Context) (bool, error) {
	text := e.host.Text()
	out, err := wrap.WrapWordsAndPunctuation(text, e.scheme)
	if err != nil {
		logging.CommandError(ctx, "wrap", err)
		return false, err
	}
	if out == text {
		logging.Transform(ctx, "wrap", "", false)
		return false, nil
	}
	if err := e.host.ReplaceRange(0, len(text), out); err != nil {
		logging.CommandError(ctx, "wrap", err)
		return false, err
	}
	logging.Transform(ctx, "wrap", "", true, "bytes", len(out)-len(text))
	return true, nil
}

// WrapParagraph wraps the paragraph around the cursor. It reports whether
// anything changed.
func (e *Editor) WrapParagraph(ctx context.Context) (bool, error) {
	text := e.host.Text()
	rng, out, err := wrap.WrapParagraphAt(text, e.host.CursorOffset(), e.scheme)
	if err != nil {
		logging.CommandError(ctx, "wrap-paragraph", err)
		return false, err
	}
	if out == text[rng.Start:rng.End] {
		logging.Transform(ctx, "wrap-paragraph", "", false)
		return false, nil
	}
	if err := e.host.ReplaceRange(rng.Start, rng.End, out); err != nil {
		logging.CommandError(ctx, "wrap-paragraph", err)
		return false, err
	}
	logging.Transform(ctx, "wrap-paragraph", "", true, "start", rng.Start, "end", rng.End)
	return true, nil
}

// InsertMilestone inserts the next milestone of kind at the cursor and
// returns the inserted markup. A document without one starts at "1".
func (e *Editor) InsertMilestone(ctx context.Context, kind milestone.Kind) (string, error) {
	p, err := milestone.PreviewText(e.host.Text())
	if err != nil {
		logging.CommandError(ctx, "insert", err)
		return "", err
	}
	info := p.PageBreak
	if kind == milestone.LineBreak {
		info = p.LineBreak
	}
	next := "1"
	if info != nil {
		next = info.Next
	}

	markup := milestone.Markup(kind, next)
	if err := e.host.InsertAtCursor(markup); err != nil {
		logging.CommandError(ctx, "insert", err)
		return "", err
	}
	logging.InfoContext(ctx, "milestone inserted", "kind", kind, "n", next)
	return markup, nil
}
