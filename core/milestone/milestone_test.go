package milestone

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/xml"
)

const folio = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <text>
    <body>
      <pb n="1r"/>
      <p><lb n="1"/>Þat var &aolig; <lb n="2"/>fyrr</p>
      <pb n="1v"/>
      <p><lb n="1"/>en &thorn;eir<lb/></p>
    </body>
  </text>
</TEI>
`

// TestPreviewFoliation verifies the latest recto/verso value and its successor.
func TestPreviewFoliation(t *testing.T) {
	doc := `<TEI><text><body><pb n="1r"/><p>a</p><pb n="1v"/></body></text></TEI>`
	got, err := PreviewText(doc)
	if err != nil {
		t.Fatalf("PreviewText failed: %v", err)
	}
	want := Preview{PageBreak: &Info{Kind: PageBreak, Current: "1v", Next: "2r"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PreviewText mismatch (-want +got):\n%s", diff)
	}
}

// TestPreviewLatestInDocumentOrder verifies the last milestone wins, including
// one without a numbering value.
func TestPreviewLatestInDocumentOrder(t *testing.T) {
	got, err := PreviewText(folio)
	if err != nil {
		t.Fatalf("PreviewText failed: %v", err)
	}
	want := Preview{
		PageBreak: &Info{Kind: PageBreak, Current: "1v", Next: "2r"},
		LineBreak: &Info{Kind: LineBreak, Current: "", Next: "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PreviewText mismatch (-want +got):\n%s", diff)
	}
}

// TestPreviewNoMilestones verifies absent kinds are reported as nil.
func TestPreviewNoMilestones(t *testing.T) {
	got, err := PreviewText(`<TEI><text><body><p>nothing</p></body></text></TEI>`)
	if err != nil {
		t.Fatalf("PreviewText failed: %v", err)
	}
	if got.PageBreak != nil || got.LineBreak != nil {
		t.Errorf("PreviewText = %+v, want empty preview", got)
	}
}

// TestPreviewParseError verifies malformed input is rejected.
func TestPreviewParseError(t *testing.T) {
	_, err := PreviewText(`<TEI><pb n="1r"></TEI>`)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("PreviewText error = %v, want ErrInvalidInput", err)
	}
}

// TestLatest verifies lookup by local name, namespaced elements included.
func TestLatest(t *testing.T) {
	doc, err := xml.Parse(`<TEI xmlns:me="urn:me"><lb n="1"/><me:lb n="x"/><lb n="3"/><note><lb n="9"/></note></TEI>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	id, ok := Latest(doc, "lb")
	if !ok {
		t.Fatal("Latest found no lb")
	}
	if v, _ := doc.Attr(id, NumberAttr); v != "9" {
		t.Errorf("latest lb n = %q, want %q", v, "9")
	}
	if _, ok := Latest(doc, "cb"); ok {
		t.Error("Latest(cb) should report absent")
	}
}

// TestLookupRoman verifies numbering values flow through the increment rules.
func TestLookupRoman(t *testing.T) {
	tests := []struct {
		n    string
		want string
	}{
		{"iii", "iv"},
		{"IX", "X"},
		{"12v", "13r"},
		{"41", "42"},
		{"abc", "abc1"},
	}
	for _, tt := range tests {
		t.Run(tt.n, func(t *testing.T) {
			doc, err := xml.Parse(`<body><pb n="` + tt.n + `"/></body>`)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			info, ok := Lookup(doc, PageBreak)
			if !ok {
				t.Fatal("Lookup found no pb")
			}
			if info.Current != tt.n || info.Next != tt.want {
				t.Errorf("Lookup = %+v, want current %q next %q", info, tt.n, tt.want)
			}
		})
	}
}

// TestParseKind verifies kind names and rejection of other milestones.
func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"pb": PageBreak, "page": PageBreak, "lb": LineBreak, "line": LineBreak} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("cb"); !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("ParseKind(cb) error = %v, want ErrUnsupported", err)
	}
}

// TestMarkup verifies inserted milestone markup.
func TestMarkup(t *testing.T) {
	tests := []struct {
		kind  Kind
		value string
		want  string
	}{
		{PageBreak, "2r", `<pb n="2r"/>`},
		{LineBreak, "1", `<lb n="1"/>`},
		{PageBreak, `a"b`, `<pb n="a&quot;b"/>`},
		{LineBreak, "&eth;1", `<lb n="&eth;1"/>`},
	}
	for _, tt := range tests {
		if got := Markup(tt.kind, tt.value); got != tt.want {
			t.Errorf("Markup(%s, %q) = %q, want %q", tt.kind, tt.value, got, tt.want)
		}
	}
}
