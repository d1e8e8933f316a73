package wrap

import "slices"

// Category is the role a tag plays during wrapping.
type Category uint8

const (
	// CategoryContainer elements are descended into.
	CategoryContainer Category = iota
	// CategoryMilestone elements are zero-width boundaries and left alone.
	CategoryMilestone
	// CategoryInline elements with word content are wrapped whole.
	CategoryInline
	// CategoryAnnotation elements root excluded regions.
	CategoryAnnotation
	// CategoryWord elements are word wrappers.
	CategoryWord
	// CategoryPunctuation elements are punctuation wrappers.
	CategoryPunctuation
)

var categoryNames = map[Category]string{
	CategoryContainer:   "container",
	CategoryMilestone:   "milestone",
	CategoryInline:      "inline",
	CategoryAnnotation:  "annotation",
	CategoryWord:        "word",
	CategoryPunctuation: "punctuation",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Scheme names the tags the rewriter works with. Tags are local names.
type Scheme struct {
	Container   string   // prose container to rewrite
	Paragraph   string   // unit for paragraph-scoped wrapping
	Word        string   // word wrapper
	Punctuation string   // punctuation wrapper
	Annotation  string   // root of excluded regions
	Milestones  []string // zero-width elements never descended into
	Inline      []string // inline annotation elements wrapped as one word
}

// DefaultScheme returns the TEI/Menota tag set.
func DefaultScheme() Scheme {
	return Scheme{
		Container:   "body",
		Paragraph:   "p",
		Word:        "w",
		Punctuation: "pc",
		Annotation:  "note",
		Milestones:  []string{"pb", "lb", "cb", "milestone", "gap"},
		Inline: []string{
			"unclear", "add", "del", "supplied",
			"abbr", "expan", "hi", "emph", "foreign",
		},
	}
}

// Classify returns the category of a tag. Tags the scheme does not name are
// containers. The wrapper and annotation tags keep their role even if a list
// repeats them.
func (s Scheme) Classify(local string) Category {
	switch {
	case local == s.Word:
		return CategoryWord
	case local == s.Punctuation:
		return CategoryPunctuation
	case local == s.Annotation:
		return CategoryAnnotation
	case slices.Contains(s.Milestones, local):
		return CategoryMilestone
	case slices.Contains(s.Inline, local):
		return CategoryInline
	}
	return CategoryContainer
}
