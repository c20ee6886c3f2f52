// Package highlight holds user highlights and turns a block of text plus a
// highlight set into an ordered, non-overlapping list of render fragments.
package highlight

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// DefaultColor is the color given to new highlights.
const DefaultColor = "yellow"

var (
	// ErrNotFound is returned when a highlight id is not in the set.
	ErrNotFound = errors.New("highlight not found")
	// ErrEmptySelection is returned when Add is called with blank text.
	ErrEmptySelection = errors.New("highlight text is empty")
)

// Highlight is a user annotation anchored to the exact text it was made from.
type Highlight struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"article_id,omitempty"`
	Text      string    `json:"text"`
	Note      string    `json:"note"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Fragment is a piece of rendered text. Highlight is nil for plain text.
type Fragment struct {
	Text      string     `json:"text"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// IsHighlight reports whether f is a highlighted span.
func (f Fragment) IsHighlight() bool { return f.Highlight != nil }

// Render splits text into plain and highlighted fragments.
//
// Highlights whose text does not occur in the block are skipped for this
// render. The rest are visited in order of first occurrence (ties keep the
// order of the highlights slice) and each is searched for from the end of the
// previous match, so a span is never matched twice and a highlight that
// overlaps an earlier one is dropped. Concatenating the fragment texts always
// reproduces text.
func Render(text string, highlights []Highlight) []Fragment {
	if len(highlights) == 0 {
		return []Fragment{{Text: text}}
	}

	type anchored struct {
		h     Highlight
		first int
	}
	var visible []anchored
	for _, h := range highlights {
		if h.Text == "" {
			continue
		}
		if i := strings.Index(text, h.Text); i >= 0 {
			visible = append(visible, anchored{h: h, first: i})
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].first < visible[j].first
	})

	var fragments []Fragment
	cursor := 0
	for _, v := range visible {
		rel := strings.Index(text[cursor:], v.h.Text)
		if rel < 0 {
			continue
		}
		start := cursor + rel
		if start > cursor {
			fragments = append(fragments, Fragment{Text: text[cursor:start]})
		}
		h := v.h
		end := start + len(h.Text)
		fragments = append(fragments, Fragment{Text: text[start:end], Highlight: &h})
		cursor = end
	}
	if cursor < len(text) {
		fragments = append(fragments, Fragment{Text: text[cursor:]})
	}
	if fragments == nil {
		fragments = []Fragment{}
	}
	return fragments
}

// Join concatenates the fragment texts.
func Join(fragments []Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}
