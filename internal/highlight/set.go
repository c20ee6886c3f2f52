package highlight

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Set is the ordered highlight collection of one article. Not safe for
// concurrent use; callers that share a Set must synchronize.
type Set struct {
	articleID string
	items     []Highlight
	now       func() time.Time
}

// NewSet returns a set for articleID seeded with existing highlights.
func NewSet(articleID string, existing ...Highlight) *Set {
	items := make([]Highlight, len(existing))
	copy(items, existing)
	return &Set{articleID: articleID, items: items, now: time.Now}
}

// ArticleID returns the article the set belongs to.
func (s *Set) ArticleID() string { return s.articleID }

// Add appends a highlight for the selected text.
func (s *Set) Add(text, note string) (Highlight, error) {
	if strings.TrimSpace(text) == "" {
		return Highlight{}, ErrEmptySelection
	}
	h := Highlight{
		ID:        uuid.NewString(),
		ArticleID: s.articleID,
		Text:      text,
		Note:      note,
		Color:     DefaultColor,
		CreatedAt: s.now().UTC(),
	}
	s.items = append(s.items, h)
	return h, nil
}

// UpdateNote replaces the note of highlight id in place.
func (s *Set) UpdateNote(id, note string) (Highlight, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Note = note
			return s.items[i], nil
		}
	}
	return Highlight{}, ErrNotFound
}

// Delete removes highlight id, preserving the order of the rest.
func (s *Set) Delete(id string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get returns highlight id.
func (s *Set) Get(id string) (Highlight, bool) {
	for _, h := range s.items {
		if h.ID == id {
			return h, true
		}
	}
	return Highlight{}, false
}

// List returns a copy of the highlights in insertion order.
func (s *Set) List() []Highlight {
	out := make([]Highlight, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of highlights.
func (s *Set) Len() int { return len(s.items) }

// Render renders text against the set.
func (s *Set) Render(text string) []Fragment {
	return Render(text, s.items)
}
