package store

import (
	"fmt"

	"github.com/texyhq/texy/internal/highlight"
)

// SaveHighlight inserts h. Highlights outlive their anchor text: nothing is
// removed when an article's content changes.
// Thread-safe: acquires write lock.
func (s *Store) SaveHighlight(h highlight.Highlight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO highlights (id, article_id, text, note, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, h.ID, h.ArticleID, h.Text, h.Note, h.Color, h.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save highlight: %w", err)
	}
	return nil
}

// GetHighlight returns highlight id.
// Thread-safe: acquires read lock.
func (s *Store) GetHighlight(id string) (highlight.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hs, err := s.queryHighlights(`
		SELECT id, article_id, text, note, color, created_at
		FROM highlights WHERE id = ?
	`, id)
	if err != nil {
		return highlight.Highlight{}, err
	}
	if len(hs) == 0 {
		return highlight.Highlight{}, ErrNotFound
	}
	return hs[0], nil
}

// UpdateHighlightNote replaces the note of highlight id and returns it.
// Thread-safe: acquires write lock.
func (s *Store) UpdateHighlightNote(id, note string) (highlight.Highlight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE highlights SET note = ? WHERE id = ?`, note, id)
	if err != nil {
		return highlight.Highlight{}, fmt.Errorf("update highlight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return highlight.Highlight{}, ErrNotFound
	}

	hs, err := s.queryHighlights(`
		SELECT id, article_id, text, note, color, created_at
		FROM highlights WHERE id = ?
	`, id)
	if err != nil {
		return highlight.Highlight{}, err
	}
	return hs[0], nil
}

// DeleteHighlight removes highlight id.
// Thread-safe: acquires write lock.
func (s *Store) DeleteHighlight(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Highlights returns the highlights of an article in insertion order.
// Thread-safe: acquires read lock.
func (s *Store) Highlights(articleID string) ([]highlight.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHighlights(`
		SELECT id, article_id, text, note, color, created_at
		FROM highlights WHERE article_id = ?
		ORDER BY rowid ASC
	`, articleID)
}

// queryHighlights scans highlight rows. Caller must hold s.mu.
func (s *Store) queryHighlights(query string, args ...any) ([]highlight.Highlight, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []highlight.Highlight{}
	for rows.Next() {
		var h highlight.Highlight
		if err := rows.Scan(&h.ID, &h.ArticleID, &h.Text, &h.Note, &h.Color, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
