package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/texyhq/texy/internal/model"
)

// carriesAnalysis reports whether a already has scores or keywords, as
// articles imported from an analyzed collection do.
func carriesAnalysis(a model.Article) bool {
	s := a.Scores
	if s.ConfidenceScore != 0 || s.RelevanceScore != 0 || s.SentimentScore != 0 || s.TrendScore != 0 {
		return true
	}
	return len(a.Metadata.Keywords) > 0
}

// ArticleAnalyzed reports whether the article has been analyzed.
// Thread-safe: acquires read lock.
func (s *Store) ArticleAnalyzed(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var at sql.NullString
	err := s.db.QueryRow(`SELECT analyzed_at FROM articles WHERE id = ?`, id).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return at.Valid && at.String != "", nil
}

// PendingAnalysis returns up to limit articles that have not been analyzed,
// newest first.
// Thread-safe: acquires read lock.
func (s *Store) PendingAnalysis(limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryArticles(`
		SELECT doc FROM articles
		WHERE analyzed_at IS NULL
		ORDER BY published_at DESC, rowid DESC
		LIMIT ?
	`, limit)
}

// SaveAnalysis replaces a stored article with its analyzed version and marks
// it analyzed. It returns ErrNotFound when the article is not stored.
// Thread-safe: acquires write lock.
func (s *Store) SaveAnalysis(a model.Article) error {
	a.Normalize()
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article %s: %w", a.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE articles SET
			title = ?,
			category = ?,
			short_description = ?,
			long_description = ?,
			actionable = ?,
			confidence_score = ?,
			relevance_score = ?,
			sentiment_score = ?,
			trend_score = ?,
			analyzed_at = ?,
			doc = ?
		WHERE id = ?
	`,
		a.Title,
		a.Classification.Category,
		a.Content.ShortDescription,
		a.Content.LongDescription,
		boolToInt(a.Classification.Actionable),
		a.Scores.ConfidenceScore,
		a.Scores.RelevanceScore,
		a.Scores.SentimentScore,
		a.Scores.TrendScore,
		time.Now().UTC(),
		string(doc),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AnalyzedSince returns the articles analyzed after since, most relevant
// first.
// Thread-safe: acquires read lock.
func (s *Store) AnalyzedSince(since time.Time) ([]model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryArticles(`
		SELECT doc FROM articles
		WHERE analyzed_at IS NOT NULL AND analyzed_at > ?
		ORDER BY relevance_score DESC, rowid ASC
	`, since.UTC())
}
