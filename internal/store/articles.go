package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/texyhq/texy/internal/model"
)

// Query limits.
const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 100
)

// Sort fields accepted by Query.
var sortColumns = map[string]string{
	"published":        "published_at",
	"confidence_score": "confidence_score",
	"relevance_score":  "relevance_score",
	"trend_score":      "trend_score",
	"sentiment_score":  "sentiment_score",
}

// Query selects a page of articles. Zero values disable each filter.
type Query struct {
	Limit         int
	Offset        int
	Category      string // exact match; "" or "All" matches everything
	Search        string // substring of title or either description
	Actionable    *bool
	MinConfidence *float64
	Sort          string // one of the sort fields; unknown values use "published"
	Order         string // "asc" or "desc" (default)
}

// Page is one result window of a Query.
type Page struct {
	Articles []model.Article `json:"articles"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
	HasMore  bool            `json:"has_more"`
}

// CategoryCount is a category with its article count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AverageScores are the mean article scores, rounded to one decimal.
type AverageScores struct {
	Confidence float64 `json:"confidence"`
	Relevance  float64 `json:"relevance"`
	Sentiment  float64 `json:"sentiment"`
	Trend      float64 `json:"trend"`
}

// Stats summarizes the stored collection.
type Stats struct {
	TotalArticles   int             `json:"total_articles"`
	Categories      []CategoryCount `json:"categories"`
	AverageScores   AverageScores   `json:"average_scores"`
	ActionableCount int             `json:"actionable_count"`
	Recent24h       int             `json:"recent_24h"`
}

// SaveArticles upserts articles attributed to source, returning the number of
// articles that were not stored before. Existing rows keep their position in
// insertion order. An article that already carries analysis (any score or
// keyword) is marked analyzed; a bare article never overwrites an analyzed
// row. Thread-safe: acquires write lock.
func (s *Store) SaveArticles(articles []model.Article, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	exists, err := tx.Prepare(`SELECT 1 FROM articles WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer exists.Close()

	upsert, err := tx.Prepare(`
		INSERT INTO articles (
			id, title, url, published, published_at, category,
			short_description, long_description, actionable,
			confidence_score, relevance_score, sentiment_score, trend_score,
			source_name, fetched_at, analyzed_at, doc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			published = excluded.published,
			published_at = excluded.published_at,
			category = excluded.category,
			short_description = excluded.short_description,
			long_description = excluded.long_description,
			actionable = excluded.actionable,
			confidence_score = excluded.confidence_score,
			relevance_score = excluded.relevance_score,
			sentiment_score = excluded.sentiment_score,
			trend_score = excluded.trend_score,
			source_name = excluded.source_name,
			fetched_at = excluded.fetched_at,
			analyzed_at = excluded.analyzed_at,
			doc = excluded.doc
		WHERE articles.analyzed_at IS NULL OR excluded.analyzed_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	defer upsert.Close()

	now := time.Now().UTC()
	newCount := 0
	for _, a := range articles {
		if a.ID == "" {
			continue
		}
		a.Normalize()

		doc, err := json.Marshal(a)
		if err != nil {
			return 0, fmt.Errorf("encode article %s: %w", a.ID, err)
		}

		var publishedAt int64
		if t, ok := model.ParsePublished(a.Published); ok {
			publishedAt = t.Unix()
		}

		var analyzedAt any
		if carriesAnalysis(a) {
			analyzedAt = now
		}

		var one int
		switch err := exists.QueryRow(a.ID).Scan(&one); {
		case errors.Is(err, sql.ErrNoRows):
			newCount++
		case err != nil:
			return 0, err
		}

		if _, err := upsert.Exec(
			a.ID,
			a.Title,
			a.URL,
			a.Published,
			publishedAt,
			a.Classification.Category,
			a.Content.ShortDescription,
			a.Content.LongDescription,
			boolToInt(a.Classification.Actionable),
			a.Scores.ConfidenceScore,
			a.Scores.RelevanceScore,
			a.Scores.SentimentScore,
			a.Scores.TrendScore,
			source,
			now,
			analyzedAt,
			string(doc),
		); err != nil {
			return 0, fmt.Errorf("save article %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newCount, nil
}

// GetArticle returns the article with the given id.
// Thread-safe: acquires read lock.
func (s *Store) GetArticle(id string) (model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRow(`SELECT doc FROM articles WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrNotFound
	}
	if err != nil {
		return model.Article{}, err
	}
	return decodeArticle(doc)
}

// AllArticles returns every stored article in insertion order.
// Thread-safe: acquires read lock.
func (s *Store) AllArticles() ([]model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryArticles(`SELECT doc FROM articles ORDER BY rowid ASC`)
}

// CountArticles returns the number of stored articles.
func (s *Store) CountArticles() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}

// QueryArticles returns one page of articles matching q.
// Thread-safe: acquires read lock.
func (s *Store) QueryArticles(q Query) (Page, error) {
	q = q.normalized()

	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := q.where()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM articles`+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count articles: %w", err)
	}

	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT doc FROM articles%s ORDER BY %s %s, rowid DESC LIMIT ? OFFSET ?`,
		where, sortColumns[q.Sort], direction)

	articles, err := s.queryArticles(query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Articles: articles,
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
		HasMore:  q.Offset+len(articles) < total,
	}, nil
}

// Categories lists categories by article count, largest first.
// Thread-safe: acquires read lock.
func (s *Store) Categories() ([]CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.categoryCounts()
}

// Stats computes collection statistics.
// Thread-safe: acquires read lock.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	var conf, rel, sent, trend sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*), AVG(confidence_score), AVG(relevance_score),
			AVG(sentiment_score), AVG(trend_score), COALESCE(SUM(actionable), 0)
		FROM articles
	`).Scan(&st.TotalArticles, &conf, &rel, &sent, &trend, &st.ActionableCount)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate scores: %w", err)
	}
	st.AverageScores = AverageScores{
		Confidence: round1(conf.Float64),
		Relevance:  round1(rel.Float64),
		Sentiment:  round1(sent.Float64),
		Trend:      round1(trend.Float64),
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE fetched_at > ?`, since).Scan(&st.Recent24h); err != nil {
		return Stats{}, fmt.Errorf("count recent: %w", err)
	}

	if st.Categories, err = s.categoryCounts(); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// categoryCounts is shared by Categories and Stats. Caller must hold s.mu.
func (s *Store) categoryCounts() ([]CategoryCount, error) {
	rows, err := s.db.Query(`
		SELECT category, COUNT(*) AS count
		FROM articles
		GROUP BY category
		ORDER BY count DESC, MIN(rowid) ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// queryArticles executes a query selecting doc and decodes the results.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryArticles(query string, args ...any) ([]model.Article, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		a, err := decodeArticle(doc)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

func decodeArticle(doc string) (model.Article, error) {
	var a model.Article
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return model.Article{}, fmt.Errorf("decode article: %w", err)
	}
	return a, nil
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if _, ok := sortColumns[q.Sort]; !ok {
		q.Sort = "published"
	}
	return q
}

func (q Query) where() (string, []any) {
	var clauses []string
	var args []any

	if q.Category != "" && q.Category != model.AllCategories {
		clauses = append(clauses, "category = ?")
		args = append(args, q.Category)
	}
	if q.Actionable != nil {
		clauses = append(clauses, "actionable = ?")
		args = append(args, boolToInt(*q.Actionable))
	}
	if q.MinConfidence != nil {
		clauses = append(clauses, "confidence_score >= ?")
		args = append(args, *q.MinConfidence)
	}
	if q.Search != "" {
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR short_description LIKE ? ESCAPE '\' OR long_description LIKE ? ESCAPE '\')`)
		term := "%" + likeEscaper.Replace(q.Search) + "%"
		args = append(args, term, term, term)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
