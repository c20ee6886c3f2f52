// Package analysis enriches stored articles: it scrapes the full text,
// extracts keywords, detects a category, asks an LLM for scores and
// summaries, and measures how much the topic is being discussed.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/model"
)

// DefaultBatchSize is how many pending articles AnalyzePending takes when no
// limit is given.
const DefaultBatchSize = 50

// maxConcurrentAnalyses limits parallel article analyses.
const maxConcurrentAnalyses = 5

// ErrAlreadyAnalyzed is returned by AnalyzeByID for analyzed articles unless
// force is set.
var ErrAlreadyAnalyzed = errors.New("analysis: article already analyzed")

// Store is the persistence the service needs.
type Store interface {
	GetArticle(id string) (model.Article, error)
	ArticleAnalyzed(id string) (bool, error)
	PendingAnalysis(limit int) ([]model.Article, error)
	SaveAnalysis(a model.Article) error
}

// BatchResult counts the outcome of AnalyzePending.
type BatchResult struct {
	Analyzed int `json:"analyzed"`
	Errors   int `json:"errors"`
}

// Service analyzes stored articles and saves the results.
type Service struct {
	store    Store
	analyzer *Analyzer
}

// NewService returns a Service.
func NewService(st Store, an *Analyzer) *Service {
	return &Service{store: st, analyzer: an}
}

// AnalyzeByID analyzes article id and stores the result. An analyzed article
// is skipped with ErrAlreadyAnalyzed unless force is set. Store errors, such
// as a missing article, are returned wrapped.
func (s *Service) AnalyzeByID(ctx context.Context, id string, force bool) (model.Article, error) {
	a, err := s.store.GetArticle(id)
	if err != nil {
		return model.Article{}, fmt.Errorf("load article %s: %w", id, err)
	}
	if !force {
		done, err := s.store.ArticleAnalyzed(id)
		if err != nil {
			return model.Article{}, fmt.Errorf("check article %s: %w", id, err)
		}
		if done {
			return a, ErrAlreadyAnalyzed
		}
	}
	return s.analyze(ctx, a)
}

// AnalyzePending analyzes up to limit articles that have not been analyzed,
// five at a time. Per-article failures are counted, not returned.
func (s *Service) AnalyzePending(ctx context.Context, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	pending, err := s.store.PendingAnalysis(limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list pending articles: %w", err)
	}

	start := time.Now()
	var (
		mu     sync.Mutex
		result BatchResult
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentAnalyses)

	for _, a := range pending {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, err := s.analyze(ctx, a)
			mu.Lock()
			if err != nil {
				result.Errors++
			} else {
				result.Analyzed++
			}
			mu.Unlock()
			return nil // never fail the group - errors counted per article
		})
	}
	_ = g.Wait()

	logging.Info("analysis batch complete", "pending", len(pending), "analyzed", result.Analyzed, "errors", result.Errors, "took", time.Since(start).Round(time.Millisecond))
	return result, ctx.Err()
}

func (s *Service) analyze(ctx context.Context, a model.Article) (model.Article, error) {
	analyzed, err := s.analyzer.Analyze(ctx, a)
	if err != nil {
		return model.Article{}, err
	}
	if err := s.store.SaveAnalysis(analyzed); err != nil {
		logging.Error("saving analysis failed", "id", a.ID, "error", err)
		return model.Article{}, fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return analyzed, nil
}
