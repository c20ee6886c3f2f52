// Package newsletter matches analyzed articles to subscribers by role and
// tech stack and emails each of them a daily digest.
package newsletter

import (
	"context"
	"fmt"
	"time"

	"github.com/texyhq/texy/internal/logging"
	"github.com/texyhq/texy/internal/model"
	"github.com/texyhq/texy/internal/otel"
	"github.com/texyhq/texy/internal/store"
)

// Report messages.
const (
	MsgNoSubscribers = "No active subscribers"
	MsgSent          = "Newsletter sent"
)

// Store is the persistence the service needs.
type Store interface {
	ActiveSubscribers() ([]store.Subscriber, error)
	AnalyzedSince(t time.Time) ([]model.Article, error)
	MarkEmailSent(email string, t time.Time) error
}

// Report summarizes one newsletter run.
type Report struct {
	Message           string `json:"message"`
	TotalSubscribers  int    `json:"total_subscribers"`
	Sent              int    `json:"sent"`
	Failed            int    `json:"failed"`
	Skipped           int    `json:"skipped"`
	ArticlesAvailable int    `json:"articles_available"`
}

// Options configure a Service.
type Options struct {
	// BaseURL prefixes unsubscribe links. Empty uses DefaultBaseURL.
	BaseURL string
	Events  *otel.Logger
}

// Service sends the daily digest.
type Service struct {
	store   Store
	sender  Sender
	baseURL string
	events  *otel.Logger
	now     func() time.Time
}

// NewService returns a Service.
func NewService(st Store, s Sender, opts Options) *Service {
	return &Service{store: st, sender: s, baseURL: opts.BaseURL, events: opts.Events, now: time.Now}
}

// SendDaily emails every active subscriber the articles analyzed in the last
// daysBack days that match their preferences. Subscribers without a match are
// skipped; a failed send is counted and the run goes on.
func (s *Service) SendDaily(ctx context.Context, daysBack int) (Report, error) {
	if daysBack <= 0 {
		daysBack = 1
	}
	start := s.now()

	subs, err := s.store.ActiveSubscribers()
	if err != nil {
		return Report{}, fmt.Errorf("list subscribers: %w", err)
	}
	if len(subs) == 0 {
		return Report{Message: MsgNoSubscribers}, nil
	}

	articles, err := s.store.AnalyzedSince(start.AddDate(0, 0, -daysBack))
	if err != nil {
		return Report{}, fmt.Errorf("list analyzed articles: %w", err)
	}

	report := Report{Message: MsgSent, TotalSubscribers: len(subs), ArticlesAvailable: len(articles)}
	for _, sub := range subs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		matches := MatchArticles(sub.Role, sub.TechStack, articles)
		if len(matches) == 0 {
			logging.Debug("no matching articles", "email", sub.Email)
			report.Skipped++
			continue
		}

		html, err := RenderDigest(s.baseURL, sub.Email, sub.Role, sub.TechStack, matches)
		if err == nil {
			err = s.sender.Send(ctx, Email{To: sub.Email, Subject: Subject(len(matches)), HTML: html})
		}
		if err != nil {
			report.Failed++
			logging.Warn("newsletter send failed", "email", sub.Email, "error", err)
			continue
		}

		report.Sent++
		if err := s.store.MarkEmailSent(sub.Email, s.now()); err != nil {
			logging.Error("recording newsletter send failed", "email", sub.Email, "error", err)
		}
	}

	s.events.Timed(otel.KindNewsletter, "newsletter", start, otel.Event{
		Count: report.Sent,
		Extra: map[string]any{"failed": report.Failed, "skipped": report.Skipped, "articles": report.ArticlesAvailable},
	})
	logging.Info("newsletter run complete", "subscribers", report.TotalSubscribers, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}
