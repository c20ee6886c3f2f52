// Package chat relays a reader's conversation about an article to an LLM.
//
// The relay is stateless: every call carries the full conversation and the
// article context, and produces exactly one assistant reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/texyhq/texy/internal/brain"
	"github.com/texyhq/texy/internal/otel"
)

// Completion parameters sent with every request.
const (
	Temperature = 0.7
	MaxTokens   = 1000
)

// FallbackReply is returned when the provider answers with no content.
const FallbackReply = "Sorry, I could not generate a response."

// NoContext replaces an empty article context in the system prompt.
const NoContext = "No article context provided."

var (
	// ErrMissingAPIKey is returned by NewRelay when the provider has no key.
	ErrMissingAPIKey = errors.New("chat: provider API key is not configured")
	// ErrInvalidRole is returned when a message is neither a user nor an
	// assistant turn. The system instruction is owned by the relay.
	ErrInvalidRole = errors.New("chat: message role must be user or assistant")
)

const systemPromptTemplate = `You are 'Texy Copilot', an expert cybersecurity and tech news analyst.

CONTEXT:
The user is reading an article. Here is the content:
%s

INSTRUCTIONS:
1. Answer based on the provided context.
2. Be concise, professional, and helpful.
3. If the user asks for code/fixes, provide snippets.
4. Do not hallucinate facts not present in the context or general knowledge.
5. Focus on cybersecurity implications, technical details, and actionable insights.`

// Request is one relay call.
type Request struct {
	Messages []brain.Message `json:"messages"`
	Context  string          `json:"context,omitempty"`
}

// Reply carries the assistant text twice for clients that read either field.
type Reply struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

// Options configure a Relay.
type Options struct {
	// Rate limits outbound calls per second. Zero disables pacing.
	Rate  float64
	Burst int
	// Events receives chat.* events. May be nil.
	Events *otel.Logger
}

// Relay forwards conversations to a Provider.
type Relay struct {
	provider brain.Provider
	limiter  *rate.Limiter
	events   *otel.Logger
}

// NewRelay returns a relay bound to p. It fails with ErrMissingAPIKey when p
// is not usable.
func NewRelay(p brain.Provider, opts Options) (*Relay, error) {
	if p == nil || !p.Available() {
		return nil, ErrMissingAPIKey
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Relay{
		provider: p,
		limiter:  rate.NewLimiter(limit, burst),
		events:   opts.Events,
	}, nil
}

// SystemPrompt builds the fixed analyst instruction around articleContext.
func SystemPrompt(articleContext string) string {
	if strings.TrimSpace(articleContext) == "" {
		articleContext = NoContext
	}
	return fmt.Sprintf(systemPromptTemplate, articleContext)
}

// Reply sends the conversation and returns the assistant answer. Calls are
// paced by the relay's limiter; a call waits for its turn rather than being
// rejected. There is no retry. An empty conversation is forwarded as is.
func (r *Relay) Reply(ctx context.Context, req Request) (Reply, error) {
	for i, m := range req.Messages {
		if m.Role != brain.RoleUser && m.Role != brain.RoleAssistant {
			return Reply{}, fmt.Errorf("message %d has role %q: %w", i, m.Role, ErrInvalidRole)
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Reply{}, fmt.Errorf("chat: waiting for rate limiter: %w", err)
	}

	start := time.Now()
	r.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindChatRequest,
		Comp:   "chat",
		Source: r.provider.Name(),
		Count:  len(req.Messages),
	})

	resp, err := r.provider.Generate(ctx, brain.Request{
		SystemPrompt: SystemPrompt(req.Context),
		Messages:     req.Messages,
		Temperature:  Temperature,
		MaxTokens:    MaxTokens,
	})
	if err != nil {
		r.events.Emit(otel.Event{
			Level:  otel.LevelError,
			Kind:   otel.KindChatError,
			Comp:   "chat",
			Source: r.provider.Name(),
			Dur:    time.Since(start),
			Err:    err.Error(),
		})
		return Reply{}, fmt.Errorf("chat: %s: %w", r.provider.Name(), err)
	}

	text := resp.Content
	if strings.TrimSpace(text) == "" {
		text = FallbackReply
	}

	r.events.Timed(otel.KindChatResponse, "chat", start, otel.Event{
		Source: r.provider.Name(),
		Extra:  map[string]any{"model": resp.Model, "chars": len(text)},
	})

	return Reply{Message: text, Content: text}, nil
}
