package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/texyhq/texy/internal/logging"
)

// Resend defaults.
const (
	ResendEndpoint = "https://api.resend.com/emails"
	DefaultFrom    = "Security Digest <onboarding@resend.dev>"
)

// ErrNotConfigured is returned by senders that have no API key.
var ErrNotConfigured = errors.New("newsletter: email API key is not configured")

// Email is one outgoing message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers emails.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Compile-time interface satisfaction check
var _ Sender = (*ResendSender)(nil)

// ResendOptions configure a ResendSender. Empty fields use the defaults.
type ResendOptions struct {
	APIKey   string
	From     string
	Endpoint string
	Client   *http.Client
}

// ResendSender sends email through the Resend HTTP API.
type ResendSender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewResendSender creates a ResendSender.
func NewResendSender(opts ResendOptions) *ResendSender {
	if opts.From == "" {
		opts.From = DefaultFrom
	}
	if opts.Endpoint == "" {
		opts.Endpoint = ResendEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ResendSender{apiKey: opts.APIKey, from: opts.From, endpoint: opts.Endpoint, client: opts.Client}
}

// Send posts e. Any status other than 200 is an error.
func (s *ResendSender) Send(ctx context.Context, e Email) error {
	if s.apiKey == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{e.To},
		"subject": e.Subject,
		"html":    e.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", e.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Error("email API error", "to", e.To, "status", resp.StatusCode, "body", string(msg))
		return fmt.Errorf("email API error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}
