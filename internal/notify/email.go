package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Email is a plain-text message to one recipient.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers an email. Implementations must honor ctx cancellation.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// HTTPSender posts emails as JSON to a transactional email API using a
// bearer API key.
type HTTPSender struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPSender creates an HTTPSender. client may be nil to use http.DefaultClient.
func NewHTTPSender(url, apiKey, from string, client *http.Client) *HTTPSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{url: url, apiKey: apiKey, from: from, client: client}
}

// Send posts the email and treats any non-2xx response as a failure.
func (s *HTTPSender) Send(ctx context.Context, email Email) error {
	payload := map[string]any{
		"from":    fmt.Sprintf("Group Savings <%s>", s.from),
		"to":      []string{email.To},
		"subject": email.Subject,
		"text":    email.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}

	return nil
}

// LogSender only logs emails. Used when no email API is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender writing to logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the email at debug level.
func (s *LogSender) Send(ctx context.Context, email Email) error {
	s.logger.Debug("Email not sent, no email API configured", "to", email.To, "subject", email.Subject)
	return nil
}
