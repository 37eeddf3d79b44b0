// Package crm pushes contacts to an external CRM. Every call is best effort;
// callers log failures and carry on.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Contact is upserted by email.
type Contact struct {
	Email  string    `json:"email"`
	Source string    `json:"source"`
	Event  string    `json:"event"`
	SeenAt time.Time `json:"seen_at"`
}

type Sink interface {
	Upsert(ctx context.Context, c Contact) error
}

// NopSink is used when no CRM is configured.
type NopSink struct{}

func (NopSink) Upsert(context.Context, Contact) error { return nil }

// WebhookSink posts each contact as JSON to a single endpoint.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookSink{url: url, client: client}
}

func (s *WebhookSink) Upsert(ctx context.Context, c Contact) error {
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm upsert %s: %w", c.Email, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("crm upsert %s: status %d", c.Email, resp.StatusCode)
	}
	return nil
}
