// Package webhook reenvía las notificaciones emitidas a un endpoint HTTP
// (por ejemplo, una función del servicio hosted que hace web push).
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"family-care/internal/platform/httpclient"
	"family-care/internal/ports/notifications"
)

var (
	ErrNotConfigured = errors.New("notification webhook not configured")
	ErrUnauthorized  = errors.New("notification webhook unauthorized")
)

type Config struct {
	URL    string
	APIKey string

	// APIKeyHeader por defecto "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
}

type Sink struct {
	http *httpclient.Client
	url  string
}

func NewSink(cfg Config) (*Sink, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := httpclient.New(timeout)
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		h := strings.TrimSpace(cfg.APIKeyHeader)
		if h == "" {
			h = "X-Api-Key"
		}
		c.DefaultHeaders = map[string]string{h: key}
	}
	return &Sink{http: c, url: u}, nil
}

func (s *Sink) Name() string { return "webhook" }

type pushRequest struct {
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	Tag                string    `json:"tag"`
	Icon               string    `json:"icon"`
	RequireInteraction bool      `json:"require_interaction"`
	EmittedAt          time.Time `json:"emitted_at"`
}

func (s *Sink) Push(ctx context.Context, n notifications.Notification) error {
	err := s.http.DoJSON(ctx, http.MethodPost, s.url, nil, pushRequest{
		UserID:             n.Recipient,
		Title:              n.Title,
		Body:               n.Body,
		Tag:                n.Tag,
		Icon:               n.Icon,
		RequireInteraction: n.RequireInteraction,
		EmittedAt:          n.EmittedAt,
	}, nil)
	if err == nil {
		return nil
	}
	switch httpclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return fmt.Errorf("notification webhook: %w", err)
}
