// Package notifications posts publish outcomes to an optional webhook. When
// no webhook is configured a noop implementation is returned, so callers
// never branch on configuration.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cardpress/internal/config"
)

const userAgent = "cardpress/0.1"

// Service defines the notification surface exposed to the publish pipeline.
type Service interface {
	NotifyPublished(ctx context.Context, publicID, shareURL string) error
	NotifyPublishFailed(ctx context.Context, cause error) error
	Test(ctx context.Context) error
}

// NewService builds a webhook-backed notification service when configured.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
		publishes: cfg.Notifications.Publishes,
		errors:    cfg.Notifications.Errors,
	}
}

type webhookService struct {
	endpoint  string
	client    *http.Client
	publishes bool
	errors    bool
}

type event struct {
	Event    string `json:"event"`
	PublicID string `json:"publicId,omitempty"`
	ShareURL string `json:"shareUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *webhookService) NotifyPublished(ctx context.Context, publicID, shareURL string) error {
	if !s.publishes {
		return nil
	}
	return s.post(ctx, event{Event: "card_published", PublicID: publicID, ShareURL: shareURL})
}

func (s *webhookService) NotifyPublishFailed(ctx context.Context, cause error) error {
	if !s.errors {
		return nil
	}
	message := "publish failed"
	if cause != nil {
		message = cause.Error()
	}
	return s.post(ctx, event{Event: "publish_failed", Error: message})
}

func (s *webhookService) Test(ctx context.Context) error {
	return s.post(ctx, event{Event: "test"})
}

func (s *webhookService) post(ctx context.Context, evt event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyPublished(context.Context, string, string) error { return nil }
func (noopService) NotifyPublishFailed(context.Context, error) error      { return nil }
func (noopService) Test(context.Context) error                            { return nil }
