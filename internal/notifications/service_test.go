package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardpress/internal/notifications"
	"cardpress/internal/testsupport"
)

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.WebhookURL = ""

	svc := notifications.NewService(cfg)
	if err := svc.NotifyPublished(context.Background(), "pc-1", "https://example.com/c/pc-1"); err != nil {
		t.Fatalf("noop NotifyPublished: %v", err)
	}
	if err := svc.Test(context.Background()); err != nil {
		t.Fatalf("noop Test: %v", err)
	}
}

func TestWebhookEvents(t *testing.T) {
	var events []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var evt map[string]string
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		events = append(events, evt)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.WebhookURL = server.URL
	cfg.Notifications.Publishes = true
	cfg.Notifications.Errors = true

	svc := notifications.NewService(cfg)
	if err := svc.NotifyPublished(context.Background(), "pc-9", "https://cards.example/c/pc-9"); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}
	if err := svc.NotifyPublishFailed(context.Background(), errors.New("backend returned 503")); err != nil {
		t.Fatalf("NotifyPublishFailed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0]["event"] != "card_published" || events[0]["publicId"] != "pc-9" {
		t.Fatalf("unexpected publish event: %v", events[0])
	}
	if events[1]["event"] != "publish_failed" || events[1]["error"] != "backend returned 503" {
		t.Fatalf("unexpected failure event: %v", events[1])
	}
}

func TestEventTogglesSuppressPosts(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.WebhookURL = server.URL
	cfg.Notifications.Publishes = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(cfg)
	if err := svc.NotifyPublished(context.Background(), "pc-2", ""); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}
	if err := svc.NotifyPublishFailed(context.Background(), errors.New("x")); err != nil {
		t.Fatalf("NotifyPublishFailed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("webhook called %d times, want 0", calls)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.WebhookURL = server.URL

	if err := notifications.NewService(cfg).Test(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
