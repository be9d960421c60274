package notifications_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"feedrelay/internal/config"
	"feedrelay/internal/logging"
	"feedrelay/internal/notifications"
)

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := notifications.New([]config.NotifyTarget{{Type: "pager"}}, logging.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown target type")
	}
}

func TestServiceDisabledWithoutTargets(t *testing.T) {
	service, err := notifications.New(nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if service.Enabled() {
		t.Fatal("expected disabled service without targets")
	}
	// Must be a harmless no-op.
	service.NotifyUploaded(context.Background(), "title", "body")
}

func TestNtfyDelivery(t *testing.T) {
	var gotTitle, gotBody, gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		gotAuth = r.Header.Get("Authorization")
		payload, _ := io.ReadAll(r.Body)
		gotBody = string(payload)
	}))
	defer server.Close()

	service, err := notifications.New([]config.NotifyTarget{{
		Type: "ntfy", URL: server.URL, Topic: "relay", Token: "secret", Timeout: 5,
	}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	service.NotifyUploaded(context.Background(), "Uploaded Foo.mp4", "Foo.mp4 is on the remote")
	if gotPath != "/relay" {
		t.Fatalf("expected topic path /relay, got %q", gotPath)
	}
	if gotTitle != "Uploaded Foo.mp4" || gotBody != "Foo.mp4 is on the remote" {
		t.Fatalf("unexpected message: title=%q body=%q", gotTitle, gotBody)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestGotifyDelivery(t *testing.T) {
	var gotToken string
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	service, err := notifications.New([]config.NotifyTarget{{
		Type: "gotify", URL: server.URL, Token: "apptoken", Priority: 5, Timeout: 5,
	}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	service.NotifyUploaded(context.Background(), "title", "body")
	if gotToken != "apptoken" {
		t.Fatalf("expected app token, got %q", gotToken)
	}
	if payload["title"] != "title" || payload["message"] != "body" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["priority"] != float64(5) {
		t.Fatalf("expected priority 5, got %v", payload["priority"])
	}
}

func TestWebhookDelivery(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer server.Close()

	service, err := notifications.New([]config.NotifyTarget{{
		Type: "webhook", URL: server.URL, Timeout: 5,
	}}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	service.NotifyUploaded(context.Background(), "title", "body")
	if payload["title"] != "title" || payload["body"] != "body" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestDeliveryFailureDoesNotStopOtherTargets(t *testing.T) {
	var delivered atomic.Int64
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered.Add(1)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	service, err := notifications.New([]config.NotifyTarget{
		{Type: "webhook", URL: failServer.URL, Timeout: 5},
		{Type: "webhook", URL: okServer.URL, Timeout: 5},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	service.NotifyUploaded(context.Background(), "title", "body")
	if delivered.Load() != 1 {
		t.Fatalf("expected second target delivered despite first failing, got %d", delivered.Load())
	}
}
