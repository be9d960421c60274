// Package notifications pushes upload events to configured targets.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feedrelay/internal/config"
	"feedrelay/internal/logging"
)

// Notifier delivers one message to one target.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, title, body string) error
}

// Service fans a notification out to every configured target. Delivery
// failures are logged per target and never fail the pipeline.
type Service struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// New builds a Service from the configured target list. An unknown
// target type is an error rather than a silent no-op.
func New(targets []config.NotifyTarget, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	service := &Service{logger: logging.WithComponent(logger, "notify")}
	for _, target := range targets {
		notifier, err := buildNotifier(target)
		if err != nil {
			return nil, err
		}
		service.notifiers = append(service.notifiers, notifier)
	}
	return service, nil
}

func buildNotifier(target config.NotifyTarget) (Notifier, error) {
	client := &http.Client{Timeout: time.Duration(target.Timeout) * time.Second}
	switch target.Type {
	case "ntfy":
		return &ntfyNotifier{target: target, client: client}, nil
	case "gotify":
		return &gotifyNotifier{target: target, client: client}, nil
	case "webhook":
		return &webhookNotifier{target: target, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown notification target type %q", target.Type)
	}
}

// Enabled reports whether any target is configured.
func (s *Service) Enabled() bool {
	return s != nil && len(s.notifiers) > 0
}

// NotifyUploaded announces a successful upload to every target.
func (s *Service) NotifyUploaded(ctx context.Context, title, body string) {
	if !s.Enabled() {
		return
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, title, body); err != nil {
			s.logger.Warn("notification delivery failed",
				logging.String("target", notifier.Name()), logging.Error(err))
			continue
		}
		s.logger.Debug("notification delivered", logging.String("target", notifier.Name()))
	}
}

func drainAndCheck(resp *http.Response, target string) error {
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return nil
}

type ntfyNotifier struct {
	target config.NotifyTarget
	client *http.Client
}

func (n *ntfyNotifier) Name() string { return "ntfy" }

func (n *ntfyNotifier) Notify(ctx context.Context, title, body string) error {
	endpoint := strings.TrimRight(n.target.URL, "/") + "/" + n.target.Topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("Title", title)
	if n.target.Priority > 0 {
		req.Header.Set("Priority", strconv.Itoa(n.target.Priority))
	}
	if n.target.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.target.Token)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	return drainAndCheck(resp, "ntfy")
}

type gotifyNotifier struct {
	target config.NotifyTarget
	client *http.Client
}

func (n *gotifyNotifier) Name() string { return "gotify" }

func (n *gotifyNotifier) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(map[string]any{
		"title":    title,
		"message":  body,
		"priority": n.target.Priority,
	})
	if err != nil {
		return fmt.Errorf("encode gotify payload: %w", err)
	}
	endpoint := strings.TrimRight(n.target.URL, "/") + "/message?token=" + n.target.Token
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gotify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send gotify notification: %w", err)
	}
	return drainAndCheck(resp, "gotify")
}

type webhookNotifier struct {
	target config.NotifyTarget
	client *http.Client
}

func (n *webhookNotifier) Name() string { return "webhook" }

func (n *webhookNotifier) Notify(ctx context.Context, title, body string) error {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.target.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.target.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.target.Token)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	return drainAndCheck(resp, "webhook")
}
