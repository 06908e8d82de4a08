package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/mihrab-app/mihrab/internal/transition"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"city":"{{ .City }}","event":{{ toJson .Event }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	City        string
	Event       transition.WindowTransition
	GeneratedAt time.Time
}

// WebhookNotifier sends window announcements to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *webhookPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided
// template. An empty URL yields a nil notifier, which MultiNotifier skips.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newWebhookPoster(logger, "webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, city string, change transition.WindowTransition) error {
	if n == nil {
		return nil
	}

	if err := n.poster.waitForRateLimit(ctx, change.Window); err != nil {
		return err
	}

	payload := WebhookPayload{
		City:        city,
		Event:       change,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.poster.postWithRetry(ctx, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("window", change.Window).
		Str("kind", string(change.Kind)).
		Msg("webhook notification sent")

	return nil
}
