package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/times"
	"github.com/mihrab-app/mihrab/internal/transition"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// SlackNotifier announces prayer-window changes to a Slack webhook.
type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *webhookPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the
// webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}

	for _, opt := range opts {
		opt(notifier)
	}

	notifier.poster = newWebhookPoster(logger, "slack", webhookURL, "application/json", notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, city string, change transition.WindowTransition) error {
	if err := n.poster.waitForRateLimit(ctx, change.Window); err != nil {
		return err
	}

	message := buildSlackMessage(city, change)
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.poster.postWithRetry(ctx, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("window", change.Window).
		Str("kind", string(change.Kind)).
		Msg("slack notification sent")

	return nil
}

func buildSlackMessage(city string, change transition.WindowTransition) slack.WebhookMessage {
	summary := summaryText(change)
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Next boundary: *%s* at %s", change.Target, times.Format12Hour(change.Boundary)), false, false),
	}
	if city != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Location: *%s*", city), false, false))
	}
	if change.FromCache {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", "_Based on cached times_", false, false))
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	blockSet := slack.Blocks{BlockSet: []slack.Block{header, contextBlock}}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func summaryText(change transition.WindowTransition) string {
	if change.Kind == transition.KindWindowEnded {
		return fmt.Sprintf("%s has ended", change.Window)
	}
	return fmt.Sprintf("It is time for %s", change.Window)
}
