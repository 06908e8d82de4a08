package notify

import (
	"context"

	"github.com/mihrab-app/mihrab/internal/transition"
	"github.com/rs/zerolog"
)

// DryRunNotifier logs window changes without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs
// instead.
func NewDryRunNotifier(logger zerolog.Logger) *DryRunNotifier {
	return &DryRunNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, city string, change transition.WindowTransition) error {
	n.logger.Info().
		Str("city", city).
		Str("window", change.Window).
		Str("kind", string(change.Kind)).
		Str("target", change.Target).
		Time("boundary", change.Boundary).
		Bool("from_cache", change.FromCache).
		Msg("[DRY-RUN] Would notify")
	return nil
}
