package notify

import (
	"context"

	"github.com/mihrab-app/mihrab/internal/transition"
)

// Notifier delivers prayer-window announcements to external systems.
type Notifier interface {
	Notify(ctx context.Context, city string, change transition.WindowTransition) error
}
