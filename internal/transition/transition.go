package transition

import (
	"time"

	"github.com/mihrab-app/mihrab/internal/resolve"
)

// Kind classifies what changed at a window boundary.
type Kind string

const (
	// KindWindowBegan fires when a prayer window opens (its adhan time).
	KindWindowBegan Kind = "window_began"
	// KindWindowEnded fires when a window closes into the gap after
	// Sunrise, with no prayer immediately due.
	KindWindowEnded Kind = "window_ended"
)

// WindowTransition captures a change of the active prayer window between
// two consecutive resolutions.
type WindowTransition struct {
	Kind Kind
	// Window is the prayer that began, or for KindWindowEnded the one
	// that just ended.
	Window string
	// Target and Boundary describe the next boundary after the change.
	Target   string
	Boundary time.Time
	// FromCache marks resolutions computed over snapshot data.
	FromCache bool
	At        time.Time
}

// Detect compares the previous resolution with the current one and reports
// a transition when the active window changed. The first resolution after
// startup never notifies: only observed boundary crossings do.
func Detect(prev *resolve.Resolution, current resolve.Resolution, fromCache bool, now time.Time) *WindowTransition {
	if prev == nil {
		return nil
	}
	if prev.CurrentWindow == current.CurrentWindow {
		return nil
	}

	t := &WindowTransition{
		Target:    current.Target,
		Boundary:  current.Boundary,
		FromCache: fromCache,
		At:        now,
	}
	if current.CurrentWindow == "" {
		t.Kind = KindWindowEnded
		t.Window = prev.CurrentWindow
	} else {
		t.Kind = KindWindowBegan
		t.Window = current.CurrentWindow
	}
	return t
}
