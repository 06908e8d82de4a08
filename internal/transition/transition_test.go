package transition

import (
	"testing"
	"time"

	"github.com/mihrab-app/mihrab/internal/resolve"
)

func TestDetect_FirstResolutionNeverNotifies(t *testing.T) {
	current := resolve.Resolution{CurrentWindow: "Dhuhr", Target: "Asr"}
	if got := Detect(nil, current, false, time.Now()); got != nil {
		t.Fatalf("first resolution should not notify, got %+v", got)
	}
}

func TestDetect_SameWindowIsQuiet(t *testing.T) {
	prev := resolve.Resolution{CurrentWindow: "Dhuhr", Target: "Asr"}
	current := resolve.Resolution{CurrentWindow: "Dhuhr", Target: "Asr"}
	if got := Detect(&prev, current, false, time.Now()); got != nil {
		t.Fatalf("unchanged window should not notify, got %+v", got)
	}
}

func TestDetect_WindowBegan(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 45, 0, 0, time.UTC)
	boundary := time.Date(2026, 3, 10, 18, 20, 0, 0, time.UTC)
	prev := resolve.Resolution{CurrentWindow: "Dhuhr", Target: "Asr"}
	current := resolve.Resolution{CurrentWindow: "Asr", Target: "Maghrib", Boundary: boundary}

	got := Detect(&prev, current, true, now)
	if got == nil {
		t.Fatalf("expected a transition")
	}
	if got.Kind != KindWindowBegan {
		t.Fatalf("Kind = %q, want %q", got.Kind, KindWindowBegan)
	}
	if got.Window != "Asr" {
		t.Fatalf("Window = %q, want Asr", got.Window)
	}
	if got.Target != "Maghrib" || !got.Boundary.Equal(boundary) {
		t.Fatalf("next boundary mismatch: %+v", got)
	}
	if !got.FromCache {
		t.Fatalf("FromCache should carry through")
	}
	if !got.At.Equal(now) {
		t.Fatalf("At = %v, want %v", got.At, now)
	}
}

func TestDetect_WindowEndedIntoGap(t *testing.T) {
	prev := resolve.Resolution{CurrentWindow: "Fajr", Target: "Sunrise"}
	current := resolve.Resolution{CurrentWindow: "", Target: "Dhuhr"}

	got := Detect(&prev, current, false, time.Now())
	if got == nil {
		t.Fatalf("expected a transition")
	}
	if got.Kind != KindWindowEnded {
		t.Fatalf("Kind = %q, want %q", got.Kind, KindWindowEnded)
	}
	if got.Window != "Fajr" {
		t.Fatalf("Window = %q, want the window that ended", got.Window)
	}
}

func TestDetect_GapIntoWindowBegins(t *testing.T) {
	prev := resolve.Resolution{CurrentWindow: "", Target: "Dhuhr"}
	current := resolve.Resolution{CurrentWindow: "Dhuhr", Target: "Asr"}

	got := Detect(&prev, current, false, time.Now())
	if got == nil || got.Kind != KindWindowBegan || got.Window != "Dhuhr" {
		t.Fatalf("expected Dhuhr window_began, got %+v", got)
	}
}
