// Package resolve classifies an instant against a day's prayer times.
//
// The classification is pure: the same time set and instant always produce
// the same resolution, so callers recompute it freely instead of caching.
package resolve

import (
	"fmt"
	"time"

	"github.com/mihrab-app/mihrab/internal/times"
)

// NextPrayerLabel is the display label used when the instant falls in the
// gap between Sunrise and Dhuhr, where no prayer window is active.
const NextPrayerLabel = "Next prayer"

// Resolution describes which prayer window an instant falls into and the
// boundary the countdown should run toward.
type Resolution struct {
	// CurrentWindow is the active prayer window, or "" in the gap
	// between Sunrise and Dhuhr.
	CurrentWindow string
	// Target names the upcoming boundary event.
	Target string
	// Boundary is the instant at which the current window ends (or, in
	// the gap, when the next prayer begins).
	Boundary time.Time
	// PreviousBoundary is the boundary of the chronologically preceding
	// prayer, shifted back one day when it would fall after Boundary.
	// The countdown ring span is Boundary minus PreviousBoundary.
	PreviousBoundary time.Time
	// Label is the display label, e.g. "Dhuhr ends in" or "Next prayer".
	Label string
}

// Next resolves the prayer window containing now. Window comparisons are
// half-open: the lower bound is inclusive, the upper exclusive, so every
// instant maps to exactly one branch.
func Next(set times.PrayerTimeSet, now time.Time) (Resolution, error) {
	loc := now.Location()
	at := make(map[string]time.Time, len(times.CanonicalOrder))
	for _, name := range times.CanonicalOrder {
		t, err := set.At(name, now, loc)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve %s: %w", name, err)
		}
		at[name] = t
	}

	windows := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"Fajr", at["Fajr"], at["Sunrise"]},
		{"Dhuhr", at["Dhuhr"], at["Asr"]},
		{"Asr", at["Asr"], at["Maghrib"]},
		{"Maghrib", at["Maghrib"], at["Isha"]},
	}
	for _, w := range windows {
		if !now.Before(w.start) && now.Before(w.end) {
			return build(w.name, targetName(w.end, at), w.end, at), nil
		}
	}

	// Isha wraps midnight: [Isha, next-day Fajr).
	if !now.Before(at["Isha"]) {
		return build("Isha", "Fajr", at["Fajr"].AddDate(0, 0, 1), at), nil
	}
	if now.Before(at["Fajr"]) {
		return build("Isha", "Fajr", at["Fajr"], at), nil
	}

	// The gap between Sunrise and Dhuhr: no active window, count toward
	// the earliest prayer strictly after now, defaulting to next-day Fajr.
	for _, name := range times.PrayerNames {
		if at[name].After(now) {
			return build("", name, at[name], at), nil
		}
	}
	return build("", "Fajr", at["Fajr"].AddDate(0, 0, 1), at), nil
}

func targetName(end time.Time, at map[string]time.Time) string {
	for _, name := range times.CanonicalOrder {
		if at[name].Equal(end) {
			return name
		}
	}
	return ""
}

func build(window, target string, boundary time.Time, at map[string]time.Time) Resolution {
	label := NextPrayerLabel
	if window != "" {
		label = window + " ends in"
	}
	return Resolution{
		CurrentWindow:    window,
		Target:           target,
		Boundary:         boundary,
		PreviousBoundary: previousBoundary(target, boundary, at),
		Label:            label,
	}
}

// previousBoundary finds the boundary of the prayer preceding the target.
// Sunrise ends Fajr, so its predecessor is Fajr; otherwise the predecessor
// is the previous entry in the five-prayer order. A predecessor falling
// after the target belongs to the previous day and is shifted back.
func previousBoundary(target string, boundary time.Time, at map[string]time.Time) time.Time {
	var prev time.Time
	if target == "Sunrise" {
		prev = at["Fajr"]
	} else {
		idx := 0
		for i, name := range times.PrayerNames {
			if name == target {
				idx = i
				break
			}
		}
		prev = at[times.PrayerNames[(idx-1+len(times.PrayerNames))%len(times.PrayerNames)]]
	}
	if prev.After(boundary) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}
