package times

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalOrder lists the six daily events in chronological order.
// Sunrise is a boundary only; it ends Fajr without being a prayer itself.
var CanonicalOrder = []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// PrayerNames are the five daily prayers, in order.
var PrayerNames = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// PrayerTimeSet maps an event name to its time of day as a 24-hour "HH:MM"
// string, possibly suffixed with an annotation like " (BST)".
type PrayerTimeSet map[string]string

// Validate checks that all six canonical events are present and that their
// times are non-decreasing across the canonical order within one day.
func (s PrayerTimeSet) Validate() error {
	day := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	var prev time.Time
	for i, name := range CanonicalOrder {
		raw, ok := s[name]
		if !ok {
			return fmt.Errorf("missing event %q", name)
		}
		t, err := ParseClock(raw, day, time.UTC)
		if err != nil {
			return fmt.Errorf("event %q: %w", name, err)
		}
		if i > 0 && t.Before(prev) {
			return fmt.Errorf("event %q (%s) precedes %q", name, raw, CanonicalOrder[i-1])
		}
		prev = t
	}
	return nil
}

// At resolves the named event to an instant on the given calendar day.
func (s PrayerTimeSet) At(name string, day time.Time, loc *time.Location) (time.Time, error) {
	raw, ok := s[name]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown event %q", name)
	}
	return ParseClock(raw, day, loc)
}

// ParseClock parses a time string like "15:02" or "15:02 (BST)" into a
// time.Time on the given date in the given location. Any suffix after the
// first space is an annotation the upstream API sometimes appends and is
// ignored.
func ParseClock(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}

// FormatClock renders an instant as a 24-hour "HH:MM" string.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// Format12Hour renders an instant as 12-hour display text, e.g. "1:05 PM".
func Format12Hour(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatRemaining renders a duration as zero-padded "HH:MM:SS", clamping
// negative values to zero.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
