package models

import (
	"testing"
	"time"
)

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"just now", now, "0m ago"},
		{"future clamps to zero", now.Add(2 * time.Minute), "0m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"under a day", now.Add(-23 * time.Hour), "23h ago"},
	}

	for _, tc := range cases {
		if got := FormatRelativeTime(tc.ts, now); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}

	// Older than a day falls back to a clock time.
	old := FormatRelativeTime(now.Add(-26*time.Hour), now)
	if len(old) != 5 || old[2] != ':' {
		t.Errorf("expected HH:MM clock time, got %q", old)
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 200); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}
	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'x')
	}
	if got := TruncateText(string(long), 200); len([]rune(got)) != 200 {
		t.Errorf("expected 200 runes, got %d", len([]rune(got)))
	}
}
