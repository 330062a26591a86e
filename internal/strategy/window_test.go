package strategy

import (
	"errors"
	"testing"
	"time"

	"SilverSnap/internal/model"
)

func TestClockWindow_Contains(t *testing.T) {
	loc := eastern(t)
	w, err := NewClockWindow("11:30", "12:30", loc)
	if err != nil {
		t.Fatalf("NewClockWindow: %v", err)
	}

	tests := []struct {
		name string
		hour int
		min  int
		want bool
	}{
		{"before", 11, 29, false},
		{"start boundary", 11, 30, true},
		{"middle", 12, 0, true},
		{"end boundary", 12, 30, true},
		{"after", 12, 31, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := time.Date(2026, 3, 2, tt.hour, tt.min, 0, 0, loc)
			if got := w.Contains(at); got != tt.want {
				t.Errorf("Contains(%02d:%02d) = %v, want %v", tt.hour, tt.min, got, tt.want)
			}
		})
	}
}

func TestClockWindow_ConvertsTimezone(t *testing.T) {
	loc := eastern(t)
	w, err := NewClockWindow("11:30", "12:30", loc)
	if err != nil {
		t.Fatalf("NewClockWindow: %v", err)
	}
	// 17:00 UTC on a winter date is noon Eastern.
	if !w.Contains(time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)) {
		t.Error("expected 17:00 UTC to fall inside the Eastern 11:30-12:30 window")
	}
}

func TestNewClockWindow_Invalid(t *testing.T) {
	loc := eastern(t)
	for _, tt := range []struct{ start, end string }{
		{"nope", "12:30"},
		{"11:30", "99:00"},
		{"13:00", "12:00"},
	} {
		if _, err := NewClockWindow(tt.start, tt.end, loc); !errors.Is(err, model.ErrInvalidConfiguration) {
			t.Errorf("(%q, %q): expected ErrInvalidConfiguration, got %v", tt.start, tt.end, err)
		}
	}
}
