package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/matchday/go/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDateWeekly(t *testing.T) {
	got, err := NextDate(date(2024, time.June, 4), models.RecurrenceWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if want := date(2024, time.June, 11); !got.Equal(want) {
		t.Errorf("weekly next = %v, want %v", got, want)
	}
}

func TestNextDateBiweekly(t *testing.T) {
	got, err := NextDate(date(2024, time.June, 4), models.RecurrenceBiweekly)
	if err != nil {
		t.Fatal(err)
	}
	if want := date(2024, time.June, 18); !got.Equal(want) {
		t.Errorf("biweekly next = %v, want %v", got, want)
	}
}

func TestNextDateMonthly(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			// 1st Tuesday of June -> 1st Tuesday of July.
			name: "first weekday carries over",
			from: date(2024, time.June, 4),
			want: date(2024, time.July, 2),
		},
		{
			// 3rd Tuesday of June -> 3rd Tuesday of July.
			name: "third weekday carries over",
			from: date(2024, time.June, 18),
			want: date(2024, time.July, 16),
		},
		{
			// March 29 2024 is the 5th (and last) Friday of March. April
			// has only four Fridays, so the series falls back to the last
			// Friday of April.
			name: "fifth weekday falls back to last",
			from: date(2024, time.March, 29),
			want: date(2024, time.April, 26),
		},
		{
			// 5th Thursday of August 2024 -> last Thursday of September.
			name: "fifth weekday falls back across 30-day month",
			from: date(2024, time.August, 29),
			want: date(2024, time.September, 26),
		},
		{
			// Year boundary: 2nd Monday of December -> 2nd Monday of January.
			name: "year rollover",
			from: date(2024, time.December, 9),
			want: date(2025, time.January, 13),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDate(tt.from, models.RecurrenceMonthly)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("monthly next of %v = %v, want %v", tt.from, got, tt.want)
			}
			if got.Weekday() != tt.from.Weekday() {
				t.Errorf("weekday changed: %v -> %v", tt.from.Weekday(), got.Weekday())
			}
		})
	}
}

func TestNextDateErrors(t *testing.T) {
	if _, err := NextDate(date(2024, time.June, 4), models.RecurrenceNone); !errors.Is(err, ErrNoRecurrence) {
		t.Errorf("none: got %v, want ErrNoRecurrence", err)
	}
	if _, err := NextDate(date(2024, time.June, 4), models.RecurrenceUnknown); !errors.Is(err, ErrUnknownRecurrence) {
		t.Errorf("unknown: got %v, want ErrUnknownRecurrence", err)
	}
}
