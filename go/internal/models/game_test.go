package models

import (
	"testing"
	"time"
)

func TestParseGameStatusUnknown(t *testing.T) {
	tests := []struct {
		in   string
		want GameStatus
	}{
		{"SCHEDULED", GameStatusScheduled},
		{"FINISHED", GameStatusFinished},
		{"scheduled", GameStatusUnknown},
		{"", GameStatusUnknown},
		{"PENDENTE", GameStatusUnknown},
	}
	for _, tt := range tests {
		if got := ParseGameStatus(tt.in); got != tt.want {
			t.Errorf("ParseGameStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRecurrenceType(t *testing.T) {
	tests := []struct {
		in   string
		want RecurrenceType
	}{
		{"weekly", RecurrenceWeekly},
		{"biweekly", RecurrenceBiweekly},
		{"monthly", RecurrenceMonthly},
		{"none", RecurrenceNone},
		{"", RecurrenceNone},
		{"quinzenal", RecurrenceUnknown},
	}
	for _, tt := range tests {
		if got := ParseRecurrenceType(tt.in); got != tt.want {
			t.Errorf("ParseRecurrenceType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGameStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to GameStatus
		want     bool
	}{
		{GameStatusScheduled, GameStatusConfirmed, true},
		{GameStatusScheduled, GameStatusLive, true},
		{GameStatusConfirmed, GameStatusLive, true},
		{GameStatusLive, GameStatusFinished, true},
		{GameStatusLive, GameStatusConfirmed, false},
		{GameStatusFinished, GameStatusLive, false},
		// CANCELLED is terminal and reachable from any non-finished state.
		{GameStatusScheduled, GameStatusCancelled, true},
		{GameStatusLive, GameStatusCancelled, true},
		{GameStatusFinished, GameStatusCancelled, false},
		{GameStatusCancelled, GameStatusScheduled, false},
		{GameStatusCancelled, GameStatusCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConfirmationDeadline(t *testing.T) {
	g := &Game{
		Date:                      time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		StartTime:                 "19:30",
		ConfirmationDeadlineHours: 2,
	}
	d := g.ConfirmationDeadline()
	if d == nil {
		t.Fatal("expected a deadline")
	}
	want := time.Date(2024, 6, 4, 17, 30, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("deadline = %v, want %v", d, want)
	}

	g.ConfirmationDeadlineHours = 0
	if g.ConfirmationDeadline() != nil {
		t.Error("expected no deadline when hours is zero")
	}
}
