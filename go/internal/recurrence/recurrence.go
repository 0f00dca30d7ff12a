// Package recurrence computes the next calendar occurrence of a recurring
// game. Monthly recurrence is aligned to the nth weekday of the month
// (e.g. "3rd Tuesday") rather than the day number.
package recurrence

import (
	"errors"
	"time"

	"github.com/mcdev12/matchday/go/internal/models"
)

// ErrUnknownRecurrence indicates the recurrence type is not one the
// scheduler understands. Callers log it and abandon the series for that
// game; it never propagates as a crash.
var ErrUnknownRecurrence = errors.New("recurrence: unknown recurrence type")

// ErrNoRecurrence indicates the game does not repeat.
var ErrNoRecurrence = errors.New("recurrence: game does not repeat")

// NextDate returns the date of the next occurrence after the given one.
//
//   - weekly: +7 days
//   - biweekly: +14 days
//   - monthly: the same nth occurrence of the weekday in the next month;
//     when that ordinal does not exist there, the last occurrence of the
//     weekday in that month. A game on the 5th Friday of March therefore
//     lands on the last Friday of April, not in May.
func NextDate(date time.Time, r models.RecurrenceType) (time.Time, error) {
	switch r {
	case models.RecurrenceWeekly:
		return date.AddDate(0, 0, 7), nil
	case models.RecurrenceBiweekly:
		return date.AddDate(0, 0, 14), nil
	case models.RecurrenceMonthly:
		return nextMonthlyDate(date), nil
	case models.RecurrenceNone:
		return time.Time{}, ErrNoRecurrence
	default:
		return time.Time{}, ErrUnknownRecurrence
	}
}

func nextMonthlyDate(date time.Time) time.Time {
	weekday := date.Weekday()
	ordinal := (date.Day()-1)/7 + 1

	// First day of the month after date's month.
	year, month, _ := date.Date()
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, 0)

	candidate := nthWeekdayOfMonth(firstOfNext, weekday, ordinal)
	if candidate.Month() != firstOfNext.Month() {
		candidate = lastWeekdayOfMonth(firstOfNext, weekday)
	}
	return candidate
}

// nthWeekdayOfMonth returns the nth given weekday counting from the first
// of the month firstOfMonth falls in. The result may overflow into the
// following month when the ordinal does not exist.
func nthWeekdayOfMonth(firstOfMonth time.Time, weekday time.Weekday, n int) time.Time {
	offset := (int(weekday) - int(firstOfMonth.Weekday()) + 7) % 7
	return firstOfMonth.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekdayOfMonth(firstOfMonth time.Time, weekday time.Weekday) time.Time {
	last := nthWeekdayOfMonth(firstOfMonth, weekday, 5)
	if last.Month() != firstOfMonth.Month() {
		last = last.AddDate(0, 0, -7)
	}
	return last
}
