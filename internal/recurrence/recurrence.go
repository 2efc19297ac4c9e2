// Package recurrence computes the next concrete occurrence of a repeating
// meeting strictly at or after a supplied reference time. Resolution is a
// pure function of (rule, wall-clock time, now); it never reads the system
// clock itself.
package recurrence

import (
	"sort"
	"time"

	"plancal/internal/dates"
)

type Kind string

const (
	KindNone    Kind = "none"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindYearly  Kind = "yearly"
)

// Rule describes how a meeting repeats. Field usage depends on Kind:
//
//   - Weekly:  DaysOfWeek, indices 0 (Monday) .. 6 (Sunday)
//   - Monthly: DaysOfMonth, values 1..31
//   - Yearly:  Month (0-based, 0 = January) and Day
type Rule struct {
	Kind        Kind
	DaysOfWeek  []int
	DaysOfMonth []int
	Month       int
	Day         int
}

// weeklyScanDays covers any weekly pattern with margin: the next selected
// weekday is at most 7 days out, 13 when today's slot has already passed.
const weeklyScanDays = 14

// Next resolves the first occurrence of rule at startsAt o'clock that is at
// or after now. An occurrence exactly equal to now is valid. It returns
// ok=false when the rule is KindNone, the day selection is empty, or
// startsAt is not a valid HH:MM string (no occurrence can be computed
// without a valid time).
func Next(rule Rule, startsAt string, now time.Time) (time.Time, bool) {
	tod, ok := dates.ParseTimeOfDay(startsAt)
	if !ok {
		return time.Time{}, false
	}

	switch rule.Kind {
	case KindWeekly:
		return nextWeekly(rule.DaysOfWeek, tod, now)
	case KindMonthly:
		return nextMonthly(rule.DaysOfMonth, tod, now)
	case KindYearly:
		return nextYearly(rule.Month, rule.Day, tod, now)
	default:
		return time.Time{}, false
	}
}

func nextWeekly(daysOfWeek []int, tod dates.TimeOfDay, now time.Time) (time.Time, bool) {
	if len(daysOfWeek) == 0 {
		return time.Time{}, false
	}

	// Selected days arrive Monday-based (0..6); shift to Go's Sunday-based
	// weekday numbering for comparison.
	selected := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		if d < 0 || d > 6 {
			continue
		}
		selected[time.Weekday((d+1)%7)] = true
	}
	if len(selected) == 0 {
		return time.Time{}, false
	}

	today := dates.Today(now)
	for offset := 0; offset < weeklyScanDays; offset++ {
		day := today.AddDays(offset)
		if !selected[day.Weekday()] {
			continue
		}
		candidate := day.At(tod, now.Location())
		// Today's slot counts only if its time has not already passed.
		if offset == 0 && candidate.Before(now) {
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

func nextMonthly(daysOfMonth []int, tod dates.TimeOfDay, now time.Time) (time.Time, bool) {
	if len(daysOfMonth) == 0 {
		return time.Time{}, false
	}

	days := append([]int(nil), daysOfMonth...)
	sort.Ints(days)

	for offset := 0; offset < 12; offset++ {
		// time.Date normalizes month overflow into the following year.
		anchor := time.Date(now.Year(), now.Month()+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
		year, month := anchor.Year(), anchor.Month()

		for _, day := range days {
			// A day the month does not have is skipped outright, never
			// clamped or rolled into the next month.
			if !dates.ValidDay(year, month, day) {
				continue
			}
			if offset == 0 {
				if day < now.Day() {
					continue
				}
				candidate := dates.New(year, month, day).At(tod, now.Location())
				if day == now.Day() && candidate.Before(now) {
					continue
				}
				return candidate, true
			}
			return dates.New(year, month, day).At(tod, now.Location()), true
		}
	}
	return time.Time{}, false
}

// nextYearly resolves a yearly rule with a 0-based month. The current
// year's candidate wins when it is at or after now; otherwise next year's
// candidate is tried once. A day the month does not have in the target
// year (e.g. Feb 29 off a leap year) yields no occurrence for that year.
func nextYearly(month0 int, day int, tod dates.TimeOfDay, now time.Time) (time.Time, bool) {
	if month0 < 0 || month0 > 11 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month := time.Month(month0 + 1)

	if dates.ValidDay(now.Year(), month, day) {
		candidate := dates.New(now.Year(), month, day).At(tod, now.Location())
		if !candidate.Before(now) {
			return candidate, true
		}
	}

	next := now.Year() + 1
	if !dates.ValidDay(next, month, day) {
		return time.Time{}, false
	}
	return dates.New(next, month, day).At(tod, now.Location()), true
}
