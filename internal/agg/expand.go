package agg

import (
	"plancal/internal/dates"
	"plancal/internal/upstream"
)

// ExpandOptions controls range expansion for one task.
type ExpandOptions struct {
	// SingleDayOnly collapses the task to one resolved date regardless of
	// its range; used for phases that denote single-day commitments.
	SingleDayOnly bool
}

// ExpandTaskDates produces the week-agnostic, finite, ascending set of
// dates a task occupies. Callers intersect the result with their window.
//
// With both bounds present the normalized [start,due] range expands to its
// Monday-Friday dates; a range holding no weekday falls back to [start] so
// a valid range never expands to nothing. With fewer than two bounds, or
// in single-day mode, one date is resolved by field priority: plannedFor,
// then dueDate, then startDate, then the creation date, then today.
func ExpandTaskDates(t upstream.Task, opts ExpandOptions, today dates.CalendarDate) []dates.CalendarDate {
	if opts.SingleDayOnly {
		return []dates.CalendarDate{resolveSingleDay(t, today)}
	}

	start := dates.ParseAny(t.StartDate)
	due := dates.ParseAny(t.DueDate)
	if start.IsZero() || due.IsZero() {
		return []dates.CalendarDate{resolveSingleDay(t, today)}
	}

	r := dates.NewRange(start, due)
	workdays := r.Workdays()
	if len(workdays) == 0 {
		// Weekend-only range; surface the start rather than nothing.
		return []dates.CalendarDate{r.Start}
	}
	return workdays
}

func resolveSingleDay(t upstream.Task, today dates.CalendarDate) dates.CalendarDate {
	for _, field := range []string{t.PlannedFor, t.DueDate, t.StartDate, t.CreatedAt} {
		if d := dates.ParseAny(field); !d.IsZero() {
			return d
		}
	}
	return today
}
