package dates

// DateRange is an inclusive start/end pair. Construct through NewRange so
// the start <= end invariant always holds.
type DateRange struct {
	Start CalendarDate
	End   CalendarDate
}

// NewRange builds a normalized range, swapping the bounds when they arrive
// inverted.
func NewRange(a, b CalendarDate) DateRange {
	if a.After(b) {
		a, b = b, a
	}
	return DateRange{Start: a, End: b}
}

// Contains reports whether d falls inside the closed interval.
func (r DateRange) Contains(d CalendarDate) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Dates returns every date in the range, ascending.
func (r DateRange) Dates() []CalendarDate {
	n := r.Start.DaysBetween(r.End) + 1
	if n < 1 {
		return nil
	}
	return WeekDates(r.Start, n)
}

// Workdays returns the Monday-through-Friday dates in the range, ascending.
func (r DateRange) Workdays() []CalendarDate {
	var out []CalendarDate
	for _, d := range r.Dates() {
		if d.IsWorkday() {
			out = append(out, d)
		}
	}
	return out
}

// Intersect keeps only the dates of ds that fall inside the range,
// preserving order.
func (r DateRange) Intersect(ds []CalendarDate) []CalendarDate {
	var out []CalendarDate
	for _, d := range ds {
		if r.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}
