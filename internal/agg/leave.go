package agg

import (
	"plancal/internal/dates"
	"plancal/internal/upstream"
)

// leaveSpan resolves a leave entry's covered date interval. The zero range
// (and ok=false) is returned when neither bound parses.
func leaveSpan(e upstream.LeaveEntry) (dates.DateRange, bool) {
	start := dates.ParseAny(e.StartDate)
	end := dates.ParseAny(e.EndDate)
	switch {
	case start.IsZero() && end.IsZero():
		return dates.DateRange{}, false
	case start.IsZero():
		start = end
	case end.IsZero():
		end = start
	}
	return dates.NewRange(start, end), true
}

// DedupeAllUsers collapses organization-wide leave entries that share
// identical (start, end, fullDay, from, to, note) into one: they describe
// a single organizational event, not N personal ones. Personal entries
// pass through untouched; order is preserved.
func DedupeAllUsers(entries []upstream.LeaveEntry) []upstream.LeaveEntry {
	type key struct {
		start, end, from, to, note string
		fullDay                    bool
	}
	seen := make(map[key]bool)
	out := make([]upstream.LeaveEntry, 0, len(entries))
	for _, e := range entries {
		if !e.AllUsers {
			out = append(out, e)
			continue
		}
		k := key{e.StartDate, e.EndDate, e.From, e.To, e.Note, e.FullDay}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// FullyCoveredDates returns the candidate dates on which every active user
// has at least one leave interval containing the date. Coverage is
// day-level: the optional from/to times never shrink a day. An empty
// active roster covers nothing.
//
// The result depends only on the three inputs; no iteration-order effects.
func FullyCoveredDates(entries []upstream.LeaveEntry, activeUserIDs []string, candidates []dates.CalendarDate) map[dates.CalendarDate]bool {
	covered := make(map[dates.CalendarDate]bool)
	if len(activeUserIDs) == 0 {
		return covered
	}

	active := make(map[string]bool, len(activeUserIDs))
	for _, id := range activeUserIDs {
		active[id] = true
	}

	for _, day := range candidates {
		onLeave := make(map[string]bool)
		allUsers := false
		for _, e := range entries {
			span, ok := leaveSpan(e)
			if !ok || !span.Contains(day) {
				continue
			}
			if e.AllUsers {
				allUsers = true
				break
			}
			if active[e.UserID] {
				onLeave[e.UserID] = true
			}
		}
		if allUsers || len(onLeave) >= len(active) {
			covered[day] = true
		}
	}
	return covered
}
