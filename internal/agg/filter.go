package agg

import (
	"plancal/internal/dates"
)

// Selection narrows the week view. Empty Dates means the whole week;
// empty Types means every bucket.
type Selection struct {
	Dates []dates.CalendarDate
	Types []Bucket
}

// FilterForDisplay applies the selection to an aggregated week.
//
// On a fully covered date the organization is entirely on leave, so every
// non-leave item loses that date (and disappears once no date remains);
// the leave lane instead carries one synthetic all-users marker per such
// date, unless an organization-wide leave entry already spans it. Leave
// spans stay visible whenever any covered date intersects the selection,
// even with the start date outside it.
func FilterForDisplay(week *AggregatedWeek, sel Selection) map[Bucket][]WorkItem {
	selectedDates := make(map[dates.CalendarDate]bool)
	if len(sel.Dates) == 0 {
		for _, d := range week.Window.Dates() {
			selectedDates[d] = true
		}
	} else {
		for _, d := range sel.Dates {
			selectedDates[d] = true
		}
	}

	selectedTypes := make(map[Bucket]bool)
	if len(sel.Types) == 0 {
		for _, b := range AllBuckets {
			selectedTypes[b] = true
		}
	} else {
		for _, b := range sel.Types {
			selectedTypes[b] = true
		}
	}

	out := make(map[Bucket][]WorkItem)
	for _, bucket := range AllBuckets {
		if !selectedTypes[bucket] {
			continue
		}
		if bucket == BucketLeave {
			out[bucket] = filterLeave(week, selectedDates)
			continue
		}
		filtered := make([]WorkItem, 0)
		for _, item := range week.Buckets[bucket] {
			kept := keepDates(item.Dates, selectedDates, week.FullyCovered)
			if len(kept) == 0 {
				continue
			}
			filtered = append(filtered, trimmed(item, kept))
		}
		out[bucket] = filtered
	}
	return out
}

func filterLeave(week *AggregatedWeek, selectedDates map[dates.CalendarDate]bool) []WorkItem {
	items := make([]WorkItem, 0)

	// Dates already represented by an organization-wide entry; those dates
	// need no extra synthetic marker.
	allUsersDates := make(map[dates.CalendarDate]bool)

	for _, item := range week.Buckets[BucketLeave] {
		if !intersects(item.Dates, selectedDates) {
			continue
		}
		// Leave items keep their full in-window date set so multi-day
		// spans render correctly.
		items = append(items, item)
		if item.AllUsers {
			for _, d := range item.Dates {
				allUsersDates[d] = true
			}
		}
	}

	for _, d := range week.Window.Dates() {
		if !week.FullyCovered[d] || !selectedDates[d] || allUsersDates[d] {
			continue
		}
		items = append(items, syntheticAllUsersMarker(d))
	}

	sortItems(items)
	return items
}

// syntheticAllUsersMarker builds the single entry shown for a date the
// whole organization is on leave. The id is derived from the date so the
// filter output stays reproducible.
func syntheticAllUsersMarker(d dates.CalendarDate) WorkItem {
	return WorkItem{
		ID:       "all-users-leave/" + d.String(),
		Bucket:   BucketLeave,
		Title:    "All users",
		Dates:    []dates.CalendarDate{d},
		Span:     dates.NewRange(d, d),
		HasSpan:  true,
		AllUsers: true,
	}
}

func keepDates(ds []dates.CalendarDate, selected, suppressed map[dates.CalendarDate]bool) []dates.CalendarDate {
	var out []dates.CalendarDate
	for _, d := range ds {
		if selected[d] && !suppressed[d] {
			out = append(out, d)
		}
	}
	return out
}

func intersects(ds []dates.CalendarDate, selected map[dates.CalendarDate]bool) bool {
	for _, d := range ds {
		if selected[d] {
			return true
		}
	}
	return false
}

// trimmed returns a copy of item narrowed to the kept dates. The source
// item is never mutated; snapshots stay read-only for every consumer.
func trimmed(item WorkItem, kept []dates.CalendarDate) WorkItem {
	out := item
	out.Dates = kept
	if item.AssigneesByDate != nil {
		out.AssigneesByDate = make(map[dates.CalendarDate][]string, len(kept))
		for _, d := range kept {
			if names, ok := item.AssigneesByDate[d]; ok {
				out.AssigneesByDate[d] = names
			}
		}
	}
	return out
}
