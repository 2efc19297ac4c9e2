// Package agg projects heterogeneous work items onto a concrete Monday-start
// week: it expands date ranges and recurrences, computes per-date assignee
// sets, resolves organization-wide leave coverage and classifies everything
// into the fixed bucket lanes of the weekly view.
package agg

import (
	"plancal/internal/dates"
)

// Bucket is one semantic lane of the weekly view. The taxonomy is closed;
// classification is never ambiguous.
type Bucket string

const (
	BucketDelay           Bucket = "delay"
	BucketAbsence         Bucket = "absence"
	BucketLeave           Bucket = "leave"
	BucketBlocked         Bucket = "blocked"
	BucketOneHour         Bucket = "one_hour"
	BucketPersonal        Bucket = "personal"
	BucketExternalMeeting Bucket = "external_meeting"
	BucketInternalMeeting Bucket = "internal_meeting"
	BucketAlignment       Bucket = "alignment"
	BucketResults         Bucket = "results"
	BucketPriorityProject Bucket = "priority_project"
	BucketProblem         Bucket = "problem"
	BucketFeedback        Bucket = "feedback"
)

// AllBuckets lists every lane in display order.
var AllBuckets = []Bucket{
	BucketDelay,
	BucketAbsence,
	BucketLeave,
	BucketBlocked,
	BucketOneHour,
	BucketPersonal,
	BucketExternalMeeting,
	BucketInternalMeeting,
	BucketAlignment,
	BucketResults,
	BucketPriorityProject,
	BucketProblem,
	BucketFeedback,
}

// ParseBucket maps a bucket id string to its Bucket, reporting whether the
// id is part of the taxonomy.
func ParseBucket(s string) (Bucket, bool) {
	b := Bucket(s)
	for _, known := range AllBuckets {
		if b == known {
			return b, true
		}
	}
	return "", false
}

// WorkItem is one classified entry attached to concrete week dates. Items
// are value snapshots built fresh per aggregation pass and never mutated.
type WorkItem struct {
	ID     string
	Bucket Bucket
	Title  string
	Note   string

	// Dates are the week dates the item occupies, ascending.
	Dates []dates.CalendarDate

	// AssigneesByDate carries, per date, the people whose work actually
	// falls on that date (not the owning entity's overall assignee set).
	AssigneesByDate map[dates.CalendarDate][]string

	Start    dates.TimeOfDay
	HasStart bool
	Until    dates.TimeOfDay
	HasUntil bool

	// Span is the full covered interval for multi-day leave, kept so a
	// span remains visible even when its start date is filtered out.
	Span    dates.DateRange
	HasSpan bool

	// AllUsers marks organization-wide leave entries and synthetic
	// fully-covered markers.
	AllUsers bool
}

// AggregatedWeek is the immutable result of one aggregation pass. A new
// pass replaces the previous value wholesale; nothing is patched in place.
type AggregatedWeek struct {
	WeekStart  dates.CalendarDate
	Window     dates.DateRange
	Generation uint64

	Buckets map[Bucket][]WorkItem

	// FullyCovered holds the dates on which every active user is on leave.
	FullyCovered map[dates.CalendarDate]bool

	// Failed records upstream categories that did not load this pass;
	// their buckets are empty rather than stale.
	Failed map[string]error

	// Stale records categories whose data came from the fetch cache
	// because the upstream was unreachable; the data is shown but the
	// week must not present as complete and current.
	Stale map[string]bool
}

// Partial reports whether the pass is missing or serving stale data for
// any upstream category.
func (w *AggregatedWeek) Partial() bool {
	return len(w.Failed) > 0 || len(w.Stale) > 0
}
