package agg

import (
	"testing"

	"plancal/internal/dates"
	"plancal/internal/upstream"
)

// coveredWeek builds a week where 2024-06-04 is fully covered and other
// buckets carry items on and around it.
func coveredWeek(t *testing.T) *AggregatedWeek {
	t.Helper()
	ws := weekStart(t)
	in := inputs(dates.NewRange(ws, ws.AddDays(6)))
	in.Users = []upstream.User{{ID: "u1", Name: "Ana", IsActive: true}}
	in.Leaves = []upstream.LeaveEntry{
		{ID: "l1", UserID: "u1", StartDate: "2024-06-04", EndDate: "2024-06-04", FullDay: true},
	}
	in.Tasks = []upstream.Task{
		{ID: "t1", IsBlocked: true, StartDate: "2024-06-03", DueDate: "2024-06-05"},
		{ID: "t2", IsPersonal: true, PlannedFor: "2024-06-04"},
	}
	return Aggregate(ws, in, nil, testOptions())
}

func TestFilterDefaultsToWholeWeekAndAllTypes(t *testing.T) {
	week := coveredWeek(t)
	out := FilterForDisplay(week, Selection{})

	if len(out) != len(AllBuckets) {
		t.Fatalf("expected all %d buckets, got %d", len(AllBuckets), len(out))
	}
	if len(out[BucketBlocked]) != 1 {
		t.Fatalf("blocked: %+v", out[BucketBlocked])
	}
}

func TestFilterSuppressesFullyCoveredDates(t *testing.T) {
	week := coveredWeek(t)
	out := FilterForDisplay(week, Selection{})

	// t1 spans Mon-Wed; the covered Tuesday disappears from it.
	blocked := out[BucketBlocked]
	if len(blocked) != 1 {
		t.Fatalf("blocked: %+v", blocked)
	}
	for _, d := range blocked[0].Dates {
		if d.String() == "2024-06-04" {
			t.Fatal("fully covered date not suppressed")
		}
	}
	if len(blocked[0].Dates) != 2 {
		t.Fatalf("expected Mon and Wed, got %v", blocked[0].Dates)
	}

	// t2 only existed on the covered date: dropped entirely.
	if len(out[BucketPersonal]) != 0 {
		t.Fatalf("personal item on covered date survived: %+v", out[BucketPersonal])
	}

	// The original snapshot is untouched.
	if len(week.Buckets[BucketBlocked][0].Dates) != 3 {
		t.Fatal("filter mutated the aggregated snapshot")
	}
}

func TestFilterSyntheticAllUsersMarker(t *testing.T) {
	week := coveredWeek(t)
	out := FilterForDisplay(week, Selection{})

	var markers int
	for _, item := range out[BucketLeave] {
		if item.AllUsers && len(item.Dates) == 1 && item.Dates[0].String() == "2024-06-04" {
			markers++
		}
	}
	if markers != 1 {
		t.Fatalf("expected exactly one synthetic marker, got %d: %+v", markers, out[BucketLeave])
	}

	// Filtering twice yields the same output (no hidden randomness).
	again := FilterForDisplay(week, Selection{})
	if len(again[BucketLeave]) != len(out[BucketLeave]) {
		t.Fatal("filter output not reproducible")
	}
}

func TestFilterNoDuplicateMarkerForOrgWideLeave(t *testing.T) {
	ws := weekStart(t)
	in := inputs(dates.NewRange(ws, ws.AddDays(6)))
	in.Users = []upstream.User{{ID: "u1", Name: "Ana", IsActive: true}}
	in.Leaves = []upstream.LeaveEntry{
		{ID: "org", AllUsers: true, StartDate: "2024-06-04", EndDate: "2024-06-04", FullDay: true, Note: "holiday"},
	}
	week := Aggregate(ws, in, nil, testOptions())
	out := FilterForDisplay(week, Selection{})

	var allUsers int
	for _, item := range out[BucketLeave] {
		if item.AllUsers {
			allUsers++
		}
	}
	if allUsers != 1 {
		t.Fatalf("org-wide entry must not gain a duplicate marker: %+v", out[BucketLeave])
	}
}

func TestFilterMultiDayLeaveVisibleByAnyDate(t *testing.T) {
	ws := weekStart(t)
	in := inputs(dates.NewRange(ws, ws.AddDays(6)))
	in.Users = []upstream.User{
		{ID: "u1", Name: "Ana", IsActive: true},
		{ID: "u2", Name: "Bo", IsActive: true},
	}
	// Leave spans Mon-Wed; selection is Wednesday only.
	in.Leaves = []upstream.LeaveEntry{
		{ID: "l1", UserID: "u1", StartDate: "2024-06-03", EndDate: "2024-06-05", FullDay: true},
	}
	week := Aggregate(ws, in, nil, testOptions())

	out := FilterForDisplay(week, Selection{Dates: []dates.CalendarDate{date(t, "2024-06-05")}})
	leave := out[BucketLeave]
	if len(leave) != 1 {
		t.Fatalf("multi-day leave not visible via intersecting date: %+v", leave)
	}
	// The span is preserved, start date outside the selection included.
	if leave[0].Span.Start.String() != "2024-06-03" || len(leave[0].Dates) != 3 {
		t.Fatalf("span trimmed: %+v", leave[0])
	}

	// A selection missing every covered date hides it.
	out = FilterForDisplay(week, Selection{Dates: []dates.CalendarDate{date(t, "2024-06-07")}})
	if len(out[BucketLeave]) != 0 {
		t.Fatalf("leave visible without any intersecting date: %+v", out[BucketLeave])
	}
}

func TestFilterTypeSelection(t *testing.T) {
	week := coveredWeek(t)
	out := FilterForDisplay(week, Selection{Types: []Bucket{BucketBlocked}})

	if len(out) != 1 {
		t.Fatalf("expected only the selected bucket, got %d", len(out))
	}
	if _, ok := out[BucketBlocked]; !ok {
		t.Fatal("selected bucket missing")
	}
}

func TestParseBucket(t *testing.T) {
	if b, ok := ParseBucket("leave"); !ok || b != BucketLeave {
		t.Fatal("known bucket rejected")
	}
	if _, ok := ParseBucket("nonsense"); ok {
		t.Fatal("unknown bucket accepted")
	}
}
