package agg

import (
	"testing"

	"plancal/internal/dates"
	"plancal/internal/upstream"
)

func fullDayLeave(userID, start, end string) upstream.LeaveEntry {
	return upstream.LeaveEntry{
		ID:        "leave-" + userID,
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		FullDay:   true,
	}
}

func TestFullyCoveredAllUsersIndividually(t *testing.T) {
	// 6 active users, one interval each covering 2024-06-10.
	active := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	var leaves []upstream.LeaveEntry
	for _, id := range active {
		leaves = append(leaves, fullDayLeave(id, "2024-06-10", "2024-06-10"))
	}
	day := date(t, "2024-06-10")

	covered := FullyCoveredDates(leaves, active, []dates.CalendarDate{day})
	if !covered[day] {
		t.Fatal("expected 2024-06-10 fully covered")
	}

	// Removing one interval removes the date.
	covered = FullyCoveredDates(leaves[:5], active, []dates.CalendarDate{day})
	if covered[day] {
		t.Fatal("date must not be covered with one user missing")
	}
}

func TestFullyCoveredEmptyRoster(t *testing.T) {
	// Vacuous non-coverage: no active users means no covered dates.
	leaves := []upstream.LeaveEntry{fullDayLeave("u1", "2024-06-10", "2024-06-12")}
	covered := FullyCoveredDates(leaves, nil, []dates.CalendarDate{date(t, "2024-06-10")})
	if len(covered) != 0 {
		t.Fatalf("expected empty set, got %v", covered)
	}
}

func TestFullyCoveredAllUsersMarker(t *testing.T) {
	leaves := []upstream.LeaveEntry{{
		ID:        "org-holiday",
		AllUsers:  true,
		StartDate: "2024-06-10",
		EndDate:   "2024-06-11",
		FullDay:   true,
	}}
	active := []string{"u1", "u2", "u3"}
	candidates := []dates.CalendarDate{
		date(t, "2024-06-09"),
		date(t, "2024-06-10"),
		date(t, "2024-06-11"),
		date(t, "2024-06-12"),
	}

	covered := FullyCoveredDates(leaves, active, candidates)
	if !covered[date(t, "2024-06-10")] || !covered[date(t, "2024-06-11")] {
		t.Fatalf("marker interval must cover its span: %v", covered)
	}
	if covered[date(t, "2024-06-09")] || covered[date(t, "2024-06-12")] {
		t.Fatalf("dates outside the span covered: %v", covered)
	}
}

func TestFullyCoveredTimeFieldsDoNotShrinkDays(t *testing.T) {
	// Partial-day leave still covers the whole day at day-level.
	leaves := []upstream.LeaveEntry{{
		ID:        "half",
		UserID:    "u1",
		StartDate: "2024-06-10",
		EndDate:   "2024-06-10",
		FullDay:   false,
		From:      "12:00",
		To:        "16:00",
	}}
	day := date(t, "2024-06-10")
	covered := FullyCoveredDates(leaves, []string{"u1"}, []dates.CalendarDate{day})
	if !covered[day] {
		t.Fatal("partial-day leave must still count for day-level coverage")
	}
}

func TestFullyCoveredInactiveUsersIgnored(t *testing.T) {
	// An interval of a user outside the active roster contributes nothing.
	leaves := []upstream.LeaveEntry{
		fullDayLeave("u1", "2024-06-10", "2024-06-10"),
		fullDayLeave("ghost", "2024-06-10", "2024-06-10"),
	}
	day := date(t, "2024-06-10")
	covered := FullyCoveredDates(leaves, []string{"u1", "u2"}, []dates.CalendarDate{day})
	if covered[day] {
		t.Fatal("u2 has no leave; date must not be covered")
	}
}

func TestDedupeAllUsers(t *testing.T) {
	entry := upstream.LeaveEntry{
		AllUsers:  true,
		StartDate: "2024-06-10",
		EndDate:   "2024-06-11",
		FullDay:   true,
		Note:      "company retreat",
	}
	other := entry
	other.ID = "second-copy"

	personal := fullDayLeave("u1", "2024-06-10", "2024-06-10")
	personalCopy := personal // same person twice is NOT deduplicated

	out := DedupeAllUsers([]upstream.LeaveEntry{entry, personal, other, personalCopy})
	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(out), out)
	}

	// A differing note is a different organizational event.
	different := entry
	different.Note = "office move"
	out = DedupeAllUsers([]upstream.LeaveEntry{entry, different})
	if len(out) != 2 {
		t.Fatalf("distinct notes must not dedupe: %+v", out)
	}
}
