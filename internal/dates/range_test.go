package dates

import "testing"

func TestNewRangeNormalizes(t *testing.T) {
	a := mustParse(t, "2024-06-07")
	b := mustParse(t, "2024-06-03")

	inverted := NewRange(a, b)
	straight := NewRange(b, a)
	if inverted != straight {
		t.Fatalf("normalization not symmetric: %+v vs %+v", inverted, straight)
	}
	if inverted.Start.After(inverted.End) {
		t.Fatal("range not normalized")
	}
}

func TestRangeWorkdays(t *testing.T) {
	// Monday through Friday: exactly 5 weekdays, no weekend spill.
	r := NewRange(mustParse(t, "2024-06-03"), mustParse(t, "2024-06-07"))
	ds := r.Workdays()
	if len(ds) != 5 {
		t.Fatalf("got %d workdays, want 5", len(ds))
	}
	for _, d := range ds {
		if !d.IsWorkday() {
			t.Errorf("weekend date leaked: %v", d)
		}
	}
	if ds[0].String() != "2024-06-03" || ds[4].String() != "2024-06-07" {
		t.Fatalf("unexpected bounds: %v .. %v", ds[0], ds[4])
	}

	// A full week including the weekend still yields 5 workdays.
	full := NewRange(mustParse(t, "2024-06-01"), mustParse(t, "2024-06-09"))
	if got := len(full.Workdays()); got != 5 {
		t.Fatalf("got %d workdays across full week, want 5", got)
	}

	// Weekend-only range has none.
	weekend := NewRange(mustParse(t, "2024-06-08"), mustParse(t, "2024-06-09"))
	if got := len(weekend.Workdays()); got != 0 {
		t.Fatalf("got %d workdays on a weekend range", got)
	}
}

func TestRangeContainsAndIntersect(t *testing.T) {
	r := NewRange(mustParse(t, "2024-06-03"), mustParse(t, "2024-06-05"))
	if !r.Contains(mustParse(t, "2024-06-03")) || !r.Contains(mustParse(t, "2024-06-05")) {
		t.Fatal("closed interval bounds must be contained")
	}
	if r.Contains(mustParse(t, "2024-06-06")) {
		t.Fatal("date past end contained")
	}

	in := []CalendarDate{
		mustParse(t, "2024-06-02"),
		mustParse(t, "2024-06-04"),
		mustParse(t, "2024-06-09"),
	}
	got := r.Intersect(in)
	if len(got) != 1 || got[0].String() != "2024-06-04" {
		t.Fatalf("unexpected intersection: %v", got)
	}
}
