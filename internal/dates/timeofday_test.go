package dates

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		hour   int
		minute int
	}{
		{"09:00", true, 9, 0},
		{"00:00", true, 0, 0},
		{"23:59", true, 23, 59},
		{" 10:30 ", true, 10, 30},
		{"24:00", false, 0, 0},
		{"12:60", false, 0, 0},
		{"9:00", false, 0, 0},  // single-digit hour is not HH:MM
		{"09:0", false, 0, 0},
		{"09.00", false, 0, 0},
		{"", false, 0, 0},
		{"ab:cd", false, 0, 0},
	}
	for _, c := range cases {
		tod, ok := ParseTimeOfDay(c.in)
		if ok != c.ok {
			t.Errorf("%q: ok=%v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && (tod.Hour != c.hour || tod.Minute != c.minute) {
			t.Errorf("%q: got %v", c.in, tod)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	tod, _ := ParseTimeOfDay("09:05")
	if tod.String() != "09:05" {
		t.Fatalf("got %q", tod.String())
	}
	if tod.Minutes() != 545 {
		t.Fatalf("got %d minutes", tod.Minutes())
	}
}
