package dates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarDate is a date value with no time component. It is always built
// from local year/month/day parts; it is never derived from a UTC-shifted
// timestamp, so "2024-06-03" means June 3rd no matter which zone the host
// runs in.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a CalendarDate, normalizing out-of-range components the way
// time.Date does (e.g. Jan 32 becomes Feb 1).
func New(year int, month time.Month, day int) CalendarDate {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today extracts the calendar date of now in now's own location.
func Today(now time.Time) CalendarDate {
	return CalendarDate{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

// Parse parses a strict YYYY-MM-DD string. Dates that do not exist on the
// calendar (e.g. 2023-02-29) are rejected.
func Parse(s string) (CalendarDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return CalendarDate{}, fmt.Errorf("dates: invalid date %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("dates: invalid year in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("dates: invalid month in %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return CalendarDate{}, fmt.Errorf("dates: invalid day in %q", s)
	}
	if month < 1 || month > 12 {
		return CalendarDate{}, fmt.Errorf("dates: month out of range in %q", s)
	}
	if day < 1 || day > DaysInMonth(year, time.Month(month)) {
		return CalendarDate{}, fmt.Errorf("dates: day out of range in %q", s)
	}
	return CalendarDate{Year: year, Month: time.Month(month), Day: day}, nil
}

// ParseAny parses a YYYY-MM-DD string, tolerating a trailing time portion
// (RFC3339 timestamps from the upstream API); only the date part is kept.
// The zero CalendarDate is returned for anything unparseable.
func ParseAny(s string) CalendarDate {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	d, err := Parse(s)
	if err != nil {
		return CalendarDate{}
	}
	return d
}

// String formats the date as YYYY-MM-DD. Parse(d.String()) round-trips
// exactly for any valid date.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight of the date in loc.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the date combined with a wall-clock time in loc.
func (d CalendarDate) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// AddDays returns the date n calendar days later (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return New(d.Year, d.Month, d.Day+n)
}

func (d CalendarDate) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// IsWorkday reports whether the date falls Monday through Friday.
func (d CalendarDate) IsWorkday() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Compare returns -1, 0 or +1 ordering d against other.
func (d CalendarDate) Compare(other CalendarDate) int {
	a := d.ordinal()
	b := other.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d CalendarDate) Before(other CalendarDate) bool { return d.Compare(other) < 0 }
func (d CalendarDate) After(other CalendarDate) bool  { return d.Compare(other) > 0 }

func (d CalendarDate) ordinal() int {
	// Days since the zero time; only used for ordering and distance.
	return int(d.Time(time.UTC).Unix() / 86400)
}

// DaysBetween returns the signed day distance from d to other.
func (d CalendarDate) DaysBetween(other CalendarDate) int {
	return other.ordinal() - d.ordinal()
}

// DaysInMonth returns the number of days in the given month, leap years
// included.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidDay reports whether day exists in the given month/year.
func ValidDay(year int, month time.Month, day int) bool {
	return day >= 1 && day <= DaysInMonth(year, month)
}

// WeekStart returns the Monday at or before d.
func WeekStart(d CalendarDate) CalendarDate {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDays(-offset)
}

// WeekDates returns n consecutive dates starting at start.
func WeekDates(start CalendarDate, n int) []CalendarDate {
	out := make([]CalendarDate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDays(i))
	}
	return out
}

// Sort orders dates ascending in place.
func Sort(ds []CalendarDate) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}
