// Package notes extracts structured fields out of the legacy free-text
// descriptions carried by common entries. The line-keyed encoding
// ("Start: HH:MM", "Date: YYYY-MM-DD", ...) predates structured fields on
// the entry entity and is preserved byte-for-byte; keeping the parsing in
// one place means the aggregator never touches raw text and the encoding
// can be replaced with real fields later.
//
// TODO: drop this package once the upstream common-entry API grows
// structured date/time fields.
package notes

import (
	"strings"

	"plancal/internal/dates"
)

// Fields is the extraction result for one description. Absent fields stay
// at their zero value with the matching Has flag false; a recognized key
// with an unparseable value is recorded as a Violation instead of a guess.
type Fields struct {
	Start    dates.TimeOfDay
	HasStart bool

	Until    dates.TimeOfDay
	HasUntil bool

	Date dates.CalendarDate

	Range    dates.DateRange
	HasRange bool

	Violations []Violation
}

// Violation records a line that matched a known key but carried a value
// outside the expected schema.
type Violation struct {
	Key   string
	Value string
}

const (
	keyStart     = "Start:"
	keyUntil     = "Until:"
	keyDate      = "Date:"
	keyDateRange = "Date range:"
	rangeSep     = " to "
)

// Extract scans description line by line for the legacy keys. Later lines
// win when a key repeats, matching how the original entries were edited in
// place.
func Extract(description string) Fields {
	var out Fields

	for _, raw := range strings.Split(description, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		// "Date range:" shares a prefix with "Date:" and must match first.
		case strings.HasPrefix(line, keyDateRange):
			val := strings.TrimSpace(strings.TrimPrefix(line, keyDateRange))
			r, ok := parseRange(val)
			if !ok {
				out.Violations = append(out.Violations, Violation{Key: keyDateRange, Value: val})
				continue
			}
			out.Range = r
			out.HasRange = true

		case strings.HasPrefix(line, keyDate):
			val := strings.TrimSpace(strings.TrimPrefix(line, keyDate))
			d, err := dates.Parse(val)
			if err != nil {
				out.Violations = append(out.Violations, Violation{Key: keyDate, Value: val})
				continue
			}
			out.Date = d

		case strings.HasPrefix(line, keyStart):
			val := strings.TrimSpace(strings.TrimPrefix(line, keyStart))
			t, ok := dates.ParseTimeOfDay(val)
			if !ok {
				out.Violations = append(out.Violations, Violation{Key: keyStart, Value: val})
				continue
			}
			out.Start = t
			out.HasStart = true

		case strings.HasPrefix(line, keyUntil):
			val := strings.TrimSpace(strings.TrimPrefix(line, keyUntil))
			t, ok := dates.ParseTimeOfDay(val)
			if !ok {
				out.Violations = append(out.Violations, Violation{Key: keyUntil, Value: val})
				continue
			}
			out.Until = t
			out.HasUntil = true
		}
	}

	return out
}

func parseRange(val string) (dates.DateRange, bool) {
	i := strings.Index(val, rangeSep)
	if i < 0 {
		return dates.DateRange{}, false
	}
	from, err := dates.Parse(strings.TrimSpace(val[:i]))
	if err != nil {
		return dates.DateRange{}, false
	}
	to, err := dates.Parse(strings.TrimSpace(val[i+len(rangeSep):]))
	if err != nil {
		return dates.DateRange{}, false
	}
	return dates.NewRange(from, to), true
}
