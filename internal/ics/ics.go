// Package ics pulls meetings out of subscribed iCalendar feeds so that
// calendar-hosted meetings land in the same week view as API meetings.
// Feeds are fetched, parsed into events and RRULE-expanded into concrete
// occurrences inside the requested week window.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"plancal/internal/dates"
	appLog "plancal/internal/log"
)

const maxOccurrencesPerEvent = 500

// Source is one subscribed calendar feed. Internal marks its meetings as
// in-house rather than external.
type Source struct {
	ID       string
	URL      string
	Internal bool
}

// Occurrence is a single concrete meeting instance inside the requested
// window, already normalized into the display timezone. AllDay occurrences
// carry no meaningful wall-clock times.
type Occurrence struct {
	SourceID string
	UID      string
	Summary  string
	Location string
	Internal bool
	AllDay   bool
	Start    time.Time
	End      time.Time
}

// Date returns the calendar date the occurrence starts on.
func (o Occurrence) Date() dates.CalendarDate {
	return dates.Today(o.Start)
}

// event is the parsed VEVENT shape expansion operates on.
type event struct {
	uid      string
	summary  string
	location string
	allDay   bool
	start    time.Time
	end      time.Time
	rawRRule string
	exDates  []time.Time
}

// Fetcher downloads and expands calendar feeds.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// WeekOccurrences fetches every source and returns all occurrences whose
// start falls inside week (interpreted in loc). Per-source failures are
// logged and collected; surviving sources still contribute.
func (f *Fetcher) WeekOccurrences(ctx context.Context, sources []Source, week dates.DateRange, loc *time.Location) ([]Occurrence, []error) {
	if loc == nil {
		loc = time.Local
	}
	rangeStart := week.Start.Time(loc)
	rangeEnd := week.End.AddDays(1).Time(loc) // exclusive upper bound

	occurrences := make([]Occurrence, 0)
	errs := make([]error, 0)

	for _, src := range sources {
		body, err := f.fetch(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics %s: %w", src.ID, err))
			appLog.Error("ics fetch failed", err, "id", src.ID)
			continue
		}
		events, err := parse(src, body)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics %s: %w", src.ID, err))
			appLog.Error("ics parse failed", err, "id", src.ID)
			continue
		}
		for _, ev := range events {
			occurrences = append(occurrences, expand(src, ev, rangeStart, rangeEnd, loc)...)
		}
	}

	return occurrences, errs
}

func (f *Fetcher) fetch(ctx context.Context, src Source) ([]byte, error) {
	if src.URL == "" {
		return nil, errors.New("source URL is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func parse(src Source, body []byte) ([]event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Skip the broken VEVENT, keep parsing the rest.
			appLog.Error("ics vevent parse failed", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (event, error) {
	var out event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		if start, err = ve.GetAllDayStartAt(); err != nil {
			return out, err
		}
	}
	out.start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.end = end
	} else if end, err := ve.GetAllDayEndAt(); err == nil {
		out.end = end
	} else {
		out.end = start.Add(time.Hour)
	}

	// All-day events carry a date-only DTSTART: VALUE=DATE or no time part.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.allDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			out.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part)); err == nil {
				out.exDates = append(out.exDates, t)
			}
		}
	}

	return out, nil
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms used by
// EXDATE values.
func parseICSTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

func expand(src Source, ev event, rangeStart, rangeEnd time.Time, loc *time.Location) []Occurrence {
	out := make([]Occurrence, 0)

	if ev.rawRRule == "" {
		if ev.start.Before(rangeEnd) && ev.end.After(rangeStart) {
			out = append(out, makeOccurrence(src, ev, ev.start, ev.end, loc))
		}
		return out
	}

	r, err := rrule.StrToRRule(ev.rawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.uid, "rrule", ev.rawRRule)
		return out
	}
	r.DTStart(ev.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.exDates {
		set.ExDate(ex.In(ev.start.Location()))
	}

	times := set.Between(rangeStart.In(ev.start.Location()), rangeEnd.In(ev.start.Location()), true)
	if len(times) > maxOccurrencesPerEvent {
		times = times[:maxOccurrencesPerEvent]
	}

	dur := ev.end.Sub(ev.start)
	for _, start := range times {
		out = append(out, makeOccurrence(src, ev, start, start.Add(dur), loc))
	}
	return out
}

func makeOccurrence(src Source, ev event, start, end time.Time, loc *time.Location) Occurrence {
	return Occurrence{
		SourceID: src.ID,
		UID:      ev.uid,
		Summary:  ev.summary,
		Location: ev.location,
		Internal: src.Internal,
		AllDay:   ev.allDay,
		Start:    start.In(loc),
		End:      end.In(loc),
	}
}
