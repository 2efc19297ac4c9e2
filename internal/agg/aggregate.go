package agg

import (
	"sort"
	"strings"
	"time"

	"plancal/internal/dates"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/notes"
	"plancal/internal/recurrence"
	"plancal/internal/upstream"
)

// Options carries the pass-level knobs and the explicit clock. Now is a
// required input so recurrence resolution stays deterministic under test.
type Options struct {
	Now      time.Time
	Location *time.Location

	// InternalPlatforms lists meeting platforms classified as in-house;
	// anything else is an external meeting.
	InternalPlatforms []string

	// ProjectMarkers are title substrings that mark a project as
	// "extended" (projected forward to its due date). Compatibility shim
	// for data predating the explicit project kind flag.
	ProjectMarkers []string

	// SingleDayPhase is the task phase whose tasks collapse to a single
	// resolved date instead of a range expansion.
	SingleDayPhase string

	Generation uint64
}

func (o *Options) normalize() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now.IsZero() {
		o.Now = time.Now().In(o.Location)
	}
	if o.InternalPlatforms == nil {
		o.InternalPlatforms = []string{"office", "huddle"}
	}
	if o.ProjectMarkers == nil {
		o.ProjectMarkers = []string{"MST", "VS", "VL"}
	}
	if o.SingleDayPhase == "" {
		o.SingleDayPhase = "commitment"
	}
}

// Aggregate runs one classification pass over the fetched inputs plus any
// calendar-feed occurrences and assembles the immutable week snapshot.
// Failed upstream categories keep their buckets empty; everything else
// still populates.
func Aggregate(weekStart dates.CalendarDate, in *upstream.WeekInputs, calOccs []ics.Occurrence, opts Options) *AggregatedWeek {
	opts.normalize()

	window := dates.NewRange(weekStart, weekStart.AddDays(6))
	today := dates.Today(opts.Now)

	week := &AggregatedWeek{
		WeekStart:  weekStart,
		Window:     window,
		Generation: opts.Generation,
		Buckets:    make(map[Bucket][]WorkItem, len(AllBuckets)),
		Failed:     make(map[string]error),
		Stale:      make(map[string]bool),
	}
	for _, b := range AllBuckets {
		week.Buckets[b] = []WorkItem{}
	}
	for category, err := range in.Failed {
		week.Failed[category] = err
	}
	for category := range in.Stale {
		week.Stale[category] = true
	}

	classifyTasks(week, in.Tasks, today, window, opts)
	classifyProjects(week, in.Tasks, in.Projects, today, window, opts)
	classifyMeetings(week, in.Meetings, window, opts)
	classifyCalendarOccurrences(week, calOccs, window)
	classifyEntries(week, in.Entries, today, window)

	leaves := DedupeAllUsers(in.Leaves)
	classifyLeaves(week, leaves, in.Users, window)
	week.FullyCovered = FullyCoveredDates(leaves, activeIDs(in.Users), window.Dates())

	for b := range week.Buckets {
		sortItems(week.Buckets[b])
	}

	appLog.Debug("aggregation pass complete",
		"week_start", weekStart.String(),
		"generation", opts.Generation,
		"fully_covered", len(week.FullyCovered),
		"failed_categories", len(week.Failed),
	)
	return week
}

// taskBucket classifies one task. The flag order is fixed so a task always
// lands in exactly one lane; project tasks are handled by the project
// grouping instead.
func taskBucket(t upstream.Task) (Bucket, bool) {
	switch {
	case t.IsBlocked:
		return BucketBlocked, true
	case t.IsOneHour:
		return BucketOneHour, true
	case t.IsPersonal:
		return BucketPersonal, true
	case t.IsResult:
		return BucketResults, true
	case t.TaskType == "alignment":
		return BucketAlignment, true
	default:
		return "", false
	}
}

func classifyTasks(week *AggregatedWeek, tasks []upstream.Task, today dates.CalendarDate, window dates.DateRange, opts Options) {
	for _, t := range tasks {
		if t.Closed() {
			continue
		}
		// Project tasks classify through the project grouping only; a flag
		// never lands the same task in a second lane.
		if t.ProjectID != "" {
			continue
		}
		bucket, ok := taskBucket(t)
		if !ok {
			continue
		}
		expanded := ExpandTaskDates(t, ExpandOptions{SingleDayOnly: t.Phase == opts.SingleDayPhase}, today)
		ds := window.Intersect(expanded)
		if len(ds) == 0 {
			continue
		}
		item := WorkItem{
			ID:              t.ID,
			Bucket:          bucket,
			Title:           t.Title,
			Dates:           ds,
			AssigneesByDate: make(map[dates.CalendarDate][]string, len(ds)),
		}
		for _, d := range ds {
			item.AssigneesByDate[d] = append([]string(nil), t.Assignees...)
		}
		week.Buckets[bucket] = append(week.Buckets[bucket], item)
	}
}

// classifyProjects groups priority tasks by project. Per-date assignees
// reflect only the tasks actually scheduled that day. Extended projects
// additionally fill forward over the weekdays of the project task span up
// to the latest due date; real task dates are always unioned back in so
// no assignee activity is hidden.
func classifyProjects(week *AggregatedWeek, tasks []upstream.Task, projects []upstream.Project, today dates.CalendarDate, window dates.DateRange, opts Options) {
	byID := make(map[string]upstream.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	type projectAgg struct {
		assignees map[dates.CalendarDate]map[string]bool
		spanMin   dates.CalendarDate
		spanMax   dates.CalendarDate
	}
	grouped := make(map[string]*projectAgg)
	order := make([]string, 0)

	for _, t := range tasks {
		if t.Closed() || t.ProjectID == "" {
			continue
		}
		expanded := ExpandTaskDates(t, ExpandOptions{SingleDayOnly: t.Phase == opts.SingleDayPhase}, today)
		if len(expanded) == 0 {
			continue
		}

		pa := grouped[t.ProjectID]
		if pa == nil {
			pa = &projectAgg{assignees: make(map[dates.CalendarDate]map[string]bool)}
			grouped[t.ProjectID] = pa
			order = append(order, t.ProjectID)
			pa.spanMin = expanded[0]
			pa.spanMax = expanded[len(expanded)-1]
		}
		if expanded[0].Before(pa.spanMin) {
			pa.spanMin = expanded[0]
		}
		if expanded[len(expanded)-1].After(pa.spanMax) {
			pa.spanMax = expanded[len(expanded)-1]
		}
		// Extended projects run through the latest due date even when no
		// task occupies the intervening days.
		if due := dates.ParseAny(t.DueDate); !due.IsZero() && due.After(pa.spanMax) {
			pa.spanMax = due
		}

		for _, d := range window.Intersect(expanded) {
			set := pa.assignees[d]
			if set == nil {
				set = make(map[string]bool)
				pa.assignees[d] = set
			}
			for _, a := range t.Assignees {
				set[a] = true
			}
		}
	}

	sort.Strings(order)
	for _, projectID := range order {
		pa := grouped[projectID]
		project := byID[projectID]
		title := project.Name
		if title == "" {
			title = projectID
		}

		dateSet := make(map[dates.CalendarDate]bool)
		for d := range pa.assignees {
			dateSet[d] = true
		}
		if isExtendedProject(project, title, opts.ProjectMarkers) {
			span := dates.NewRange(pa.spanMin, pa.spanMax)
			for _, d := range span.Workdays() {
				if window.Contains(d) {
					dateSet[d] = true
				}
			}
		}
		if len(dateSet) == 0 {
			continue
		}

		ds := make([]dates.CalendarDate, 0, len(dateSet))
		for d := range dateSet {
			ds = append(ds, d)
		}
		dates.Sort(ds)

		item := WorkItem{
			ID:              projectID,
			Bucket:          BucketPriorityProject,
			Title:           title,
			Dates:           ds,
			AssigneesByDate: make(map[dates.CalendarDate][]string, len(ds)),
		}
		for _, d := range ds {
			names := make([]string, 0, len(pa.assignees[d]))
			for name := range pa.assignees[d] {
				names = append(names, name)
			}
			sort.Strings(names)
			item.AssigneesByDate[d] = names
		}
		week.Buckets[BucketPriorityProject] = append(week.Buckets[BucketPriorityProject], item)
	}
}

func isExtendedProject(p upstream.Project, title string, markers []string) bool {
	if p.Kind == upstream.ProjectKindExtended {
		return true
	}
	for _, m := range markers {
		if m != "" && strings.Contains(title, m) {
			return true
		}
	}
	return false
}

func classifyMeetings(week *AggregatedWeek, meetings []upstream.Meeting, window dates.DateRange, opts Options) {
	for _, m := range meetings {
		rule := meetingRule(m)
		if rule.Kind == recurrence.KindNone {
			continue
		}
		next, ok := recurrence.Next(rule, m.StartsAt, opts.Now)
		if !ok {
			continue
		}
		day := dates.Today(next)
		if !window.Contains(day) {
			continue
		}

		bucket := BucketExternalMeeting
		if isInternalPlatform(m.Platform, opts.InternalPlatforms) {
			bucket = BucketInternalMeeting
		}
		item := WorkItem{
			ID:     m.ID,
			Bucket: bucket,
			Title:  m.Title,
			Note:   m.Platform,
			Dates:  []dates.CalendarDate{day},
		}
		if tod, ok := dates.ParseTimeOfDay(m.StartsAt); ok {
			item.Start = tod
			item.HasStart = true
		}
		week.Buckets[bucket] = append(week.Buckets[bucket], item)
	}
}

func meetingRule(m upstream.Meeting) recurrence.Rule {
	switch m.RecurrenceType {
	case string(recurrence.KindWeekly):
		return recurrence.Rule{Kind: recurrence.KindWeekly, DaysOfWeek: m.RecurrenceDaysOfWeek}
	case string(recurrence.KindMonthly):
		return recurrence.Rule{Kind: recurrence.KindMonthly, DaysOfMonth: m.RecurrenceDaysOfMonth}
	case string(recurrence.KindYearly):
		return recurrence.Rule{Kind: recurrence.KindYearly, Month: m.RecurrenceMonth, Day: m.RecurrenceDay}
	default:
		return recurrence.Rule{Kind: recurrence.KindNone}
	}
}

func isInternalPlatform(platform string, internal []string) bool {
	for _, p := range internal {
		if strings.EqualFold(platform, p) {
			return true
		}
	}
	return false
}

func classifyCalendarOccurrences(week *AggregatedWeek, occs []ics.Occurrence, window dates.DateRange) {
	for _, occ := range occs {
		day := occ.Date()
		if !window.Contains(day) {
			continue
		}
		bucket := BucketExternalMeeting
		if occ.Internal {
			bucket = BucketInternalMeeting
		}
		item := WorkItem{
			ID:     occ.SourceID + "/" + occ.UID + "/" + day.String(),
			Bucket: bucket,
			Title:  occ.Summary,
			Note:   occ.Location,
			Dates:  []dates.CalendarDate{day},
		}
		// All-day events have no wall-clock window to show.
		if !occ.AllDay {
			item.Start = dates.TimeOfDay{Hour: occ.Start.Hour(), Minute: occ.Start.Minute()}
			item.Until = dates.TimeOfDay{Hour: occ.End.Hour(), Minute: occ.End.Minute()}
			item.HasStart = true
			item.HasUntil = true
		}
		week.Buckets[bucket] = append(week.Buckets[bucket], item)
	}
}

// entryBucket maps common-entry category tags onto lanes.
var entryBucket = map[string]Bucket{
	"delay":    BucketDelay,
	"absence":  BucketAbsence,
	"problem":  BucketProblem,
	"feedback": BucketFeedback,
}

func classifyEntries(week *AggregatedWeek, entries []upstream.CommonEntry, today dates.CalendarDate, window dates.DateRange) {
	for _, e := range entries {
		bucket, ok := entryBucket[strings.ToLower(strings.TrimSpace(e.Category))]
		if !ok {
			continue
		}

		fields := notes.Extract(e.Description)
		for _, v := range fields.Violations {
			appLog.Debug("common entry field violation", "entry_id", e.ID, "key", v.Key, "value", v.Value)
		}

		var ds []dates.CalendarDate
		switch {
		case fields.HasRange:
			ds = window.Intersect(fields.Range.Dates())
		case !fields.Date.IsZero():
			ds = window.Intersect([]dates.CalendarDate{fields.Date})
		case !dates.ParseAny(e.Date).IsZero():
			ds = window.Intersect([]dates.CalendarDate{dates.ParseAny(e.Date)})
		default:
			ds = window.Intersect([]dates.CalendarDate{today})
		}
		if len(ds) == 0 {
			continue
		}

		item := WorkItem{
			ID:     e.ID,
			Bucket: bucket,
			Title:  e.Description,
			Note:   e.Category,
			Dates:  ds,
		}
		if e.CreatedBy != "" {
			item.AssigneesByDate = make(map[dates.CalendarDate][]string, len(ds))
			for _, d := range ds {
				item.AssigneesByDate[d] = []string{e.CreatedBy}
			}
		}
		item.Start, item.HasStart = fields.Start, fields.HasStart
		item.Until, item.HasUntil = fields.Until, fields.HasUntil
		week.Buckets[bucket] = append(week.Buckets[bucket], item)
	}
}

func classifyLeaves(week *AggregatedWeek, leaves []upstream.LeaveEntry, users []upstream.User, window dates.DateRange) {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	for _, e := range leaves {
		span, ok := leaveSpan(e)
		if !ok {
			continue
		}
		ds := window.Intersect(span.Dates())
		if len(ds) == 0 {
			continue
		}

		title := names[e.UserID]
		if e.AllUsers {
			title = "All users"
		} else if title == "" {
			title = e.UserID
		}

		item := WorkItem{
			ID:       e.ID,
			Bucket:   BucketLeave,
			Title:    title,
			Note:     e.Note,
			Dates:    ds,
			Span:     span,
			HasSpan:  true,
			AllUsers: e.AllUsers,
		}
		if !e.FullDay {
			item.Start, item.HasStart = dates.ParseTimeOfDay(e.From)
			item.Until, item.HasUntil = dates.ParseTimeOfDay(e.To)
		}
		week.Buckets[BucketLeave] = append(week.Buckets[BucketLeave], item)
	}
}

func activeIDs(users []upstream.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.IsActive {
			out = append(out, u.ID)
		}
	}
	return out
}

// sortItems orders a bucket deterministically: first date, then title,
// then id. Re-running a pass on identical inputs yields identical output.
func sortItems(items []WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if len(a.Dates) > 0 && len(b.Dates) > 0 {
			if c := a.Dates[0].Compare(b.Dates[0]); c != 0 {
				return c < 0
			}
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}
