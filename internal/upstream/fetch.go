package upstream

import (
	"context"

	"golang.org/x/sync/errgroup"

	"plancal/internal/dates"
	appLog "plancal/internal/log"
)

// Category names used to report per-category fetch failures.
const (
	CategoryTasks    = "tasks"
	CategoryMeetings = "meetings"
	CategoryProjects = "projects"
	CategoryUsers    = "users"
	CategoryLeaves   = "leaves"
	CategoryEntries  = "entries"
)

// WeekInputs is everything one aggregation pass consumes, fetched for a
// single week window. A category whose fetch failed is left nil with the
// error recorded in Failed; the aggregator leaves that bucket empty rather
// than mixing stale data in. A category served from the cache because the
// upstream was unreachable is recorded in Stale: usable, but the pass must
// report it so the week is not presented as complete and current.
type WeekInputs struct {
	Week dates.DateRange

	Tasks    []Task
	Meetings []Meeting
	Projects []Project
	Users    []User
	Leaves   []LeaveEntry
	Entries  []CommonEntry

	Failed map[string]error
	Stale  map[string]bool
}

// Partial reports whether any category failed to load or was served stale.
func (w *WeekInputs) Partial() bool {
	return len(w.Failed) > 0 || len(w.Stale) > 0
}

// FetchWeek pulls all categories for the week concurrently. Individual
// failures never abort the pass; classification must not start until every
// category has either resolved or failed, which the group wait guarantees.
func (c *Client) FetchWeek(ctx context.Context, week dates.DateRange) *WeekInputs {
	in := &WeekInputs{
		Week:   week,
		Failed: make(map[string]error),
		Stale:  make(map[string]bool),
	}

	var tasksErr, meetingsErr, projectsErr, usersErr, leavesErr, entriesErr error
	var tasksStale, meetingsStale, projectsStale, usersStale, leavesStale, entriesStale bool

	var g errgroup.Group
	g.Go(func() error { in.Tasks, tasksStale, tasksErr = c.Tasks(ctx, week); return nil })
	g.Go(func() error { in.Meetings, meetingsStale, meetingsErr = c.Meetings(ctx); return nil })
	g.Go(func() error { in.Projects, projectsStale, projectsErr = c.Projects(ctx); return nil })
	g.Go(func() error { in.Users, usersStale, usersErr = c.Users(ctx); return nil })
	g.Go(func() error { in.Leaves, leavesStale, leavesErr = c.Leaves(ctx, week); return nil })
	g.Go(func() error { in.Entries, entriesStale, entriesErr = c.Entries(ctx, week); return nil })
	_ = g.Wait()

	record := func(category string, stale bool, err error) {
		if err != nil {
			in.Failed[category] = err
			appLog.Error("upstream category fetch failed", err,
				"category", category,
				"week_start", week.Start.String(),
			)
			return
		}
		if stale {
			in.Stale[category] = true
			appLog.Info("upstream category served from stale cache",
				"category", category,
				"week_start", week.Start.String(),
			)
		}
	}
	record(CategoryTasks, tasksStale, tasksErr)
	record(CategoryMeetings, meetingsStale, meetingsErr)
	record(CategoryProjects, projectsStale, projectsErr)
	record(CategoryUsers, usersStale, usersErr)
	record(CategoryLeaves, leavesStale, leavesErr)
	record(CategoryEntries, entriesStale, entriesErr)

	return in
}
