// Package web serves the aggregated week over HTTP for the UI and other
// downstream consumers.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plancal/internal/agg"
	"plancal/internal/config"
	"plancal/internal/dates"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/upstream"
)

// snapshotTTL is how long a served week snapshot stays fresh before a
// request triggers a new pass.
const snapshotTTL = 30 * time.Second

// Server exposes /health and /api/week. It holds at most one aggregated
// snapshot: the latest pass for the currently-requested week. A pass that
// finishes after a newer one has started (or after the requested week
// changed) is discarded, never merged.
type Server struct {
	cfg     *config.Config
	client  *upstream.Client
	fetcher *ics.Fetcher
	loc     *time.Location
	mux     *http.ServeMux

	mu           sync.Mutex
	latest       *agg.AggregatedWeek
	latestAt     time.Time
	requested    dates.CalendarDate
	startedGen   uint64
	installedGen uint64
}

// NewServer constructs a Server with its own upstream client and feed
// fetcher.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		client: upstream.NewClient(
			cfg.API.BaseURL,
			cfg.API.Token,
			cfg.Cache.Size,
			time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		),
		fetcher: ics.NewFetcher(),
		loc:     resolveLocationOrLocal(cfg.Timezone),
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="plancal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/week", s.handleWeek)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// RefreshWeek runs a full fetch-and-classify pass for the week containing
// or starting at weekStart. The result is installed as the served
// snapshot only if no newer pass has started and the requested week has
// not changed in the meantime; a superseded pass is simply dropped.
func (s *Server) RefreshWeek(ctx context.Context, weekStart dates.CalendarDate) *agg.AggregatedWeek {
	s.mu.Lock()
	s.startedGen++
	gen := s.startedGen
	s.requested = weekStart
	s.mu.Unlock()

	passID := uuid.NewString()
	appLog.Info("aggregation pass start",
		"pass_id", passID,
		"week_start", weekStart.String(),
		"generation", gen,
	)

	inputs := s.client.FetchWeek(ctx, dates.NewRange(weekStart, weekStart.AddDays(6)))

	var calOccs []ics.Occurrence
	if len(s.cfg.ICS) > 0 {
		sources := make([]ics.Source, 0, len(s.cfg.ICS))
		for _, c := range s.cfg.ICS {
			if c.URL == "" {
				continue
			}
			id := c.ID
			if id == "" {
				id = c.URL
			}
			sources = append(sources, ics.Source{ID: id, URL: c.URL, Internal: c.Internal})
		}
		var errs []error
		calOccs, errs = s.fetcher.WeekOccurrences(ctx, sources, inputs.Week, s.loc)
		if len(errs) > 0 {
			inputs.Failed["calendar"] = errs[0]
		}
	}

	week := agg.Aggregate(weekStart, inputs, calOccs, agg.Options{
		Now:               time.Now().In(s.loc),
		Location:          s.loc,
		InternalPlatforms: s.cfg.InternalPlatforms,
		ProjectMarkers:    s.cfg.ProjectMarkers,
		SingleDayPhase:    s.cfg.SingleDayPhase,
		Generation:        gen,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested != weekStart || gen < s.startedGen {
		appLog.Info("aggregation pass superseded, discarding",
			"pass_id", passID,
			"week_start", weekStart.String(),
			"generation", gen,
			"current_generation", s.startedGen,
		)
		return week
	}
	s.latest = week
	s.latestAt = time.Now()
	s.installedGen = gen
	return week
}

// snapshot returns a fresh-enough aggregated week for weekStart, running a
// new pass when the cached one is stale or for a different week.
func (s *Server) snapshot(ctx context.Context, weekStart dates.CalendarDate) *agg.AggregatedWeek {
	s.mu.Lock()
	latest, latestAt := s.latest, s.latestAt
	s.mu.Unlock()

	if latest != nil && latest.WeekStart == weekStart && time.Since(latestAt) < snapshotTTL {
		return latest
	}
	return s.RefreshWeek(ctx, weekStart)
}

// handleWeek serves the filtered aggregated week.
//
// GET /api/week?start=YYYY-MM-DD&dates=YYYY-MM-DD,...&types=leave,delay
//   - start: any date; resolved to its Monday. Defaults to the current week.
//   - dates: selected dates; empty selects the configured default grid.
//   - types: selected bucket ids; empty selects all.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	now := time.Now().In(s.loc)
	weekStart := dates.WeekStart(dates.Today(now))
	if v := q.Get("start"); v != "" {
		d, err := dates.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		weekStart = dates.WeekStart(d)
	}

	sel, ok := parseSelection(q.Get("dates"), q.Get("types"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dates or types selection")
		return
	}
	if len(sel.Dates) == 0 && s.cfg.WeekDays == 5 {
		// Workweek grid: the default selection stops at Friday.
		sel.Dates = dates.WeekDates(weekStart, 5)
	}

	week := s.snapshot(ctx, weekStart)
	buckets := agg.FilterForDisplay(week, sel)

	writeJSON(w, http.StatusOK, buildWeekResponse(week, buckets))
}

func parseSelection(datesParam, typesParam string) (agg.Selection, bool) {
	var sel agg.Selection
	if datesParam != "" {
		for _, part := range strings.Split(datesParam, ",") {
			d, err := dates.Parse(strings.TrimSpace(part))
			if err != nil {
				return sel, false
			}
			sel.Dates = append(sel.Dates, d)
		}
	}
	if typesParam != "" {
		for _, part := range strings.Split(typesParam, ",") {
			b, ok := agg.ParseBucket(strings.TrimSpace(part))
			if !ok {
				return sel, false
			}
			sel.Types = append(sel.Types, b)
		}
	}
	return sel, true
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func failedCategories(failed map[string]error) []string {
	out := make([]string, 0, len(failed))
	for category := range failed {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func staleCategories(stale map[string]bool) []string {
	out := make([]string, 0, len(stale))
	for category := range stale {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
