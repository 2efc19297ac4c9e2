package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"plancal/internal/dates"
)

func testWeek(t *testing.T) dates.DateRange {
	t.Helper()
	start, err := dates.Parse("2024-06-03")
	if err != nil {
		t.Fatal(err)
	}
	return dates.NewRange(start, start.AddDays(6))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", 16, time.Minute)
}

func TestClientConditionalGet(t *testing.T) {
	var hits, conditional atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"t1","title":"A task"}]`))
	}))

	week := testWeek(t)

	first, stale, err := c.Tasks(context.Background(), week)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if stale {
		t.Fatal("fresh fetch reported stale")
	}
	second, stale, err := c.Tasks(context.Background(), week)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if stale {
		t.Fatal("revalidated 304 body is current, not stale")
	}

	if len(first) != 1 || len(second) != 1 || second[0].ID != "t1" {
		t.Fatalf("payloads: %+v / %+v", first, second)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", hits.Load())
	}
	if conditional.Load() != 1 {
		t.Fatal("second request was not conditional")
	}
}

func TestClientFallsBackToCacheOnServerError(t *testing.T) {
	var failing atomic.Bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`[{"id":"u1","isActive":true}]`))
	}))

	users, stale, err := c.Users(context.Background())
	if err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	if stale {
		t.Fatal("warm fetch reported stale")
	}
	if len(users) != 1 {
		t.Fatalf("users: %+v", users)
	}

	failing.Store(true)
	users, stale, err = c.Users(context.Background())
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}
	if !stale {
		t.Fatal("cache fallback must report stale")
	}
	if len(users) != 1 || users[0].ID != "u1" {
		t.Fatalf("cached payload lost: %+v", users)
	}
}

func TestClientErrorWithoutCache(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	if _, _, err := c.Users(context.Background()); err == nil {
		t.Fatal("expected error with no cached body")
	}
}

func TestFetchWeekPartialFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tasks" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	in := c.FetchWeek(context.Background(), testWeek(t))
	if !in.Partial() {
		t.Fatal("expected partial inputs")
	}
	if _, ok := in.Failed[CategoryTasks]; !ok {
		t.Fatalf("tasks failure not recorded: %+v", in.Failed)
	}
	if len(in.Failed) != 1 {
		t.Fatalf("unexpected extra failures: %+v", in.Failed)
	}
	if in.Tasks != nil {
		t.Fatal("failed category must stay nil, not stale")
	}
}

func TestFetchWeekMarksStaleCategories(t *testing.T) {
	var failing atomic.Bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	week := testWeek(t)

	// Warm every category, then take the upstream away.
	warm := c.FetchWeek(context.Background(), week)
	if warm.Partial() {
		t.Fatalf("warm fetch must be complete: %+v %+v", warm.Failed, warm.Stale)
	}
	failing.Store(true)

	in := c.FetchWeek(context.Background(), week)
	if len(in.Failed) != 0 {
		t.Fatalf("cached categories must not fail: %+v", in.Failed)
	}
	if !in.Stale[CategoryTasks] || len(in.Stale) != 6 {
		t.Fatalf("stale categories not recorded: %+v", in.Stale)
	}
	if !in.Partial() {
		t.Fatal("stale-served week must report partial, never complete and current")
	}
}

func TestTaskClosed(t *testing.T) {
	cases := []struct {
		task Task
		want bool
	}{
		{Task{Status: StatusDone}, true},
		{Task{Status: StatusCancelled}, true},
		{Task{CompletedAt: "2024-06-01T10:00:00Z"}, true},
		{Task{Status: "open"}, false},
		{Task{}, false},
	}
	for _, c := range cases {
		if got := c.task.Closed(); got != c.want {
			t.Errorf("%+v: Closed()=%v, want %v", c.task, got, c.want)
		}
	}
}

