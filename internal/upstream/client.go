package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"plancal/internal/dates"
	appLog "plancal/internal/log"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 10 * time.Minute
)

// cachedPage holds a previously fetched payload together with its ETag so
// subsequent requests can be conditional.
type cachedPage struct {
	etag string
	body []byte
}

// Client fetches raw entities from the planning API. The response cache is
// an explicit, capacity- and TTL-bounded object owned by the client: it is
// created once at startup, entries are replaced on successful refetch, and
// it is never shared across clients.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	cache   *lru.LRU[string, cachedPage]
}

// NewClient creates a Client for the given API base URL. token may be
// empty for unauthenticated upstreams.
func NewClient(baseURL, token string, cacheSize int, cacheTTL time.Duration) *Client {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: lru.NewLRU[string, cachedPage](cacheSize, nil, cacheTTL),
	}
}

// get performs a conditional GET against path+query. On a network error or
// a non-OK status it falls back to the cached body when one exists (a stale
// week view beats no week view), reporting stale=true so the caller can
// surface the degradation instead of presenting old data as current. A 304
// revalidates the cached body and is not stale.
func (c *Client) get(ctx context.Context, path string, query url.Values) (body []byte, stale bool, err error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	cached, haveCached := c.cache.Get(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if haveCached && cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if haveCached {
			appLog.Error("upstream fetch network error, using cached body", err, "path", path)
			return cached.body, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}
		c.cache.Add(u, cachedPage{etag: resp.Header.Get("ETag"), body: b})
		return b, false, nil

	case http.StatusNotModified:
		if !haveCached {
			return nil, false, errors.New("upstream: 304 Not Modified without a cached body")
		}
		return cached.body, false, nil

	default:
		if haveCached {
			appLog.Error("upstream fetch non-OK, using cached body", errors.New(resp.Status), "path", path, "status", resp.StatusCode)
			return cached.body, true, nil
		}
		return nil, false, fmt.Errorf("upstream: %s returned %s", path, resp.Status)
	}
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, bool, error) {
	body, stale, err := c.get(ctx, path, query)
	if err != nil {
		return nil, false, err
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, false, fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return out, stale, nil
}

func weekQuery(week dates.DateRange) url.Values {
	q := url.Values{}
	q.Set("from", week.Start.String())
	q.Set("to", week.End.String())
	return q
}

// The category accessors report stale=true when the payload came from the
// cache because the upstream could not be reached or answered non-OK.

func (c *Client) Tasks(ctx context.Context, week dates.DateRange) ([]Task, bool, error) {
	return getList[Task](ctx, c, "/api/tasks", weekQuery(week))
}

func (c *Client) Meetings(ctx context.Context) ([]Meeting, bool, error) {
	return getList[Meeting](ctx, c, "/api/meetings", nil)
}

func (c *Client) Projects(ctx context.Context) ([]Project, bool, error) {
	return getList[Project](ctx, c, "/api/projects", nil)
}

func (c *Client) Users(ctx context.Context) ([]User, bool, error) {
	return getList[User](ctx, c, "/api/users", nil)
}

func (c *Client) Leaves(ctx context.Context, week dates.DateRange) ([]LeaveEntry, bool, error) {
	return getList[LeaveEntry](ctx, c, "/api/leaves", weekQuery(week))
}

func (c *Client) Entries(ctx context.Context, week dates.DateRange) ([]CommonEntry, bool, error) {
	return getList[CommonEntry](ctx, c, "/api/entries", weekQuery(week))
}
