// Package fetch retrieves chat statistics records from the analytics
// service. Each (fromDate, chatId) pair is requested at most once per
// client: successes are cached for the client's lifetime and concurrent
// identical requests share one network call.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/nixlim/chat-top/internal/stats"
)

// DateLayout is the accepted FromDate format.
const DateLayout = "2006-01-02"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// Query identifies one statistics record.
type Query struct {
	FromDate string
	ChatID   string
}

// Normalize trims the chat identifier and validates both fields.
func (q Query) Normalize() (Query, error) {
	q.ChatID = strings.TrimSpace(q.ChatID)
	q.FromDate = strings.TrimSpace(q.FromDate)
	if q.ChatID == "" {
		return q, fmt.Errorf("%w: chat id is empty", ErrInvalidQuery)
	}
	if _, err := time.Parse(DateLayout, q.FromDate); err != nil {
		return q, fmt.Errorf("%w: from date %q is not YYYY-MM-DD", ErrInvalidQuery, q.FromDate)
	}
	return q, nil
}

func (q Query) key() string {
	return q.FromDate + "|" + q.ChatID
}

// Client fetches and caches statistics records.
type Client struct {
	baseURL    string
	authToken  string
	http       *http.Client
	timeout    time.Duration
	hasTimeout bool
	observer   func(Event)
	now        func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	cache   map[string]*stats.Record
	pending map[string]bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAuthToken sends "Authorization: Basic <token>" on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithTimeout sets the per-request timeout. Zero means no timeout. It is
// applied to a copy of the HTTP client, so a shared client is never changed.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithObserver registers a callback for request lifecycle events. The
// callback runs on the fetching goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// NewClient creates a Client for the service rooted at baseURL. The
// statistics endpoint is resolved relative to it, so baseURL normally ends
// with a slash.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		now:     time.Now,
		cache:   make(map[string]*stats.Record),
		pending: make(map[string]bool),
	}
	for _, o := range opts {
		o(c)
	}
	if c.hasTimeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Fetch returns the record for q, from cache when available. Concurrent
// calls for the same query share one request and its outcome. Failures are
// not cached.
//
// The shared request is detached from the caller's cancellation: a caller
// whose ctx ends gets ctx.Err() at once, while the request keeps running
// for the other callers and still fills the cache.
func (c *Client) Fetch(ctx context.Context, q Query) (*stats.Record, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	if rec, ok := c.Cached(q); ok {
		c.emit(Event{Kind: EventCached, Query: q})
		return rec, nil
	}

	k := q.key()
	ch := c.group.DoChan(k, func() (any, error) {
		if rec, ok := c.Cached(q); ok {
			return rec, nil
		}
		c.setPending(k, true)
		defer c.setPending(k, false)

		rec, err := c.do(context.WithoutCancel(ctx), q)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[k] = rec
		c.mu.Unlock()
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*stats.Record), nil
	}
}

// Cached returns the cached record for q without any I/O.
func (c *Client) Cached(q Query) (*stats.Record, bool) {
	q, err := q.Normalize()
	if err != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.cache[q.key()]
	return rec, ok
}

// Pending reports whether a request for q is in flight.
func (c *Client) Pending(q Query) bool {
	q, err := q.Normalize()
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending[q.key()]
}

// Invalidate drops the cached record for q so the next Fetch goes to the
// network.
func (c *Client) Invalidate(q Query) {
	q, err := q.Normalize()
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.cache, q.key())
	c.mu.Unlock()
}

// Len returns the number of cached records.
func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Client) setPending(k string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v {
		c.pending[k] = true
	} else {
		delete(c.pending, k)
	}
}

// URL returns the request URL for q.
func (c *Client) URL(q Query) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	u := base.ResolveReference(&url.URL{Path: "chat_stats"})
	params := url.Values{}
	params.Set("fromDate", q.FromDate)
	params.Set("chatId", q.ChatID)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, q Query) (*stats.Record, error) {
	start := c.now()
	c.emit(Event{Kind: EventStarted, Query: q, Time: start})

	rec, status, err := c.roundTrip(ctx, q)
	elapsed := c.now().Sub(start)

	logEvt := log.Info()
	if err != nil {
		logEvt = log.Warn().Err(err)
	}
	logEvt.Str("chat_id", q.ChatID).
		Str("from_date", q.FromDate).
		Int("status", status).
		Dur("duration", elapsed).
		Msg("chat stats request")

	if err != nil {
		fe := &FetchError{Query: q, StatusCode: status, Err: err}
		c.emit(Event{Kind: EventFailed, Query: q, Status: status, Duration: elapsed, Err: fe})
		return nil, fe
	}
	c.emit(Event{Kind: EventSucceeded, Query: q, Status: status, Duration: elapsed})
	return rec, nil
}

func (c *Client) roundTrip(ctx context.Context, q Query) (*stats.Record, int, error) {
	target, err := c.URL(q)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Basic "+c.authToken)
	}
	log.Debug().Str("url", target).Msg("requesting chat stats")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, ErrStatus
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	rec, err := stats.Parse(body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return rec, resp.StatusCode, nil
}

func (c *Client) emit(e Event) {
	if c.observer == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	c.observer(e)
}
