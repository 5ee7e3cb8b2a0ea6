// Package query is the data-sync layer between views and the API client.
// Reads go through Fetch, which serves from a keyed TTL cache, coalesces
// concurrent requests for the same key and refuses to cache results that an
// invalidation has made stale. Writes go through Mutation, which rejects a
// second submit while the first is in flight and invalidates resource roots
// on success.
package query

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/infra/resilience"
	"github.com/uplug/einvoice-bfa-go/internal/port"
)

var tracer = otel.Tracer("query")

// Status is the lifecycle state of a fetch.
type Status string

const (
	StatusDisabled Status = "disabled"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// Key addresses a cached value: a resource root plus parameters.
type Key struct {
	Root  string
	Parts []string
}

// NewKey builds a key under root.
func NewKey(root string, parts ...string) Key {
	return Key{Root: root, Parts: parts}
}

// String renders the key as root/part/part, the form used by the cache.
// Parts are path-escaped so an id containing "/" cannot collide with a
// longer key.
func (k Key) String() string {
	if len(k.Parts) == 0 {
		return k.Root
	}
	parts := make([]string, len(k.Parts))
	for i, p := range k.Parts {
		parts[i] = url.PathEscape(p)
	}
	return k.Root + "/" + strings.Join(parts, "/")
}

// State is what a view renders: data, error or nothing at all.
type State[T any] struct {
	Data   T
	Err    error
	Status Status
	Cached bool
}

// OK reports whether the fetch produced data.
func (s State[T]) OK() bool {
	return s.Status == StatusSuccess
}

type options struct {
	enabled bool
	retry   int
	ttl     time.Duration
}

// Option tunes one Fetch.
type Option func(*options)

// Enabled disables the fetch when false; no request is made and the state
// is StatusDisabled. Use it for queries whose required parameter is empty.
func Enabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// Retry sets how many extra attempts a failed fetch gets. Client errors
// (4xx) are never retried.
func Retry(n int) Option {
	return func(o *options) { o.retry = n }
}

// TTL overrides the cache lifetime for this key.
func TTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// Client owns the query cache.
type Client struct {
	cache   port.Cache[any]
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	gens    map[string]uint64
	waiters map[string][]*waiter // live callers per flight

	// RetryBackoff is the initial wait between retries.
	RetryBackoff time.Duration
}

// NewClient creates a query client over c. Metrics may be nil.
func NewClient(c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cache:        c,
		metrics:      metrics,
		logger:       logger,
		gens:         make(map[string]uint64),
		waiters:      make(map[string][]*waiter),
		RetryBackoff: 200 * time.Millisecond,
	}
}

type waiter struct {
	ctx context.Context
}

// Fetch returns the cached value for key or loads it with fn.
//
// Concurrent callers for the same key share one load. The load runs detached
// from any single caller, so one caller giving up never fails the others;
// each caller stops waiting when its own context ends. The result is cached
// only while at least one caller is still waiting for it.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error), opts ...Option) State[T] {
	o := options{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return State[T]{Status: StatusDisabled}
	}

	ck := key.String()
	if v, ok := c.cache.Get(ck); ok {
		if data, ok := v.(T); ok {
			c.hit(key.Root)
			return State[T]{Data: data, Status: StatusSuccess, Cached: true}
		}
	}
	c.miss(key.Root)

	ctx, span := tracer.Start(ctx, "query.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("query.key", ck))

	gen := c.generation(key.Root)
	flight := ck + "#" + strconv.FormatUint(gen, 10)

	w := c.join(flight, ctx)
	defer c.leave(flight, w)

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		var data T
		err := resilience.RetryWithBackoff(loadCtx, resilience.Config{
			MaxRetries:     o.retry,
			InitialBackoff: c.RetryBackoff,
			Retryable:      resilience.NotClientError,
		}, func() error {
			var err error
			data, err = fn(loadCtx)
			return err
		})
		if err != nil {
			return nil, err
		}
		c.store(key.Root, gen, flight, ck, data, o.ttl)
		return data, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	span.SetAttributes(attribute.Bool("query.shared", res.Shared))

	if res.Err != nil {
		c.logger.Debug("query failed", zap.String("key", ck), zap.Error(res.Err))
		return State[T]{Err: res.Err, Status: StatusError}
	}
	data, _ := res.Val.(T)
	return State[T]{Data: data, Status: StatusSuccess}
}

func (c *Client) join(flight string, ctx context.Context) *waiter {
	w := &waiter{ctx: ctx}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters[flight] = append(c.waiters[flight], w)
	return w
}

func (c *Client) leave(flight string, w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ws := c.waiters[flight]
	for i, x := range ws {
		if x == w {
			ws = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(ws) == 0 {
		delete(c.waiters, flight)
		return
	}
	c.waiters[flight] = ws
}

// store writes the value unless the root was invalidated after the fetch
// began or every caller already gave up on it.
func (c *Client) store(root string, gen uint64, flight, key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[root] != gen || !c.wantedLocked(flight) {
		c.logger.Debug("dropping stale query result", zap.String("key", key))
		return
	}
	c.cache.SetWithTTL(key, value, ttl)
}

func (c *Client) wantedLocked(flight string) bool {
	for _, w := range c.waiters[flight] {
		if w.ctx.Err() == nil {
			return true
		}
	}
	return false
}

// generation registers root on first use so Clear can bump it later.
func (c *Client) generation(root string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen, ok := c.gens[root]
	if !ok {
		c.gens[root] = 0
	}
	return gen
}

// Invalidate drops every cached entry under each root and marks in-flight
// fetches of those roots stale.
func (c *Client) Invalidate(roots ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range roots {
		c.gens[root]++
		n := c.cache.DeletePrefix(root)
		if c.metrics != nil {
			c.metrics.IncrInvalidation(root)
		}
		c.logger.Debug("invalidated", zap.String("root", root), zap.Int("entries", n))
	}
}

// Clear drops the whole cache, e.g. on logout.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for root := range c.gens {
		c.gens[root]++
	}
	c.cache.Clear()
}

func (c *Client) hit(root string) {
	if c.metrics != nil {
		c.metrics.IncrCacheHit(root)
	}
}

func (c *Client) miss(root string) {
	if c.metrics != nil {
		c.metrics.IncrCacheMiss(root)
	}
}
