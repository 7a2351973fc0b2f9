package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
)

// Option configures a Coordinator
type Option func(*options)

type options struct {
	sourceTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// WithSourceTimeout bounds each adapter call. An adapter that has not returned
// when the timeout expires is recorded as a timeout outcome; the other sources
// are unaffected. Zero disables the bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.sourceTimeout = d
	}
}

// WithLogger sets the logger used to report per-source outcomes
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source used for latencies and timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Coordinator fans one query out to every configured source concurrently
type Coordinator[P any, R any] struct {
	sources []fetcher.Source[P, R]
	opts    options
}

// New creates a new Coordinator with the given sources
func New[P any, R any](sources []fetcher.Source[P, R], opts ...Option) *Coordinator[P, R] {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Coordinator[P, R]{
		sources: sources,
		opts:    o,
	}
}

// Len returns the number of sources the coordinator queries
func (c *Coordinator[P, R]) Len() int {
	return len(c.sources)
}

// Now returns the current time from the coordinator's clock
func (c *Coordinator[P, R]) Now() time.Time {
	return c.opts.now()
}

// Run queries every source concurrently and waits for all of them.
// The returned slice has one outcome per source, in source order, whatever
// the completion order. Adapter failures and panics are recorded in the
// outcome; Run itself never fails.
func (c *Coordinator[P, R]) Run(ctx context.Context, params P) []fetcher.Outcome[R] {
	// Each goroutine owns exactly one slot, so no locking is needed
	outcomes := make([]fetcher.Outcome[R], len(c.sources))

	var wg conc.WaitGroup
	for i, src := range c.sources {
		wg.Go(func() {
			outcomes[i] = c.runOne(ctx, src, params)
		})
	}
	wg.Wait()

	return outcomes
}

func (c *Coordinator[P, R]) runOne(ctx context.Context, src fetcher.Source[P, R], params P) fetcher.Outcome[R] {
	name := src.Name()

	start := c.opts.now()
	data, err := c.call(ctx, src, params)
	end := c.opts.now()

	out := fetcher.NewOutcome(name, data, err, end.Sub(start), end)

	if out.Succeeded() {
		c.opts.logger.Debug("source completed",
			"source", name,
			"records", len(out.Data),
			"latency_ms", out.LatencyMs)
	} else {
		c.opts.logger.Debug("source failed",
			"source", name,
			"error_kind", out.ErrorKind,
			"error", out.Error,
			"latency_ms", out.LatencyMs)
	}

	return out
}

func (c *Coordinator[P, R]) call(ctx context.Context, src fetcher.Source[P, R], params P) ([]R, error) {
	if c.opts.sourceTimeout <= 0 {
		return fetchRecovered(ctx, src, params)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.sourceTimeout)
	defer cancel()

	type result struct {
		data []R
		err  error
	}

	// Buffered so an adapter that ignores ctx can still finish and exit
	done := make(chan result, 1)
	go func() {
		data, err := fetchRecovered(ctx, src, params)
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, fetcher.ClassifyRequestError(ctx.Err())
	}
}

func fetchRecovered[P any, R any](ctx context.Context, src fetcher.Source[P, R], params P) (data []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fetcher.NewPanicError(r)
		}
	}()
	return src.Fetch(ctx, params)
}
