// Package aggregate merges and ranks what several independent sources
// reported for the same query, and wraps the result with per-source
// diagnostics.
package aggregate

import (
	"context"
	"time"

	"github.com/yldfi/yldfi-rs-sub001/internal/coordinator"
	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
)

// Envelope is the result of one aggregation call.
type Envelope[R any, A any] struct {
	// Aggregated is the merged and ranked value
	Aggregated A `json:"aggregated"`

	// Sources holds one outcome per queried source, in request order
	Sources []fetcher.Outcome[R] `json:"sources"`

	SourcesQueried   int `json:"sources_queried"`
	SourcesSucceeded int `json:"sources_succeeded"`

	// TotalLatencyMs covers fan-out, merge and ranking
	TotalLatencyMs int64 `json:"total_latency_ms"`
}

// NewEnvelope builds an envelope. The source counts are derived from
// outcomes so they cannot drift from the diagnostic entries.
func NewEnvelope[R any, A any](aggregated A, outcomes []fetcher.Outcome[R], elapsed time.Duration) Envelope[R, A] {
	if outcomes == nil {
		outcomes = []fetcher.Outcome[R]{}
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			succeeded++
		}
	}

	return Envelope[R, A]{
		Aggregated:       aggregated,
		Sources:          outcomes,
		SourcesQueried:   len(outcomes),
		SourcesSucceeded: succeeded,
		TotalLatencyMs:   elapsed.Milliseconds(),
	}
}

// Failed returns the outcomes that carry an error.
func (e Envelope[R, A]) Failed() []fetcher.Outcome[R] {
	var out []fetcher.Outcome[R]
	for _, o := range e.Sources {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Sourced is a record tagged with the source that reported it.
type Sourced[R any] struct {
	Source string
	Record R
}

// Collect concatenates the records of every successful outcome, in request
// order. Failed sources contribute nothing.
func Collect[R any](outcomes []fetcher.Outcome[R]) []Sourced[R] {
	n := 0
	for _, o := range outcomes {
		n += len(o.Data)
	}

	out := make([]Sourced[R], 0, n)
	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		for _, r := range o.Data {
			out = append(out, Sourced[R]{Source: o.Source, Record: r})
		}
	}
	return out
}

// Run fans params out through coord, reduces the collected records and
// wraps everything in an envelope. It never fails: failed sources show up in
// the envelope's diagnostics.
func Run[P any, R any, A any](ctx context.Context, coord *coordinator.Coordinator[P, R], params P, reduce func([]Sourced[R]) A) Envelope[R, A] {
	start := coord.Now()

	outcomes := coord.Run(ctx, params)
	aggregated := reduce(Collect(outcomes))

	return NewEnvelope(aggregated, outcomes, coord.Now().Sub(start))
}
