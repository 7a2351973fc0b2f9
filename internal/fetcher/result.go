package fetcher

import (
	"errors"
	"time"
)

// Outcome is what one source produced during a fan-out.
// Exactly one of Data and Error is populated: Data is non-nil (possibly
// empty) on success and nil when Error is set.
type Outcome[R any] struct {
	// Source is the adapter name
	Source string `json:"source"`

	// Data holds the canonical records returned by the source
	Data []R `json:"data"`

	// Error is the adapter error message, empty on success
	Error string `json:"error,omitempty"`

	// ErrorKind classifies Error using the FetchError taxonomy
	ErrorKind ErrorType `json:"error_kind,omitempty"`

	// LatencyMs is the wall-clock time spent inside the adapter call
	LatencyMs int64 `json:"latency_ms"`

	// Timestamp is when the adapter call completed
	Timestamp time.Time `json:"timestamp"`
}

// Succeeded reports whether the source returned data.
func (o Outcome[R]) Succeeded() bool {
	return o.Error == ""
}

// NewOutcome builds an outcome from an adapter's return values.
func NewOutcome[R any](source string, data []R, err error, latency time.Duration, at time.Time) Outcome[R] {
	out := Outcome[R]{
		Source:    source,
		LatencyMs: latency.Milliseconds(),
		Timestamp: at,
	}

	if err != nil {
		out.Error = err.Error()
		if out.Error == "" {
			out.Error = string(ErrorTypeUnknown)
		}
		out.ErrorKind = Classify(err)
		return out
	}

	if data == nil {
		data = []R{}
	}
	out.Data = data
	return out
}

// Classify returns the ErrorType of err, or ErrorTypeUnknown when err is not a FetchError.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ErrorTypeUnknown
}
