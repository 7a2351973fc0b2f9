package testutil

import (
	"context"
	"sync/atomic"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
)

// MockSource is a mock implementation of the Source interface for testing
type MockSource[P any, R any] struct {
	NameValue string
	FetchFunc func(ctx context.Context, params P) ([]R, error)

	calls atomic.Int32
}

// Name implements the Source interface
func (m *MockSource[P, R]) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// Fetch implements the Source interface
func (m *MockSource[P, R]) Fetch(ctx context.Context, params P) ([]R, error) {
	m.calls.Add(1)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, params)
	}
	return nil, nil
}

// Calls returns how many times Fetch was invoked
func (m *MockSource[P, R]) Calls() int {
	return int(m.calls.Load())
}

// NewMockSource creates a simple mock source with predefined records
func NewMockSource[P any, R any](name string, records []R, err error) *MockSource[P, R] {
	return &MockSource[P, R]{
		NameValue: name,
		FetchFunc: func(ctx context.Context, params P) ([]R, error) {
			return records, err
		},
	}
}

// Sources converts mock sources to the Source interface slice the coordinator takes
func Sources[P any, R any](mocks ...*MockSource[P, R]) []fetcher.Source[P, R] {
	out := make([]fetcher.Source[P, R], len(mocks))
	for i, m := range mocks {
		out[i] = m
	}
	return out
}
