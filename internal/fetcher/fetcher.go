package fetcher

import "context"

// Source is the contract every provider adapter implements.
// P is the query type and R the canonical record type the adapter produces.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_source.go -source=fetcher.go Source
type Source[P any, R any] interface {
	// Name returns the provider name recorded in outcomes and found_in sets.
	// Examples:
	//   - etherscan
	//   - moralis
	//   - 1inch
	Name() string

	// Fetch queries the provider and maps its answer onto canonical records.
	// Returns an error if the provider could not be queried or its payload
	// could not be mapped.
	Fetch(ctx context.Context, params P) ([]R, error)
}

// SourceFunc adapts a plain function to the Source contract.
type SourceFunc[P any, R any] struct {
	SourceName string
	FetchFunc  func(ctx context.Context, params P) ([]R, error)
}

// Name implements the Source interface
func (s SourceFunc[P, R]) Name() string {
	return s.SourceName
}

// Fetch implements the Source interface
func (s SourceFunc[P, R]) Fetch(ctx context.Context, params P) ([]R, error) {
	return s.FetchFunc(ctx, params)
}
