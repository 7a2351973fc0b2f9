// Package oneinch maps the 1inch Swap API v6 onto canonical swap quotes.
package oneinch

import (
	"context"
	"fmt"
	"strconv"

	"resty.dev/v3"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/ratelimit"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// SourceName is the name recorded in outcomes and found_in sets
const SourceName = "1inch"

// protocolHop is one leg of a 1inch route
type protocolHop struct {
	Name             string  `json:"name"`
	Part             float64 `json:"part"`
	FromTokenAddress string  `json:"fromTokenAddress"`
	ToTokenAddress   string  `json:"toTokenAddress"`
}

type quoteResponse struct {
	DstAmount string `json:"dstAmount"`
	// Protocols is a list of routes, each a list of steps, each a list of hops
	Protocols [][][]protocolHop `json:"protocols"`
	Gas       int64             `json:"gas"`
}

// QuoteSource asks 1inch for the expected output of a swap
type QuoteSource struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewQuoteSource creates a new 1inch quote source
func NewQuoteSource(apiKey, baseURL string, retryCount int) *QuoteSource {
	client := fetcher.NewHTTPClient(baseURL, retryCount).
		SetAuthToken(apiKey)

	return &QuoteSource{
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// Name implements fetcher.Source
func (s *QuoteSource) Name() string {
	return SourceName
}

// Fetch implements fetcher.Source
func (s *QuoteSource) Fetch(ctx context.Context, q records.QuoteQuery) ([]records.SwapQuote, error) {
	chainID, ok := records.ChainID(q.Chain)
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported chain: %s", q.Chain))
	}
	if _, err := records.ParseAmount(q.SellAmount); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("sell amount: %v", err))
	}

	if err := s.limiter.Wait(ctx, ratelimit.APIOneInch); err != nil {
		return nil, fetcher.ClassifyRequestError(err)
	}

	var result quoteResponse
	req := s.client.R().
		SetContext(ctx).
		SetPathParam("chain", strconv.FormatInt(chainID, 10)).
		SetQueryParams(map[string]string{
			"src":              records.SwapToken(q.SellToken),
			"dst":              records.SwapToken(q.BuyToken),
			"amount":           q.SellAmount,
			"includeProtocols": "true",
			"includeGas":       "true",
		}).
		SetResult(&result)

	if _, err := fetcher.Get(req, "/swap/v6.0/{chain}/quote"); err != nil {
		return nil, fmt.Errorf("1inch quote: %w", err)
	}

	return []records.SwapQuote{toQuote(result)}, nil
}

func toQuote(r quoteResponse) records.SwapQuote {
	quote := records.SwapQuote{Source: SourceName}

	if _, err := records.ParseAmount(r.DstAmount); err != nil {
		quote.Error = fmt.Sprintf("invalid destination amount: %v", err)
		return quote
	}
	quote.AmountOut = r.DstAmount

	seen := make(map[string]struct{})
	for _, route := range r.Protocols {
		for _, step := range route {
			for _, hop := range step {
				if hop.Name == "" {
					continue
				}
				if _, ok := seen[hop.Name]; ok {
					continue
				}
				seen[hop.Name] = struct{}{}
				quote.Protocols = append(quote.Protocols, hop.Name)
			}
		}
	}

	return quote
}
