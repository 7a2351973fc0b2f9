// Package zeroex maps the 0x Swap API v2 onto canonical swap quotes.
package zeroex

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
const SourceName = "0x"

const (
	quotePath = "/swap/allowance-holder/quote"
	pricePath = "/swap/allowance-holder/price"
)

type fill struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Source        string `json:"source"`
	ProportionBps string `json:"proportionBps"`
}

type quoteResponse struct {
	LiquidityAvailable *bool  `json:"liquidityAvailable"`
	BuyAmount          string `json:"buyAmount"`
	SellAmount         string `json:"sellAmount"`
	Route              struct {
		Fills []fill `json:"fills"`
	} `json:"route"`
	Transaction *struct {
		To       string `json:"to"`
		Data     string `json:"data"`
		Value    string `json:"value"`
		Gas      string `json:"gas"`
		GasPrice string `json:"gasPrice"`
	} `json:"transaction"`
}

// QuoteSource asks 0x for the best route of a swap
type QuoteSource struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// NewQuoteSource creates a new 0x quote source
func NewQuoteSource(apiKey, baseURL string, retryCount int) *QuoteSource {
	client := fetcher.NewHTTPClient(baseURL, retryCount).
		SetHeader("0x-api-key", apiKey).
		SetHeader("0x-version", "v2")

	return &QuoteSource{
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// Name implements fetcher.Source
func (s *QuoteSource) Name() string {
	return SourceName
}

// Fetch implements fetcher.Source. Without a taker only an indicative price is
// requested and the quote carries no transaction.
func (s *QuoteSource) Fetch(ctx context.Context, q records.QuoteQuery) ([]records.SwapQuote, error) {
	chainID, ok := records.ChainID(q.Chain)
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported chain: %s", q.Chain))
	}
	if _, err := records.ParseAmount(q.SellAmount); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("sell amount: %v", err))
	}

	if err := s.limiter.Wait(ctx, ratelimit.APIZeroEx); err != nil {
		return nil, fetcher.ClassifyRequestError(err)
	}

	params := map[string]string{
		"chainId":    strconv.FormatInt(chainID, 10),
		"sellToken":  records.SwapToken(q.SellToken),
		"buyToken":   records.SwapToken(q.BuyToken),
		"sellAmount": q.SellAmount,
	}
	path := pricePath
	if q.Taker != "" {
		params["taker"] = q.Taker
		path = quotePath
	}

	var result quoteResponse
	req := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result)

	if _, err := fetcher.Get(req, path); err != nil {
		return nil, fmt.Errorf("0x quote: %w", err)
	}

	return []records.SwapQuote{toQuote(result)}, nil
}

// toQuote maps a 0x answer. An answer without liquidity or a usable buy amount
// is still a quote, flagged with Error so ranking skips it.
func toQuote(r quoteResponse) records.SwapQuote {
	quote := records.SwapQuote{Source: SourceName}

	if r.LiquidityAvailable != nil && !*r.LiquidityAvailable {
		quote.Error = "no liquidity available"
		return quote
	}
	if _, err := records.ParseAmount(r.BuyAmount); err != nil {
		quote.Error = fmt.Sprintf("invalid buy amount: %v", err)
		return quote
	}
	quote.AmountOut = r.BuyAmount

	seen := make(map[string]struct{})
	for _, f := range r.Route.Fills {
		if f.Source == "" {
			continue
		}
		if _, ok := seen[f.Source]; ok {
			continue
		}
		seen[f.Source] = struct{}{}
		quote.Protocols = append(quote.Protocols, f.Source)
	}

	if t := r.Transaction; t != nil && t.To != "" {
		quote.Tx = &records.Transaction{
			To:       t.To,
			Data:     t.Data,
			Value:    t.Value,
			Gas:      t.Gas,
			GasPrice: t.GasPrice,
		}
	}

	return quote
}
