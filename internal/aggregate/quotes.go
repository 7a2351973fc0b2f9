package aggregate

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// QuoteSummary is the ranked view of swap quotes from several sources.
type QuoteSummary struct {
	// Best is the successful quote with the largest amount out, nil when no source produced one
	Best *records.SwapQuote `json:"best"`

	// Quotes lists successful quotes by amount out descending, then failed ones in request order
	Quotes []records.SwapQuote `json:"quotes"`

	// SpreadPct is (best - worst) / worst * 100 over successful quotes; absent below two quotes
	SpreadPct *float64 `json:"spread_pct,omitempty"`

	// ImprovementPct is how much more the best quote returns than the worst successful one
	ImprovementPct *float64 `json:"improvement_pct,omitempty"`
}

// MergeQuotes folds duplicate reports from the same source into one quote,
// keeping first appearance order.
func MergeQuotes(in []Sourced[records.SwapQuote]) []records.SwapQuote {
	index := make(map[string]int, len(in))
	out := make([]records.SwapQuote, 0, len(in))

	for _, s := range in {
		q := s.Record
		q.Source = firstText(strings.TrimSpace(q.Source), s.Source)
		q.Protocols = slices.Clone(q.Protocols)
		key := q.Key()

		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, q)
			continue
		}

		out[i] = reconcileQuote(out[i], q)
	}

	return out
}

func reconcileQuote(stored, in records.SwapQuote) records.SwapQuote {
	// A usable answer supersedes a failed one from the same source
	if stored.Error != "" && in.Error == "" {
		return in
	}
	if in.Error != "" {
		return stored
	}

	stored.AmountOut = maxAmount(stored.AmountOut, in.AmountOut)
	stored.GasUSD = firstDecimal(stored.GasUSD, in.GasUSD)
	stored.PriceImpact = firstDecimal(stored.PriceImpact, in.PriceImpact)
	if len(stored.Protocols) == 0 {
		stored.Protocols = in.Protocols
	}
	if stored.Tx == nil {
		stored.Tx = in.Tx
	}
	return stored
}

type rankedQuote struct {
	quote  records.SwapQuote
	amount decimal.Decimal
}

// RankQuotes picks the best quote by amount out, compared as arbitrary
// precision integers. Quotes carrying an error or an unparsable amount are
// never eligible. Equal amounts keep input order, so the earliest requested
// source wins ties.
func RankQuotes(quotes []records.SwapQuote) QuoteSummary {
	var ok []rankedQuote
	var failed []records.SwapQuote

	for _, q := range quotes {
		if q.Error != "" {
			failed = append(failed, q)
			continue
		}
		amount, err := records.ParseAmount(q.AmountOut)
		if err != nil {
			q.Error = "invalid amount_out: " + err.Error()
			failed = append(failed, q)
			continue
		}
		ok = append(ok, rankedQuote{quote: q, amount: amount})
	}

	slices.SortStableFunc(ok, func(a, b rankedQuote) int {
		return b.amount.Cmp(a.amount)
	})

	summary := QuoteSummary{
		Quotes: make([]records.SwapQuote, 0, len(quotes)),
	}
	for _, r := range ok {
		summary.Quotes = append(summary.Quotes, r.quote)
	}
	summary.Quotes = append(summary.Quotes, failed...)

	if len(ok) == 0 {
		return summary
	}

	best := ok[0].quote
	summary.Best = &best

	if len(ok) < 2 {
		return summary
	}

	worst := ok[len(ok)-1].amount
	if worst.IsZero() {
		return summary
	}

	spread := ok[0].amount.Sub(worst).Div(worst).Mul(decimal.NewFromInt(100)).InexactFloat64()
	improvement := spread
	summary.SpreadPct = &spread
	summary.ImprovementPct = &improvement

	return summary
}

// requireQuote turns an answer made only of errored or unparsable quotes into
// a no_quote failure, so the source does not count as succeeded. An empty
// answer stays a success.
func requireQuote(src fetcher.Source[records.QuoteQuery, records.SwapQuote]) fetcher.Source[records.QuoteQuery, records.SwapQuote] {
	return fetcher.SourceFunc[records.QuoteQuery, records.SwapQuote]{
		SourceName: src.Name(),
		FetchFunc: func(ctx context.Context, q records.QuoteQuery) ([]records.SwapQuote, error) {
			quotes, err := src.Fetch(ctx, q)
			if err != nil || len(quotes) == 0 {
				return quotes, err
			}

			reasons := make([]string, 0, len(quotes))
			for _, quote := range quotes {
				if quote.Error != "" {
					reasons = append(reasons, quote.Error)
					continue
				}
				if _, perr := records.ParseAmount(quote.AmountOut); perr != nil {
					reasons = append(reasons, "invalid amount_out: "+perr.Error())
					continue
				}
				return quotes, nil
			}
			return nil, fetcher.NewNoQuoteError(strings.Join(reasons, "; "))
		},
	}
}

// SummarizeQuotes merges and ranks quotes.
func SummarizeQuotes(in []Sourced[records.SwapQuote]) QuoteSummary {
	return RankQuotes(MergeQuotes(in))
}
