package aggregate

import (
	"context"

	"github.com/yldfi/yldfi-rs-sub001/internal/coordinator"
	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

type (
	// BalanceEnvelope is the result of a portfolio aggregation
	BalanceEnvelope = Envelope[records.TokenBalance, Portfolio]
	// NftEnvelope is the result of an NFT aggregation
	NftEnvelope = Envelope[records.NftEntry, NftCollection]
	// QuoteEnvelope is the result of a swap quote aggregation
	QuoteEnvelope = Envelope[records.SwapQuote, QuoteSummary]
)

// Balances queries every balance source for q and merges their answers.
func Balances(ctx context.Context, sources []fetcher.Source[records.BalanceQuery, records.TokenBalance], q records.BalanceQuery, opts ...coordinator.Option) BalanceEnvelope {
	q.Chain = records.NormalizeChain(q.Chain)
	return Run(ctx, coordinator.New(sources, opts...), q, SummarizePortfolio)
}

// NFTs queries every NFT source for q and merges their answers.
func NFTs(ctx context.Context, sources []fetcher.Source[records.NftQuery, records.NftEntry], q records.NftQuery, opts ...coordinator.Option) NftEnvelope {
	q.Chain = records.NormalizeChain(q.Chain)
	return Run(ctx, coordinator.New(sources, opts...), q, SummarizeNFTs)
}

// Quotes queries every quote source for q and ranks their answers.
func Quotes(ctx context.Context, sources []fetcher.Source[records.QuoteQuery, records.SwapQuote], q records.QuoteQuery, opts ...coordinator.Option) QuoteEnvelope {
	q.Chain = records.NormalizeChain(q.Chain)
	wrapped := make([]fetcher.Source[records.QuoteQuery, records.SwapQuote], len(sources))
	for i, src := range sources {
		wrapped[i] = requireQuote(src)
	}
	return Run(ctx, coordinator.New(wrapped, opts...), q, SummarizeQuotes)
}
