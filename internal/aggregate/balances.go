package aggregate

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// Portfolio is the aggregated view of one wallet's token balances.
type Portfolio struct {
	Tokens   []records.TokenBalance `json:"tokens"`
	TotalUSD decimal.Decimal        `json:"total_usd"`
}

// MergeBalances reconciles balances reported by several sources for the same
// wallet into one record per (chain, contract).
func MergeBalances(in []Sourced[records.TokenBalance]) []records.TokenBalance {
	index := make(map[string]int, len(in))
	out := make([]records.TokenBalance, 0, len(in))

	for _, s := range in {
		b := normalizeBalance(s.Record)
		key := b.Key()

		i, ok := index[key]
		if !ok {
			b.FoundIn = seedSources(b.FoundIn, s.Source)
			index[key] = len(out)
			out = append(out, b)
			continue
		}

		out[i] = reconcileBalance(out[i], b, s.Source)
	}

	sortBalances(out)
	return out
}

func normalizeBalance(b records.TokenBalance) records.TokenBalance {
	b.Chain = records.NormalizeChain(b.Chain)
	b.Contract = records.NormalizeAddress(b.Contract)
	b.Symbol = strings.TrimSpace(b.Symbol)
	b.FoundIn = slices.Clone(b.FoundIn)
	return b
}

func reconcileBalance(stored, in records.TokenBalance, source string) records.TokenBalance {
	foundIn := unionSources(addSource(stored.FoundIn, source), in.FoundIn...)
	symbol := firstText(stored.Symbol, in.Symbol)
	name := firstString(stored.Name, in.Name)

	// Amount, value and price travel together from the preferred report
	kept, other := stored, in
	if prefersBalance(stored, in) {
		kept, other = in, stored
	}
	kept.PriceUSD = firstDecimal(kept.PriceUSD, other.PriceUSD)
	if !kept.USDValue.Valid {
		kept.USDValue = valueAt(kept.Balance, kept.PriceUSD)
	}

	kept.FoundIn = foundIn
	kept.Symbol = symbol
	kept.Name = name
	return kept
}

// prefersBalance reports whether in should replace stored. The larger raw
// amount wins, then the larger USD value, then the larger price. Raw amounts
// are only comparable at the same precision, so stored wins otherwise.
func prefersBalance(stored, in records.TokenBalance) bool {
	if stored.Balance.Decimals != in.Balance.Decimals {
		return false
	}

	s, serr := records.ParseAmount(stored.Balance.Raw)
	i, ierr := records.ParseAmount(in.Balance.Raw)
	switch {
	case serr != nil && ierr != nil:
	case serr != nil:
		return true
	case ierr != nil:
		return false
	case !i.Equal(s):
		return i.GreaterThan(s)
	}

	if c := compareKnown(in.USDValue, stored.USDValue); c != 0 {
		return c > 0
	}
	return compareKnown(in.PriceUSD, stored.PriceUSD) > 0
}

// compareKnown orders a known value above an absent one, then by value.
func compareKnown(a, b decimal.NullDecimal) int {
	switch {
	case a.Valid && b.Valid:
		return a.Decimal.Cmp(b.Decimal)
	case a.Valid:
		return 1
	case b.Valid:
		return -1
	}
	return 0
}

// valueAt prices an amount, absent when the price or the amount is unknown.
func valueAt(a records.Amount, price decimal.NullDecimal) decimal.NullDecimal {
	if !price.Valid {
		return decimal.NullDecimal{}
	}
	raw, err := records.ParseAmount(a.Raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(raw.Shift(-a.Decimals).Mul(price.Decimal))
}

// sortBalances orders by USD value descending, then symbol ascending.
func sortBalances(bs []records.TokenBalance) {
	slices.SortStableFunc(bs, func(a, b records.TokenBalance) int {
		if c := valueOrZero(b.USDValue).Cmp(valueOrZero(a.USDValue)); c != 0 {
			return c
		}
		if c := compareLabels(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
}

// SummarizePortfolio merges balances and totals their USD value.
func SummarizePortfolio(in []Sourced[records.TokenBalance]) Portfolio {
	return newPortfolio(MergeBalances(in))
}

func newPortfolio(tokens []records.TokenBalance) Portfolio {
	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(valueOrZero(t.USDValue))
	}
	return Portfolio{
		Tokens:   tokens,
		TotalUSD: total,
	}
}

// CombineWallets adds up the portfolios of distinct wallets. Unlike
// MergeBalances, balances here belong to different holders and are summed.
func CombineWallets(portfolios ...Portfolio) Portfolio {
	index := make(map[string]int)
	var out []records.TokenBalance

	for _, p := range portfolios {
		for _, t := range p.Tokens {
			t = normalizeBalance(t)
			key := t.Key()

			i, ok := index[key]
			if !ok {
				index[key] = len(out)
				out = append(out, t)
				continue
			}

			out[i] = addBalance(out[i], t)
		}
	}

	if out == nil {
		out = []records.TokenBalance{}
	}
	sortBalances(out)
	return newPortfolio(out)
}

func addBalance(acc, in records.TokenBalance) records.TokenBalance {
	acc.FoundIn = unionSources(acc.FoundIn, in.FoundIn...)
	acc.Symbol = firstText(acc.Symbol, in.Symbol)
	acc.Name = firstString(acc.Name, in.Name)
	acc.PriceUSD = firstDecimal(acc.PriceUSD, in.PriceUSD)

	if acc.USDValue.Valid || in.USDValue.Valid {
		acc.USDValue = decimal.NewNullDecimal(valueOrZero(acc.USDValue).Add(valueOrZero(in.USDValue)))
	}

	a, aerr := records.ParseAmount(acc.Balance.Raw)
	b, berr := records.ParseAmount(in.Balance.Raw)
	switch {
	case berr != nil:
	case aerr != nil:
		acc.Balance = in.Balance
	default:
		// Rescale to the accumulator's precision before adding
		b = b.Shift(acc.Balance.Decimals - in.Balance.Decimals).Truncate(0)
		acc.Balance.Raw = a.Add(b).String()
	}

	return acc
}
