package aggregate

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// NftCollection is the aggregated view of one owner's NFTs.
type NftCollection struct {
	Items []records.NftEntry `json:"items"`

	// TotalFloorUSD sums floor price times balance over items with a known floor
	TotalFloorUSD decimal.Decimal `json:"total_floor_usd"`

	// Collections is the number of distinct contracts held
	Collections int `json:"collections"`
}

// MergeNFTs reconciles NFT holdings reported by several sources into one
// record per (chain, contract, token id).
func MergeNFTs(in []Sourced[records.NftEntry]) []records.NftEntry {
	index := make(map[string]int, len(in))
	out := make([]records.NftEntry, 0, len(in))

	for _, s := range in {
		n := normalizeNft(s.Record)
		key := n.Key()

		i, ok := index[key]
		if !ok {
			n.FoundIn = seedSources(n.FoundIn, s.Source)
			index[key] = len(out)
			out = append(out, n)
			continue
		}

		out[i] = reconcileNft(out[i], n, s.Source)
	}

	sortNFTs(out)
	return out
}

func normalizeNft(n records.NftEntry) records.NftEntry {
	n.Chain = records.NormalizeChain(n.Chain)
	n.Contract = records.NormalizeAddress(n.Contract)
	n.TokenID = strings.ToLower(strings.TrimSpace(n.TokenID))
	if strings.TrimSpace(n.Balance) == "" {
		n.Balance = "1"
	}
	n.FoundIn = slices.Clone(n.FoundIn)
	return n
}

func reconcileNft(stored, in records.NftEntry, source string) records.NftEntry {
	stored.FoundIn = unionSources(addSource(stored.FoundIn, source), in.FoundIn...)

	stored.Balance = maxAmount(stored.Balance, in.Balance)
	stored.Standard = firstString(stored.Standard, in.Standard)
	stored.Name = firstString(stored.Name, in.Name)
	stored.Description = firstString(stored.Description, in.Description)
	stored.ImageURL = firstString(stored.ImageURL, in.ImageURL)
	stored.CollectionName = firstString(stored.CollectionName, in.CollectionName)
	stored.FloorPriceUSD = firstDecimal(stored.FloorPriceUSD, in.FloorPriceUSD)

	return stored
}

// sortNFTs orders by floor price descending, then collection name ascending.
func sortNFTs(ns []records.NftEntry) {
	slices.SortStableFunc(ns, func(a, b records.NftEntry) int {
		if c := valueOrZero(b.FloorPriceUSD).Cmp(valueOrZero(a.FloorPriceUSD)); c != 0 {
			return c
		}
		if c := compareLabels(deref(a.CollectionName), deref(b.CollectionName)); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
}

// SummarizeNFTs merges NFT holdings and totals their floor value.
func SummarizeNFTs(in []Sourced[records.NftEntry]) NftCollection {
	items := MergeNFTs(in)

	total := decimal.Zero
	contracts := make(map[string]struct{}, len(items))
	for _, n := range items {
		contracts[n.Chain+":"+n.Contract] = struct{}{}
		if !n.FloorPriceUSD.Valid {
			continue
		}
		count, err := records.ParseAmount(n.Balance)
		if err != nil {
			count = decimal.NewFromInt(1)
		}
		total = total.Add(n.FloorPriceUSD.Decimal.Mul(count))
	}

	return NftCollection{
		Items:         items,
		TotalFloorUSD: total,
		Collections:   len(contracts),
	}
}
