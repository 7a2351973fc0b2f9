package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

func usd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func str(s string) *string {
	return &s
}

// Scenario B: the same token seen by two providers, only one of which knows the floor.
func TestMergeNFTs_FillsMissingFloorPrice(t *testing.T) {
	t.Parallel()

	merged := MergeNFTs([]Sourced[records.NftEntry]{
		{Source: "alchemy", Record: records.NftEntry{
			Chain:    "ethereum",
			Contract: "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
			TokenID:  "1234",
			Name:     str("Ape #1234"),
		}},
		{Source: "moralis", Record: records.NftEntry{
			Chain:          "eth",
			Contract:       "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d",
			TokenID:        "1234",
			Name:           str("BAYC 1234"),
			CollectionName: str("BoredApeYachtClub"),
			FloorPriceUSD:  usd("12.5"),
		}},
	})

	require.Len(t, merged, 1)
	got := merged[0]
	require.True(t, got.FloorPriceUSD.Valid)
	assert.True(t, got.FloorPriceUSD.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.ElementsMatch(t, []string{"alchemy", "moralis"}, got.FoundIn)
	assert.Equal(t, "Ape #1234", *got.Name, "first known name wins")
	assert.Equal(t, "BoredApeYachtClub", *got.CollectionName)
	assert.Equal(t, "1", got.Balance)
}

func TestMergeNFTs_NoDuplicateKeys(t *testing.T) {
	t.Parallel()

	in := []Sourced[records.NftEntry]{
		{Source: "alchemy", Record: records.NftEntry{Chain: "ETH", Contract: "0xAA", TokenID: "0x1F"}},
		{Source: "moralis", Record: records.NftEntry{Chain: "ethereum", Contract: "0xaa", TokenID: "0x1f"}},
		{Source: "moralis", Record: records.NftEntry{Chain: "ethereum", Contract: "0xaa", TokenID: "0x20"}},
		{Source: "alchemy", Record: records.NftEntry{Chain: "polygon", Contract: "0xaa", TokenID: "0x1f"}},
	}

	merged := MergeNFTs(in)
	require.Len(t, merged, 3)

	seen := map[string]bool{}
	for _, n := range merged {
		assert.False(t, seen[n.Key()], "duplicate key %s", n.Key())
		seen[n.Key()] = true
	}
}

func TestMergeNFTs_FoundInIsDedupedSuperset(t *testing.T) {
	t.Parallel()

	merged := MergeNFTs([]Sourced[records.NftEntry]{
		{Source: "alchemy", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1", FoundIn: []string{"opensea"}}},
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1", FoundIn: []string{"opensea", "moralis"}}},
		{Source: "alchemy", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1"}},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, []string{"alchemy", "opensea", "moralis"}, merged[0].FoundIn)
}

func TestMergeNFTs_MultiSupplyBalanceIsReconciledNotSummed(t *testing.T) {
	t.Parallel()

	merged := MergeNFTs([]Sourced[records.NftEntry]{
		{Source: "alchemy", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "7", Balance: "3"}},
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "7", Balance: "5"}},
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "7", Balance: "5"}},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "5", merged[0].Balance)
}

func TestMergeNFTs_CommutativeForDisjointFields(t *testing.T) {
	t.Parallel()

	a := Sourced[records.NftEntry]{Source: "alchemy", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1", ImageURL: str("ipfs://a")}}
	b := Sourced[records.NftEntry]{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1", FloorPriceUSD: usd("3")}}
	c := Sourced[records.NftEntry]{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x2", TokenID: "9", CollectionName: str("Zed")}}

	ab := MergeNFTs([]Sourced[records.NftEntry]{a, b, c})
	ba := MergeNFTs([]Sourced[records.NftEntry]{c, b, a})

	require.Len(t, ab, 2)
	require.Len(t, ba, 2)
	for i := range ab {
		assert.Equal(t, ab[i].Key(), ba[i].Key())
		assert.ElementsMatch(t, ab[i].FoundIn, ba[i].FoundIn)
		assert.Equal(t, ab[i].ImageURL, ba[i].ImageURL)
		assert.Equal(t, ab[i].FloorPriceUSD, ba[i].FloorPriceUSD)
	}
}

func TestMergeNFTs_SortByFloorThenCollection(t *testing.T) {
	t.Parallel()

	merged := MergeNFTs([]Sourced[records.NftEntry]{
		{Source: "s", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1"}},
		{Source: "s", Record: records.NftEntry{Chain: "eth", Contract: "0x2", TokenID: "1", CollectionName: str("beta"), FloorPriceUSD: usd("5")}},
		{Source: "s", Record: records.NftEntry{Chain: "eth", Contract: "0x3", TokenID: "1", CollectionName: str("Alpha"), FloorPriceUSD: usd("5")}},
		{Source: "s", Record: records.NftEntry{Chain: "eth", Contract: "0x4", TokenID: "1", CollectionName: str("gamma"), FloorPriceUSD: usd("50")}},
		{Source: "s", Record: records.NftEntry{Chain: "eth", Contract: "0x5", TokenID: "1", CollectionName: str("delta")}},
	})

	var order []string
	for _, n := range merged {
		order = append(order, n.Contract)
	}
	assert.Equal(t, []string{"0x4", "0x3", "0x2", "0x5", "0x1"}, order)
}

func TestSummarizeNFTs(t *testing.T) {
	t.Parallel()

	summary := SummarizeNFTs([]Sourced[records.NftEntry]{
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "1", FloorPriceUSD: usd("10")}},
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x1", TokenID: "2", FloorPriceUSD: usd("10")}},
		{Source: "moralis", Record: records.NftEntry{Chain: "eth", Contract: "0x2", TokenID: "5", Balance: "4", FloorPriceUSD: usd("0.5")}},
		{Source: "alchemy", Record: records.NftEntry{Chain: "eth", Contract: "0x3", TokenID: "1"}},
	})

	assert.Len(t, summary.Items, 4)
	assert.Equal(t, 3, summary.Collections)
	assert.True(t, summary.TotalFloorUSD.Equal(decimal.NewFromInt(22)), "total = %s", summary.TotalFloorUSD)
}
