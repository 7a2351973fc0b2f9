package alchemy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

const owner = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nft/v3/test_key/getNFTsForOwner" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewNftSource(t *testing.T) {
	source := NewNftSource("test_key", "", 0)

	require.NotNil(t, source)
	assert.Equal(t, SourceName, source.Name())
	assert.Len(t, source.clients, len(networks))

	client, err := source.clientFor("polygon")
	require.NoError(t, err)
	assert.Equal(t, "https://polygon-mainnet.g.alchemy.com", client.BaseURL())
}

func TestNewNftSource_BaseURLOverride(t *testing.T) {
	source := NewNftSource("test_key", "http://localhost:8080/", 0)

	client, err := source.clientFor("base")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
}

func TestNftSource_Fetch_Success(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, owner, r.URL.Query().Get("owner"))
		assert.Equal(t, "true", r.URL.Query().Get("withMetadata"))

		w.Write([]byte(`{
			"ownedNfts": [
				{
					"contract": {
						"address": "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
						"name": "BoredApeYachtClub",
						"tokenType": "ERC721",
						"openSeaMetadata": {"collectionName": "Bored Ape Yacht Club", "floorPrice": 11.2}
					},
					"tokenId": "1234",
					"tokenType": "ERC721",
					"name": "Ape #1234",
					"image": {"cachedUrl": "https://cdn.alchemy.com/ape.png"},
					"balance": "1"
				},
				{
					"contract": {"address": "0x76BE3b62873462d2142405439777e971754E8E77", "name": "parallel", "tokenType": "ERC1155"},
					"tokenId": "10064",
					"description": "A card",
					"image": {"originalUrl": "ipfs://card"},
					"balance": "2"
				}
			],
			"pageKey": null,
			"totalCount": 2
		}`))
	})

	nfts, err := NewNftSource("test_key", server.URL, 0).Fetch(context.Background(), records.NftQuery{Chain: "eth", Owner: owner})
	require.NoError(t, err)
	require.Len(t, nfts, 2)

	ape := nfts[0]
	assert.Equal(t, "ethereum", ape.Chain)
	assert.Equal(t, "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", ape.Contract)
	assert.Equal(t, "1234", ape.TokenID)
	require.NotNil(t, ape.CollectionName)
	assert.Equal(t, "Bored Ape Yacht Club", *ape.CollectionName)
	require.NotNil(t, ape.ImageURL)
	assert.Equal(t, "https://cdn.alchemy.com/ape.png", *ape.ImageURL)
	assert.False(t, ape.FloorPriceUSD.Valid, "ETH floor price must not be reported as USD")

	card := nfts[1]
	assert.Equal(t, "2", card.Balance)
	require.NotNil(t, card.Standard)
	assert.Equal(t, "ERC1155", *card.Standard)
	require.NotNil(t, card.CollectionName)
	assert.Equal(t, "parallel", *card.CollectionName)
	require.NotNil(t, card.ImageURL)
	assert.Equal(t, "ipfs://card", *card.ImageURL)
	assert.Nil(t, card.Name)
}

func TestNftSource_Fetch_FollowsPageKey(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageKey") == "" {
			w.Write([]byte(`{"ownedNfts": [{"contract": {"address": "0x1111111111111111111111111111111111111111"}, "tokenId": "1"}], "pageKey": "next"}`))
			return
		}
		w.Write([]byte(`{"ownedNfts": [{"contract": {"address": "0x1111111111111111111111111111111111111111"}, "tokenId": "2"}]}`))
	})

	nfts, err := NewNftSource("test_key", server.URL, 0).Fetch(context.Background(), records.NftQuery{Chain: "eth", Owner: owner})
	require.NoError(t, err)
	require.Len(t, nfts, 2)
	assert.Equal(t, "1", nfts[0].TokenID)
	assert.Equal(t, "2", nfts[1].TokenID)
}

func TestNftSource_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		status int
		body   string
		chain  string
		want   fetcher.ErrorType
	}{
		{name: "wrong key", key: "wrong", chain: "eth", want: fetcher.ErrorTypeClient},
		{name: "server error", key: "test_key", status: http.StatusServiceUnavailable, chain: "eth", want: fetcher.ErrorTypeServer},
		{name: "missing token id", key: "test_key", body: `{"ownedNfts": [{"contract": {"address": "0x1111111111111111111111111111111111111111"}}]}`, chain: "eth", want: fetcher.ErrorTypeValidation},
		{name: "unsupported chain", key: "test_key", chain: "solana", want: fetcher.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
					return
				}
				w.Write([]byte(tt.body))
			})

			_, err := NewNftSource(tt.key, server.URL, 0).Fetch(context.Background(), records.NftQuery{Chain: tt.chain, Owner: owner})
			require.Error(t, err)
			assert.Equal(t, tt.want, fetcher.Classify(err))
		})
	}
}
