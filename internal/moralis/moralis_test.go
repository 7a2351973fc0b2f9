package moralis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

const wallet = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test_key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	client := NewClient("test_key", "https://deep-index.moralis.io/api/v2.2", 0)

	require.NotNil(t, client)
	assert.Equal(t, "test_key", client.apiKey)
	assert.Equal(t, SourceName, client.Balances().Name())
	assert.Equal(t, SourceName, client.NFTs().Name())
}

func TestFetchBalances_Success(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallets/"+wallet+"/tokens", r.URL.Path)
		assert.Equal(t, "eth", r.URL.Query().Get("chain"))

		w.Write([]byte(`{
			"cursor": null,
			"result": [
				{
					"token_address": "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
					"symbol": "ETH",
					"name": "Ether",
					"decimals": 18,
					"balance": "2000000000000000000",
					"usd_price": 3000.5,
					"usd_value": 6001,
					"native_token": true
				},
				{
					"token_address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
					"symbol": "USDC",
					"name": "USD Coin",
					"decimals": "6",
					"balance": "1500000",
					"usd_price": 1,
					"usd_value": 1.5,
					"native_token": false
				},
				{
					"token_address": "0x1111111111111111111111111111111111111111",
					"symbol": "SCAM",
					"decimals": 18,
					"balance": "1",
					"possible_spam": true
				}
			]
		}`))
	})

	balances, err := NewClient("test_key", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "ethereum", Address: wallet})
	require.NoError(t, err)
	require.Len(t, balances, 2)

	eth := balances[0]
	assert.Equal(t, "ethereum", eth.Chain)
	assert.Equal(t, records.NativeAsset, eth.Contract)
	assert.Equal(t, "2000000000000000000", eth.Balance.Raw)
	assert.Equal(t, int32(18), eth.Balance.Decimals)
	assert.True(t, eth.USDValue.Valid)
	assert.Equal(t, "6001", eth.USDValue.Decimal.String())

	usdc := balances[1]
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", usdc.Contract)
	assert.Equal(t, int32(6), usdc.Balance.Decimals)
	require.NotNil(t, usdc.Name)
	assert.Equal(t, "USD Coin", *usdc.Name)
	assert.Equal(t, "1.5", usdc.USDValue.Decimal.String())
}

func TestFetchBalances_MissingPriceIsAbsent(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [{"token_address": "0x1111111111111111111111111111111111111111", "symbol": "OBS", "decimals": 18, "balance": "5", "usd_price": null, "usd_value": null}]}`))
	})

	balances, err := NewClient("test_key", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "eth", Address: wallet})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.False(t, balances[0].PriceUSD.Valid)
	assert.False(t, balances[0].USDValue.Valid)
	assert.Nil(t, balances[0].Name)
}

func TestFetchBalances_FollowsCursor(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"cursor": "page2", "result": [{"token_address": "0x1111111111111111111111111111111111111111", "symbol": "A", "decimals": 18, "balance": "1"}]}`))
			return
		}
		w.Write([]byte(`{"cursor": "", "result": [{"token_address": "0x2222222222222222222222222222222222222222", "symbol": "B", "decimals": 18, "balance": "2"}]}`))
	})

	balances, err := NewClient("test_key", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "eth", Address: wallet})
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "A", balances[0].Symbol)
	assert.Equal(t, "B", balances[1].Symbol)
}

func TestFetchBalances_InvalidBalance(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [{"token_address": "0x1111111111111111111111111111111111111111", "decimals": 18, "balance": "1.5e18"}]}`))
	})

	_, err := NewClient("test_key", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "eth", Address: wallet})

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fetcher.ErrorTypeValidation, fe.Type)
}

func TestFetchBalances_HTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   fetcher.ErrorType
	}{
		{"rate limited", http.StatusTooManyRequests, fetcher.ErrorTypeRateLimit},
		{"server error", http.StatusBadGateway, fetcher.ErrorTypeServer},
		{"bad request", http.StatusBadRequest, fetcher.ErrorTypeClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := NewClient("test_key", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "eth", Address: wallet})

			var fe *fetcher.FetchError
			require.True(t, errors.As(err, &fe), "error = %v", err)
			assert.Equal(t, tt.want, fe.Type)
		})
	}
}

func TestFetchBalances_WrongKey(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached with a wrong key")
	})

	_, err := NewClient("wrong", server.URL, 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "eth", Address: wallet})
	assert.Equal(t, fetcher.ErrorTypeClient, fetcher.Classify(err))
}

func TestFetchBalances_UnsupportedChain(t *testing.T) {
	_, err := NewClient("test_key", "http://localhost", 0).FetchBalances(context.Background(), records.BalanceQuery{Chain: "solana", Address: wallet})
	assert.Equal(t, fetcher.ErrorTypeValidation, fetcher.Classify(err))
}

func TestFetchNFTs_Success(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+wallet+"/nft", r.URL.Path)
		assert.Equal(t, "polygon", r.URL.Query().Get("chain"))
		assert.Equal(t, "true", r.URL.Query().Get("include_prices"))

		w.Write([]byte(`{
			"result": [
				{
					"token_address": "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D",
					"token_id": "1234",
					"amount": "1",
					"contract_type": "ERC721",
					"name": "BoredApeYachtClub",
					"floor_price_usd": "35000.25",
					"normalized_metadata": {
						"name": "Ape #1234",
						"description": "An ape",
						"image": "ipfs://ape"
					}
				},
				{
					"token_address": "0x76BE3b62873462d2142405439777e971754E8E77",
					"token_id": "10064",
					"amount": "3",
					"contract_type": "ERC1155",
					"name": "parallel",
					"normalized_metadata": {}
				}
			]
		}`))
	})

	nfts, err := NewClient("test_key", server.URL, 0).FetchNFTs(context.Background(), records.NftQuery{Chain: "matic", Owner: wallet})
	require.NoError(t, err)
	require.Len(t, nfts, 2)

	ape := nfts[0]
	assert.Equal(t, "polygon", ape.Chain)
	assert.Equal(t, "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", ape.Contract)
	assert.Equal(t, "1234", ape.TokenID)
	require.NotNil(t, ape.Name)
	assert.Equal(t, "Ape #1234", *ape.Name)
	require.NotNil(t, ape.CollectionName)
	assert.Equal(t, "BoredApeYachtClub", *ape.CollectionName)
	assert.True(t, ape.FloorPriceUSD.Valid)
	assert.Equal(t, "35000.25", ape.FloorPriceUSD.Decimal.String())

	multi := nfts[1]
	assert.Equal(t, "3", multi.Balance)
	require.NotNil(t, multi.Standard)
	assert.Equal(t, "ERC1155", *multi.Standard)
	assert.Nil(t, multi.Description)
	assert.False(t, multi.FloorPriceUSD.Valid)
}

func TestFetchNFTs_MissingTokenID(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": [{"token_address": "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"}]}`))
	})

	_, err := NewClient("test_key", server.URL, 0).FetchNFTs(context.Background(), records.NftQuery{Chain: "eth", Owner: wallet})
	assert.Equal(t, fetcher.ErrorTypeValidation, fetcher.Classify(err))
}
