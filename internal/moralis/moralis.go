// Package moralis maps the Moralis Web3 Data API onto canonical balance and
// NFT records.
package moralis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/ratelimit"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// SourceName is the name recorded in outcomes and found_in sets
const SourceName = "moralis"

// maxPages bounds cursor pagination per query
const maxPages = 10

// moralisChains maps canonical chain names to Moralis chain identifiers
var moralisChains = map[string]string{
	"ethereum":  "eth",
	"polygon":   "polygon",
	"bsc":       "bsc",
	"arbitrum":  "arbitrum",
	"optimism":  "optimism",
	"base":      "base",
	"avalanche": "avalanche",
}

// tokenEntry is one row of GET /wallets/{address}/tokens
type tokenEntry struct {
	TokenAddress  string   `json:"token_address"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Decimals      flexInt  `json:"decimals"`
	Balance       string   `json:"balance"`
	USDPrice      *float64 `json:"usd_price"`
	USDValue      *float64 `json:"usd_value"`
	NativeToken   bool     `json:"native_token"`
	PossibleSpam  bool     `json:"possible_spam"`
	VerifiedToken bool     `json:"verified_contract"`
}

type tokensResponse struct {
	Cursor string       `json:"cursor"`
	Result []tokenEntry `json:"result"`
}

// nftEntry is one row of GET /{address}/nft
type nftEntry struct {
	TokenAddress       string `json:"token_address"`
	TokenID            string `json:"token_id"`
	Amount             string `json:"amount"`
	ContractType       string `json:"contract_type"`
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	PossibleSpam       bool   `json:"possible_spam"`
	FloorPriceUSD      string `json:"floor_price_usd"`
	NormalizedMetadata struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Image       string `json:"image"`
	} `json:"normalized_metadata"`
}

type nftsResponse struct {
	Cursor string     `json:"cursor"`
	Result []nftEntry `json:"result"`
}

// flexInt decodes integers Moralis sometimes sends as strings
type flexInt int32

// UnmarshalJSON implements json.Unmarshaler
func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid decimals %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// Client talks to the Moralis API
type Client struct {
	apiKey  string
	client  *resty.Client
	limiter *ratelimit.Limiter

	// IncludeSpam keeps tokens Moralis flags as possible spam
	IncludeSpam bool
}

// NewClient creates a new Moralis client
func NewClient(apiKey, baseURL string, retryCount int) *Client {
	client := fetcher.NewHTTPClient(baseURL, retryCount).
		SetHeader("X-API-Key", apiKey)

	return &Client{
		apiKey:  apiKey,
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// Balances returns a source reporting the wallet's token balances
func (c *Client) Balances() fetcher.Source[records.BalanceQuery, records.TokenBalance] {
	return fetcher.SourceFunc[records.BalanceQuery, records.TokenBalance]{
		SourceName: SourceName,
		FetchFunc:  c.FetchBalances,
	}
}

// NFTs returns a source reporting the wallet's NFTs
func (c *Client) NFTs() fetcher.Source[records.NftQuery, records.NftEntry] {
	return fetcher.SourceFunc[records.NftQuery, records.NftEntry]{
		SourceName: SourceName,
		FetchFunc:  c.FetchNFTs,
	}
}

func chainParam(chain string) (string, string, error) {
	canonical := records.NormalizeChain(chain)
	id, ok := moralisChains[canonical]
	if !ok {
		return "", "", fetcher.NewValidationError(fmt.Sprintf("unsupported chain: %s", chain))
	}
	return canonical, id, nil
}

// FetchBalances retrieves every token balance held by q.Address
func (c *Client) FetchBalances(ctx context.Context, q records.BalanceQuery) ([]records.TokenBalance, error) {
	chain, chainID, err := chainParam(q.Chain)
	if err != nil {
		return nil, err
	}

	var out []records.TokenBalance
	cursor := ""
	for page := 0; page < maxPages; page++ {
		if err := c.limiter.Wait(ctx, ratelimit.APIMoralis); err != nil {
			return nil, fetcher.ClassifyRequestError(err)
		}

		var result tokensResponse
		req := c.client.R().
			SetContext(ctx).
			SetPathParam("address", q.Address).
			SetQueryParam("chain", chainID).
			SetResult(&result)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		if _, err := fetcher.Get(req, "/wallets/{address}/tokens"); err != nil {
			return nil, fmt.Errorf("moralis tokens for %s: %w", q.Address, err)
		}

		for _, t := range result.Result {
			if t.PossibleSpam && !c.IncludeSpam {
				continue
			}
			b, err := toBalance(chain, t)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}

		if result.Cursor == "" {
			break
		}
		cursor = result.Cursor
	}

	return out, nil
}

func toBalance(chain string, t tokenEntry) (records.TokenBalance, error) {
	if _, err := records.ParseAmount(t.Balance); err != nil {
		return records.TokenBalance{}, fetcher.NewValidationError(fmt.Sprintf("token %s: %v", t.TokenAddress, err))
	}

	contract := t.TokenAddress
	if t.NativeToken {
		contract = records.NativeAsset
	}

	b := records.TokenBalance{
		Chain:    chain,
		Contract: records.NormalizeAddress(contract),
		Symbol:   t.Symbol,
		Name:     records.StringPtr(t.Name),
		Balance:  records.Amount{Raw: t.Balance, Decimals: int32(t.Decimals)},
	}
	if t.USDPrice != nil {
		b.PriceUSD = decimal.NewNullDecimal(decimal.NewFromFloat(*t.USDPrice))
	}
	if t.USDValue != nil {
		b.USDValue = decimal.NewNullDecimal(decimal.NewFromFloat(*t.USDValue))
	}
	return b, nil
}

// FetchNFTs retrieves every NFT owned by q.Owner
func (c *Client) FetchNFTs(ctx context.Context, q records.NftQuery) ([]records.NftEntry, error) {
	chain, chainID, err := chainParam(q.Chain)
	if err != nil {
		return nil, err
	}

	var out []records.NftEntry
	cursor := ""
	for page := 0; page < maxPages; page++ {
		if err := c.limiter.Wait(ctx, ratelimit.APIMoralis); err != nil {
			return nil, fetcher.ClassifyRequestError(err)
		}

		var result nftsResponse
		req := c.client.R().
			SetContext(ctx).
			SetPathParam("address", q.Owner).
			SetQueryParams(map[string]string{
				"chain":             chainID,
				"format":            "decimal",
				"normalizeMetadata": "true",
				"include_prices":    "true",
				"exclude_spam":      strconv.FormatBool(!c.IncludeSpam),
				"media_items":       "false",
			}).
			SetResult(&result)
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		if _, err := fetcher.Get(req, "/{address}/nft"); err != nil {
			return nil, fmt.Errorf("moralis nfts for %s: %w", q.Owner, err)
		}

		for _, n := range result.Result {
			if n.TokenAddress == "" || n.TokenID == "" {
				return nil, fetcher.NewValidationError("nft without contract or token id")
			}
			out = append(out, toNft(chain, n))
		}

		if result.Cursor == "" {
			break
		}
		cursor = result.Cursor
	}

	return out, nil
}

func toNft(chain string, n nftEntry) records.NftEntry {
	name := n.NormalizedMetadata.Name
	if name == "" {
		name = n.Name
	}

	return records.NftEntry{
		Chain:          chain,
		Contract:       records.NormalizeAddress(n.TokenAddress),
		TokenID:        n.TokenID,
		Balance:        strings.TrimSpace(n.Amount),
		Standard:       records.StringPtr(n.ContractType),
		Name:           records.StringPtr(name),
		Description:    records.StringPtr(n.NormalizedMetadata.Description),
		ImageURL:       records.StringPtr(n.NormalizedMetadata.Image),
		CollectionName: records.StringPtr(n.Name),
		FloorPriceUSD:  records.NullDecimalFromString(n.FloorPriceUSD),
	}
}
