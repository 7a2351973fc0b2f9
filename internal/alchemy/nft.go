// Package alchemy maps Alchemy's NFT API v3 onto canonical NFT records.
package alchemy

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/ratelimit"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// SourceName is the name recorded in outcomes and found_in sets
const SourceName = "alchemy"

const (
	pageSize = 100
	maxPages = 10
)

// networks maps canonical chain names to Alchemy network subdomains
var networks = map[string]string{
	"ethereum":  "eth-mainnet",
	"polygon":   "polygon-mainnet",
	"arbitrum":  "arb-mainnet",
	"optimism":  "opt-mainnet",
	"base":      "base-mainnet",
	"bsc":       "bnb-mainnet",
	"avalanche": "avax-mainnet",
}

type ownedNFT struct {
	Contract struct {
		Address         string `json:"address"`
		Name            string `json:"name"`
		TokenType       string `json:"tokenType"`
		OpenSeaMetadata struct {
			CollectionName string   `json:"collectionName"`
			FloorPrice     *float64 `json:"floorPrice"`
		} `json:"openSeaMetadata"`
	} `json:"contract"`
	TokenID     string `json:"tokenId"`
	TokenType   string `json:"tokenType"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       struct {
		CachedURL   string `json:"cachedUrl"`
		OriginalURL string `json:"originalUrl"`
	} `json:"image"`
	Balance string `json:"balance"`
}

type ownerResponse struct {
	OwnedNFTs  []ownedNFT `json:"ownedNfts"`
	PageKey    string     `json:"pageKey"`
	TotalCount int        `json:"totalCount"`
}

// NftSource reports the NFTs owned by a wallet
type NftSource struct {
	apiKey  string
	baseURL string
	retries int
	limiter *ratelimit.Limiter

	// clients caches one HTTP client per base URL
	clients map[string]*resty.Client
}

// NewNftSource creates a new Alchemy NFT source. When baseURL is empty the
// per-network Alchemy host is used.
func NewNftSource(apiKey, baseURL string, retryCount int) *NftSource {
	s := &NftSource{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: retryCount,
		limiter: ratelimit.GetLimiter(),
		clients: make(map[string]*resty.Client),
	}
	// Build every client up front so Fetch never writes the map concurrently
	if s.baseURL != "" {
		s.clients[s.baseURL] = fetcher.NewHTTPClient(s.baseURL, retryCount)
	} else {
		for _, network := range networks {
			host := networkHost(network)
			s.clients[host] = fetcher.NewHTTPClient(host, retryCount)
		}
	}
	return s
}

// Name implements fetcher.Source
func (s *NftSource) Name() string {
	return SourceName
}

func networkHost(network string) string {
	return fmt.Sprintf("https://%s.g.alchemy.com", network)
}

func (s *NftSource) clientFor(chain string) (*resty.Client, error) {
	network, ok := networks[chain]
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported chain: %s", chain))
	}
	if s.baseURL != "" {
		return s.clients[s.baseURL], nil
	}
	return s.clients[networkHost(network)], nil
}

// Fetch implements fetcher.Source
func (s *NftSource) Fetch(ctx context.Context, q records.NftQuery) ([]records.NftEntry, error) {
	chain := records.NormalizeChain(q.Chain)
	client, err := s.clientFor(chain)
	if err != nil {
		return nil, err
	}

	var out []records.NftEntry
	pageKey := ""
	for page := 0; page < maxPages; page++ {
		if err := s.limiter.Wait(ctx, ratelimit.APIAlchemy); err != nil {
			return nil, fetcher.ClassifyRequestError(err)
		}

		var result ownerResponse
		req := client.R().
			SetContext(ctx).
			SetPathParam("apiKey", s.apiKey).
			SetQueryParams(map[string]string{
				"owner":        q.Owner,
				"withMetadata": "true",
				"pageSize":     fmt.Sprint(pageSize),
			}).
			SetResult(&result)
		if pageKey != "" {
			req.SetQueryParam("pageKey", pageKey)
		}

		if _, err := fetcher.Get(req, "/nft/v3/{apiKey}/getNFTsForOwner"); err != nil {
			return nil, fmt.Errorf("alchemy nfts for %s: %w", q.Owner, err)
		}

		for _, n := range result.OwnedNFTs {
			if n.Contract.Address == "" || n.TokenID == "" {
				return nil, fetcher.NewValidationError("nft without contract or token id")
			}
			out = append(out, toNft(chain, n))
		}

		if result.PageKey == "" {
			break
		}
		pageKey = result.PageKey
	}

	return out, nil
}

// toNft maps one owned NFT. Alchemy's floor price is quoted in ETH, not USD,
// so FloorPriceUSD stays absent.
func toNft(chain string, n ownedNFT) records.NftEntry {
	standard := n.TokenType
	if standard == "" {
		standard = n.Contract.TokenType
	}

	collection := n.Contract.OpenSeaMetadata.CollectionName
	if collection == "" {
		collection = n.Contract.Name
	}

	image := n.Image.CachedURL
	if image == "" {
		image = n.Image.OriginalURL
	}

	return records.NftEntry{
		Chain:          chain,
		Contract:       records.NormalizeAddress(n.Contract.Address),
		TokenID:        n.TokenID,
		Balance:        strings.TrimSpace(n.Balance),
		Standard:       records.StringPtr(standard),
		Name:           records.StringPtr(n.Name),
		Description:    records.StringPtr(n.Description),
		ImageURL:       records.StringPtr(image),
		CollectionName: records.StringPtr(collection),
	}
}
