package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/yldfi/yldfi-rs-sub001/internal/fetcher"
	"github.com/yldfi/yldfi-rs-sub001/internal/ratelimit"
	"github.com/yldfi/yldfi-rs-sub001/internal/records"
)

// SourceName is the name recorded in outcomes and found_in sets
const SourceName = "etherscan"

const nativeDecimals = 18

// nativeSymbols maps a chain to the symbol of its gas token
var nativeSymbols = map[string]string{
	"ethereum":  "ETH",
	"arbitrum":  "ETH",
	"optimism":  "ETH",
	"base":      "ETH",
	"polygon":   "POL",
	"bsc":       "BNB",
	"avalanche": "AVAX",
}

// apiResponse is the envelope every Etherscan endpoint returns.
// Result is a string, an object, or an error message depending on the call.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// nativePrice is the result of the stats/ethprice action
type nativePrice struct {
	EthBTC          string `json:"ethbtc"`
	EthBTCTimestamp string `json:"ethbtc_timestamp"`
	EthUSD          string `json:"ethusd"`
	EthUSDTimestamp string `json:"ethusd_timestamp"`
}

// BalanceSource reports a wallet's native asset balance, valued in USD
type BalanceSource struct {
	apiKey  string
	client  *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewBalanceSource creates a new Etherscan balance source
func NewBalanceSource(apiKey, baseURL string, retryCount int) *BalanceSource {
	return &BalanceSource{
		apiKey:  apiKey,
		client:  fetcher.NewHTTPClient(baseURL, retryCount),
		limiter: ratelimit.GetLimiter(),
		logger:  slog.Default(),
	}
}

// Name implements fetcher.Source
func (s *BalanceSource) Name() string {
	return SourceName
}

// call runs one Etherscan action and returns its raw result
func (s *BalanceSource) call(ctx context.Context, chainID int64, params map[string]string) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx, ratelimit.APIEtherscan); err != nil {
		return nil, fetcher.ClassifyRequestError(err)
	}

	var result apiResponse

	req := s.client.R().
		SetContext(ctx).
		SetQueryParam("chainid", strconv.FormatInt(chainID, 10)).
		SetQueryParam("apikey", s.apiKey).
		SetQueryParams(params).
		SetResult(&result)

	resp, err := fetcher.Get(req, "")
	if err != nil {
		return nil, err
	}

	if result.Status != "1" {
		// Etherscan reports errors with HTTP 200 and status "0"
		var msg string
		if json.Unmarshal(result.Result, &msg) != nil || msg == "" {
			msg = result.Message
		}
		return nil, fetcher.NewClientError(resp.StatusCode(), fmt.Sprintf("etherscan %s: %s", params["action"], msg))
	}

	return result.Result, nil
}

// fetchNativePrice gets the current native asset price in USD
func (s *BalanceSource) fetchNativePrice(ctx context.Context, chainID int64) (decimal.Decimal, error) {
	raw, err := s.call(ctx, chainID, map[string]string{
		"module": "stats",
		"action": "ethprice",
	})
	if err != nil {
		return decimal.Zero, err
	}

	var price nativePrice
	if err := json.Unmarshal(raw, &price); err != nil {
		return decimal.Zero, fetcher.NewValidationError("malformed price result")
	}

	if price.EthUSD == "" {
		return decimal.Zero, fetcher.NewValidationError("native price not found in response")
	}

	usd, err := decimal.NewFromString(price.EthUSD)
	if err != nil {
		return decimal.Zero, fetcher.NewValidationError(fmt.Sprintf("failed to parse native price: %s", price.EthUSD))
	}

	return usd, nil
}

// fetchBalance gets the native balance in wei
func (s *BalanceSource) fetchBalance(ctx context.Context, chainID int64, address string) (string, error) {
	raw, err := s.call(ctx, chainID, map[string]string{
		"module":  "account",
		"action":  "balance",
		"address": address,
		"tag":     "latest",
	})
	if err != nil {
		return "", err
	}

	var wei string
	if err := json.Unmarshal(raw, &wei); err != nil || wei == "" {
		return "", fetcher.NewValidationError("balance not found in response")
	}

	if _, err := records.ParseAmount(wei); err != nil {
		return "", fetcher.NewValidationError(fmt.Sprintf("failed to parse balance: %s", wei))
	}

	return wei, nil
}

// Fetch implements fetcher.Source
func (s *BalanceSource) Fetch(ctx context.Context, q records.BalanceQuery) ([]records.TokenBalance, error) {
	chain := records.NormalizeChain(q.Chain)
	chainID, ok := records.ChainID(chain)
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported chain: %s", q.Chain))
	}

	wei, err := s.fetchBalance(ctx, chainID, q.Address)
	if err != nil {
		return nil, err
	}

	symbol := nativeSymbols[chain]
	balance := records.TokenBalance{
		Chain:    chain,
		Contract: records.NativeAsset,
		Symbol:   symbol,
		Balance:  records.Amount{Raw: wei, Decimals: nativeDecimals},
	}

	// A missing price leaves the balance unvalued rather than failing it
	price, err := s.fetchNativePrice(ctx, chainID)
	if err != nil {
		s.logger.Debug("native price unavailable", "chain", chain, "error", err)
		return []records.TokenBalance{balance}, nil
	}

	amount, _ := records.ParseAmount(wei)
	balance.PriceUSD = decimal.NewNullDecimal(price)
	balance.USDValue = decimal.NewNullDecimal(amount.Shift(-nativeDecimals).Mul(price))

	return []records.TokenBalance{balance}, nil
}
