package records

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// chainAliases maps the spellings providers and users use to a canonical chain name.
var chainAliases = map[string]string{
	"eth":       "ethereum",
	"mainnet":   "ethereum",
	"ethereum":  "ethereum",
	"1":         "ethereum",
	"0x1":       "ethereum",
	"matic":     "polygon",
	"polygon":   "polygon",
	"137":       "polygon",
	"0x89":      "polygon",
	"arb":       "arbitrum",
	"arbitrum":  "arbitrum",
	"42161":     "arbitrum",
	"0xa4b1":    "arbitrum",
	"op":        "optimism",
	"optimism":  "optimism",
	"10":        "optimism",
	"0xa":       "optimism",
	"base":      "base",
	"8453":      "base",
	"0x2105":    "base",
	"bsc":       "bsc",
	"bnb":       "bsc",
	"56":        "bsc",
	"0x38":      "bsc",
	"avalanche": "avalanche",
	"avax":      "avalanche",
	"43114":     "avalanche",
	"0xa86a":    "avalanche",
}

var chainIDs = map[string]int64{
	"ethereum":  1,
	"optimism":  10,
	"bsc":       56,
	"polygon":   137,
	"base":      8453,
	"arbitrum":  42161,
	"avalanche": 43114,
}

// nativeMarkers are the placeholder addresses providers use for the native asset.
var nativeMarkers = map[string]struct{}{
	NativeAsset: {},
	"":          {},
	"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee": {},
	"0x0000000000000000000000000000000000000000": {},
}

// NormalizeChain returns the canonical lower-case chain name. Unknown names are
// lower-cased and trimmed but otherwise kept.
func NormalizeChain(chain string) string {
	c := strings.ToLower(strings.TrimSpace(chain))
	if norm, ok := chainAliases[c]; ok {
		return norm
	}
	return c
}

// ChainID returns the EVM chain id of a chain name or alias.
func ChainID(chain string) (int64, bool) {
	id, ok := chainIDs[NormalizeChain(chain)]
	return id, ok
}

// NormalizeAddress lower-cases a contract address and folds the various native
// asset placeholders into NativeAsset.
func NormalizeAddress(addr string) string {
	a := strings.ToLower(strings.TrimSpace(addr))
	if _, ok := nativeMarkers[a]; ok {
		return NativeAsset
	}
	if common.IsHexAddress(a) {
		return strings.ToLower(common.HexToAddress(a).Hex())
	}
	return a
}

// IsNative reports whether addr designates the native asset.
func IsNative(addr string) bool {
	return NormalizeAddress(addr) == NativeAsset
}

// BalanceKey is the identity key of a token balance.
func BalanceKey(chain, contract string) string {
	return NormalizeChain(chain) + ":" + NormalizeAddress(contract)
}

// NftKey is the identity key of an NFT.
func NftKey(chain, contract, tokenID string) string {
	return NormalizeChain(chain) + ":" + NormalizeAddress(contract) + ":" + strings.ToLower(strings.TrimSpace(tokenID))
}

// QuoteKey is the identity key of a swap quote.
func QuoteKey(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}

// ParseAmount parses a non-negative integer amount. Amounts are never parsed as floats.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid integer amount: %q", s)
	}
	if n.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("negative amount: %q", s)
	}
	return decimal.NewFromBigInt(n, 0), nil
}

// FormatUnits renders a raw amount in whole units, e.g. ("1500000", 6) -> "1.5".
func FormatUnits(a Amount) (string, error) {
	raw, err := ParseAmount(a.Raw)
	if err != nil {
		return "", err
	}
	return raw.Shift(-a.Decimals).String(), nil
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NullDecimalFromString parses an optional decimal value; anything unparsable is absent.
func NullDecimalFromString(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// NativePlaceholder is the address swap aggregators accept for a chain's native asset.
const NativePlaceholder = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// SwapToken returns the address a swap aggregator expects for token, mapping
// every native marker to NativePlaceholder.
func SwapToken(token string) string {
	if IsNative(token) {
		return NativePlaceholder
	}
	return strings.TrimSpace(token)
}
