package records

import (
	"github.com/shopspring/decimal"
)

// NativeAsset is the contract marker used for a chain's native asset (ETH, MATIC, ...).
const NativeAsset = "native"

// Amount is a raw on-chain quantity together with the number of decimals
// needed to render it in whole units.
type Amount struct {
	// Raw is the integer amount in the token's smallest unit, as a decimal string
	Raw string `json:"raw"`

	// Decimals is the token's decimal precision
	Decimals int32 `json:"decimals"`
}

// TokenBalance is the canonical token holding as reported by one or more providers.
type TokenBalance struct {
	Chain    string              `json:"chain"`
	Contract string              `json:"contract"`
	Symbol   string              `json:"symbol"`
	Name     *string             `json:"name,omitempty"`
	Balance  Amount              `json:"balance"`
	PriceUSD decimal.NullDecimal `json:"price_usd"`
	USDValue decimal.NullDecimal `json:"usd_value"`

	// FoundIn lists every source that reported this balance, each at most once
	FoundIn []string `json:"found_in"`
}

// Key returns the identity key of the balance.
func (b TokenBalance) Key() string {
	return BalanceKey(b.Chain, b.Contract)
}

// NftEntry is the canonical NFT holding.
type NftEntry struct {
	Chain    string `json:"chain"`
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`

	// Balance is the number of copies held; greater than one only for multi-supply tokens
	Balance string `json:"balance"`

	Standard       *string             `json:"standard,omitempty"`
	Name           *string             `json:"name,omitempty"`
	Description    *string             `json:"description,omitempty"`
	ImageURL       *string             `json:"image_url,omitempty"`
	CollectionName *string             `json:"collection_name,omitempty"`
	FloorPriceUSD  decimal.NullDecimal `json:"floor_price_usd"`

	FoundIn []string `json:"found_in"`
}

// Key returns the identity key of the NFT.
func (n NftEntry) Key() string {
	return NftKey(n.Chain, n.Contract, n.TokenID)
}

// Transaction is the ready-to-sign payload some aggregators attach to a quote.
type Transaction struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gas_price,omitempty"`
}

// SwapQuote is one source's answer to a swap quote request.
type SwapQuote struct {
	Source string `json:"source"`

	// AmountOut is the integer buy amount in the buy token's smallest unit
	AmountOut string `json:"amount_out"`

	GasUSD      decimal.NullDecimal `json:"gas_usd"`
	PriceImpact decimal.NullDecimal `json:"price_impact"`
	Protocols   []string            `json:"protocols,omitempty"`
	Tx          *Transaction        `json:"tx,omitempty"`

	// Error is set when the source answered but could not produce a usable quote
	Error string `json:"error,omitempty"`
}

// Key returns the identity key of the quote.
func (q SwapQuote) Key() string {
	return QuoteKey(q.Source)
}

// BalanceQuery asks for every token balance held by Address on Chain.
type BalanceQuery struct {
	Chain   string
	Address string
}

// NftQuery asks for every NFT owned by Owner on Chain.
type NftQuery struct {
	Chain string
	Owner string
}

// QuoteQuery asks for the amount of BuyToken received for SellAmount of SellToken.
type QuoteQuery struct {
	Chain      string
	SellToken  string
	BuyToken   string
	SellAmount string
	Taker      string
}
