package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource identifies which upstream produced a quote.
type PriceSource int

const (
	SourceCoinMarketCap PriceSource = iota
	SourcePancakeSwap
)

func (s PriceSource) String() string {
	switch s {
	case SourceCoinMarketCap:
		return "CoinMarketCap"
	case SourcePancakeSwap:
		return "PancakeSwap"
	default:
		return "unknown"
	}
}

// DisplayMode controls the scale used when rendering prices.
// BigNumber currencies are quoted per 1B / 1T tokens because a single
// token is worth a fraction of a cent.
type DisplayMode int

const (
	DisplayStandard DisplayMode = iota
	DisplayBigNumber
)

// CurrencyDescriptor is the registry entry for a tracked currency.
// Descriptors are immutable values keyed by their canonical upper-case
// symbol; mutations go through the registry, which replaces the whole entry.
type CurrencyDescriptor struct {
	Symbol          string           `json:"symbol" validate:"required"`
	ProviderID      int              `json:"provider_id" validate:"required,gt=0"`
	ContractAddress string           `json:"contract_address" validate:"required,eth_addr"`
	BurnAddress     *string          `json:"burn_address,omitempty" validate:"omitempty,eth_addr"`
	Decimals        int64            `json:"decimals" validate:"required,gt=0"`
	DisplayMode     DisplayMode      `json:"display_mode"`
	FixedSupply     *decimal.Decimal `json:"fixed_supply,omitempty"`
}

// HumanUnits converts a raw integer on-chain amount into human units by
// dividing by the descriptor's decimals divisor.
func (d CurrencyDescriptor) HumanUnits(raw decimal.Decimal) decimal.Decimal {
	return raw.DivRound(decimal.NewFromInt(d.Decimals), 18)
}

// RawQuote is what a price provider returns before aggregation.
// Supply is zero when the provider cannot report it.
type RawQuote struct {
	PriceUSD       decimal.Decimal
	Supply         decimal.Decimal
	PercentChanges map[string]float64
	LastUpdatedAt  time.Time
	Source         PriceSource
}

// Quote is the aggregated, cached snapshot of a currency.
// PriceEUR and BurnBalance are nil when fiat conversion degraded or the
// currency has no burn tracking.
type Quote struct {
	Symbol         string             `json:"symbol"`
	PriceUSD       decimal.Decimal    `json:"price_usd"`
	PriceEUR       *decimal.Decimal   `json:"price_eur,omitempty"`
	Supply         decimal.Decimal    `json:"supply"`
	PercentChanges map[string]float64 `json:"percent_changes,omitempty"`
	MarketCap      decimal.Decimal    `json:"market_cap"`
	BurnBalance    *decimal.Decimal   `json:"burn_balance,omitempty"`
	LastUpdatedAt  time.Time          `json:"last_updated_at"`
	Source         PriceSource        `json:"source"`
	CachedAt       time.Time          `json:"cached_at"`
}

// BurnPercentage returns the share of supply held by the burn address,
// or zero when burn tracking is off or supply is unknown.
func (q *Quote) BurnPercentage() decimal.Decimal {
	if q.BurnBalance == nil || q.Supply.IsZero() {
		return decimal.Zero
	}
	return q.BurnBalance.Div(q.Supply)
}

// BalanceResult is the outcome of a balance lookup. Not cached.
type BalanceResult struct {
	Symbol        string           `json:"symbol"`
	Address       string           `json:"address"`
	RawBalance    decimal.Decimal  `json:"raw_balance"`
	HumanBalance  decimal.Decimal  `json:"human_balance"`
	ValueUSD      decimal.Decimal  `json:"value_usd"`
	ValueEUR      *decimal.Decimal `json:"value_eur,omitempty"`
	IsBurnAddress bool             `json:"is_burn_address"`
}
