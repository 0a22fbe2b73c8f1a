package model

// PriceEntry is the latest ticker for one (exchange, symbol).
// Bid, Ask and Fair are nil when the exchange did not report them.
type PriceEntry struct {
	Last float64  `json:"last"`
	Bid  *float64 `json:"bid"`
	Ask  *float64 `json:"ask"`
	Fair *float64 `json:"fair"`
	Ts   int64    `json:"ts"` // unix ms
}

// MetaEntry holds contract metadata published by an exchange.
// Field names are normalized across exchanges; the adapters document which
// upstream key feeds each field.
type MetaEntry struct {
	PriceTick         *float64 `json:"price_tick,omitempty"`      // gate order_price_round, mexc priceUnit
	MarkPriceTick     *float64 `json:"mark_price_tick,omitempty"` // gate mark_price_round
	VolUnit           *float64 `json:"vol_unit,omitempty"`        // mexc volUnit
	ContractSize      *float64 `json:"contract_size,omitempty"`   // gate quanto_multiplier, mexc contractSize
	PriceScale        *float64 `json:"price_scale,omitempty"`
	VolScale          *float64 `json:"vol_scale,omitempty"`
	AmountScale       *float64 `json:"amount_scale,omitempty"`
	SizeMin           *float64 `json:"size_min,omitempty"` // gate order_size_min, mexc minVol
	SizeMax           *float64 `json:"size_max,omitempty"` // gate order_size_max, mexc maxVol
	PositionSize      *float64 `json:"position_size,omitempty"`
	LeverageMin       *float64 `json:"leverage_min,omitempty"`
	LeverageMax       *float64 `json:"leverage_max,omitempty"`
	MakerFeeRate      *float64 `json:"maker_fee_rate,omitempty"`
	TakerFeeRate      *float64 `json:"taker_fee_rate,omitempty"`
	MaintenanceRate   *float64 `json:"maintenance_rate,omitempty"`
	FundingInterval   *float64 `json:"funding_interval,omitempty"`
	FundingRateLimit  *float64 `json:"funding_rate_limit,omitempty"`
	SpreadProtectRate *float64 `json:"spread_protect_rate,omitempty"`
	SettleCoin        string   `json:"settle_coin,omitempty"`
	Status            string   `json:"status,omitempty"`

	// RefreshedAt is the unix ms time of the metadata poll that wrote this entry.
	RefreshedAt int64 `json:"refreshed_at"`
}

// NormalizedRecord is the canonical quote shape served to clients.
// It is built on demand and never stored.
type NormalizedRecord struct {
	Exchange string     `json:"exchange"`
	Symbol   string     `json:"symbol"`
	Last     float64    `json:"last"`
	Bid      *float64   `json:"bid"`
	Ask      *float64   `json:"ask"`
	Fair     *float64   `json:"fair"`
	Ts       int64      `json:"ts"`
	MaxSize  *float64   `json:"max_size"`
	Meta     *MetaEntry `json:"meta,omitempty"`
}

// PriceEntry returns the price part of the record.
func (r NormalizedRecord) PriceEntry() PriceEntry {
	return PriceEntry{Last: r.Last, Bid: r.Bid, Ask: r.Ask, Fair: r.Fair, Ts: r.Ts}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
