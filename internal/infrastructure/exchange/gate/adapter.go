// Package gate reads the Gate.io USDT futures REST feeds.
package gate

import (
	"encoding/json"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/infrastructure/exchange"
)

const (
	Name = "gate"

	DefaultTickerURL = "https://api.gateio.ws/api/v4/futures/usdt/tickers"
	DefaultMetaURL   = "https://api.gateio.ws/api/v4/futures/usdt/contracts"
)

type Adapter struct {
	ep exchange.Endpoints
}

var _ port.Adapter = (*Adapter)(nil)

func NewAdapter(ep exchange.Endpoints) *Adapter {
	return &Adapter{ep: ep}
}

func (a *Adapter) Name() string      { return Name }
func (a *Adapter) TickerURL() string { return a.ep.TickerURL }
func (a *Adapter) MetaURL() string   { return a.ep.MetaURL }

// ParseTicker reads contract, last, highest_bid, lowest_ask and mark_price.
// Gate tickers carry no timestamp so nowMs is always used. Empty strings in
// the optional price fields mean the side is absent.
func (a *Adapter) ParseTicker(row json.RawMessage, nowMs int64) (port.Ticker, bool) {
	f, ok := exchange.Fields(row)
	if !ok {
		return port.Ticker{}, false
	}
	sym := exchange.String(f["contract"])
	if sym == "" {
		return port.Ticker{}, false
	}
	last, present, err := exchange.Float(f["last"])
	if err != nil || !present {
		return port.Ticker{}, false
	}
	bid, err := exchange.OptionalFloat(f["highest_bid"], true)
	if err != nil {
		return port.Ticker{}, false
	}
	ask, err := exchange.OptionalFloat(f["lowest_ask"], true)
	if err != nil {
		return port.Ticker{}, false
	}
	fair, err := exchange.OptionalFloat(f["mark_price"], true)
	if err != nil {
		return port.Ticker{}, false
	}
	return port.Ticker{
		Symbol: sym,
		Price:  model.PriceEntry{Last: last, Bid: bid, Ask: ask, Fair: fair, Ts: nowMs},
	}, true
}

func (a *Adapter) MetaSymbol(row json.RawMessage) (string, bool) {
	f, ok := exchange.Fields(row)
	if !ok {
		return "", false
	}
	sym := exchange.String(f["name"])
	return sym, sym != ""
}

func (a *Adapter) MetaPayload(row json.RawMessage) model.MetaEntry {
	f, _ := exchange.Fields(row)
	return model.MetaEntry{
		PriceTick:         exchange.LooseFloat(f["order_price_round"]),
		MarkPriceTick:     exchange.LooseFloat(f["mark_price_round"]),
		SizeMin:           exchange.LooseFloat(f["order_size_min"]),
		SizeMax:           exchange.LooseFloat(f["order_size_max"]),
		MakerFeeRate:      exchange.LooseFloat(f["maker_fee_rate"]),
		TakerFeeRate:      exchange.LooseFloat(f["taker_fee_rate"]),
		ContractSize:      exchange.LooseFloat(f["quanto_multiplier"]),
		PositionSize:      exchange.LooseFloat(f["size"]),
		LeverageMin:       exchange.LooseFloat(f["leverage_min"]),
		LeverageMax:       exchange.LooseFloat(f["leverage_max"]),
		MaintenanceRate:   exchange.LooseFloat(f["maintenance_rate"]),
		FundingInterval:   exchange.LooseFloat(f["funding_interval"]),
		FundingRateLimit:  exchange.LooseFloat(f["funding_rate_limit"]),
		SpreadProtectRate: exchange.LooseFloat(f["spread_protect_rate"]),
		Status:            exchange.String(f["status"]),
	}
}

// MaxSize is order_size_max.
func (a *Adapter) MaxSize(meta *model.MetaEntry) *float64 {
	if meta == nil {
		return nil
	}
	return meta.SizeMax
}
