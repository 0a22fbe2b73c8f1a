// Package mexc reads the MEXC contract REST feeds. Ourbit serves the same
// format and reuses ContractAdapter under its own name.
package mexc

import (
	"encoding/json"
	"math"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/infrastructure/exchange"
)

const (
	Name = "mexc"

	DefaultTickerURL = "https://futures.mexc.com/api/v1/contract/ticker?"
	DefaultMetaURL   = "https://contract.mexc.com/api/v1/contract/detail"
)

// ContractAdapter handles the MEXC contract API row format.
type ContractAdapter struct {
	name string
	ep   exchange.Endpoints
}

var _ port.Adapter = (*ContractAdapter)(nil)

func NewContractAdapter(name string, ep exchange.Endpoints) *ContractAdapter {
	return &ContractAdapter{name: name, ep: ep}
}

func (a *ContractAdapter) Name() string      { return a.name }
func (a *ContractAdapter) TickerURL() string { return a.ep.TickerURL }
func (a *ContractAdapter) MetaURL() string   { return a.ep.MetaURL }

// ParseTicker reads symbol, lastPrice (or lastprice), bid1, ask1, fairPrice
// and timestamp. A missing, zero or unreadable timestamp becomes nowMs.
func (a *ContractAdapter) ParseTicker(row json.RawMessage, nowMs int64) (port.Ticker, bool) {
	f, ok := exchange.Fields(row)
	if !ok {
		return port.Ticker{}, false
	}
	sym := exchange.String(f["symbol"])
	if sym == "" {
		return port.Ticker{}, false
	}
	rawLast := f["lastPrice"]
	if v, present, err := exchange.Float(rawLast); err == nil && (!present || v == 0) {
		if _, alt, _ := exchange.Float(f["lastprice"]); alt {
			rawLast = f["lastprice"]
		}
	}
	last, present, err := exchange.Float(rawLast)
	if err != nil || !present {
		return port.Ticker{}, false
	}
	bid, err := exchange.OptionalFloat(f["bid1"], false)
	if err != nil {
		return port.Ticker{}, false
	}
	ask, err := exchange.OptionalFloat(f["ask1"], false)
	if err != nil {
		return port.Ticker{}, false
	}
	fair, err := exchange.OptionalFloat(f["fairPrice"], false)
	if err != nil {
		return port.Ticker{}, false
	}
	return port.Ticker{
		Symbol: sym,
		Price: model.PriceEntry{
			Last: last,
			Bid:  bid,
			Ask:  ask,
			Fair: fair,
			Ts:   timestamp(f["timestamp"], nowMs),
		},
	}, true
}

func timestamp(raw json.RawMessage, nowMs int64) int64 {
	v, present, err := exchange.Float(raw)
	if err != nil || !present || v <= 0 || v > math.MaxInt64 {
		return nowMs
	}
	return int64(v)
}

func (a *ContractAdapter) MetaSymbol(row json.RawMessage) (string, bool) {
	f, ok := exchange.Fields(row)
	if !ok {
		return "", false
	}
	sym := exchange.String(f["symbol"])
	return sym, sym != ""
}

func (a *ContractAdapter) MetaPayload(row json.RawMessage) model.MetaEntry {
	f, _ := exchange.Fields(row)
	return model.MetaEntry{
		PriceTick:    exchange.LooseFloat(f["priceUnit"]),
		VolUnit:      exchange.LooseFloat(f["volUnit"]),
		ContractSize: exchange.LooseFloat(f["contractSize"]),
		PriceScale:   exchange.LooseFloat(f["priceScale"]),
		VolScale:     exchange.LooseFloat(f["volScale"]),
		SizeMin:      exchange.LooseFloat(f["minVol"]),
		SizeMax:      exchange.LooseFloat(f["maxVol"]),
		LeverageMax:  exchange.LooseFloat(f["maxLeverage"]),
		AmountScale:  exchange.LooseFloat(f["amountScale"]),
		MakerFeeRate: exchange.LooseFloat(f["makerFeeRate"]),
		TakerFeeRate: exchange.LooseFloat(f["takerFeeRate"]),
		SettleCoin:   exchange.String(f["settleCoin"]),
	}
}

// MaxSize is maxVol.
func (a *ContractAdapter) MaxSize(meta *model.MetaEntry) *float64 {
	if meta == nil {
		return nil
	}
	return meta.SizeMax
}
