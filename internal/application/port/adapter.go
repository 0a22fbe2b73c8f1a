package port

import (
	"encoding/json"

	"spreadscope/internal/domain/model"
)

// Ticker is one accepted ticker row.
type Ticker struct {
	Symbol string
	Price  model.PriceEntry
}

// Adapter describes one exchange's REST feeds and how to read its rows.
type Adapter interface {
	Name() string
	TickerURL() string
	MetaURL() string

	// ParseTicker returns false for rows without a symbol or last price, or
	// with a price field that is not numeric. nowMs fills a missing timestamp.
	ParseTicker(row json.RawMessage, nowMs int64) (Ticker, bool)
	MetaSymbol(row json.RawMessage) (string, bool)
	MetaPayload(row json.RawMessage) model.MetaEntry
	// MaxSize picks the size limit out of this exchange's metadata.
	MaxSize(meta *model.MetaEntry) *float64
}
