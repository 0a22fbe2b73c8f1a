package service

import "spreadscope/internal/domain/model"

// Normalize builds the canonical record for one quote. maxSize comes from the
// exchange adapter, which knows which metadata field carries the size limit.
func Normalize(exchange, symbol string, p model.PriceEntry, meta *model.MetaEntry, maxSize *float64) model.NormalizedRecord {
	return model.NormalizedRecord{
		Exchange: exchange,
		Symbol:   symbol,
		Last:     p.Last,
		Bid:      p.Bid,
		Ask:      p.Ask,
		Fair:     p.Fair,
		Ts:       p.Ts,
		MaxSize:  maxSize,
		Meta:     meta,
	}
}
