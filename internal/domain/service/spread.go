package service

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"spreadscope/internal/domain/model"
)

// SpreadFilter narrows the spread computation. Empty fields match everything.
type SpreadFilter struct {
	Symbol    string
	Exchanges []string
}

func (f SpreadFilter) allowsExchange(ex string) bool {
	if len(f.Exchanges) == 0 {
		return true
	}
	for _, e := range f.Exchanges {
		if e == ex {
			return true
		}
	}
	return false
}

// ComparisonPrice picks the price used to compare exchanges:
// fair, then last, then the bid/ask midpoint when both sides are positive.
func ComparisonPrice(p model.PriceEntry) (float64, bool) {
	if p.Fair != nil && isNumber(*p.Fair) {
		return *p.Fair, true
	}
	if isNumber(p.Last) {
		return p.Last, true
	}
	if p.Bid != nil && p.Ask != nil && isNumber(*p.Bid) && isNumber(*p.Ask) && *p.Bid > 0 && *p.Ask > 0 {
		return (*p.Bid + *p.Ask) / 2, true
	}
	return 0, false
}

func isNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type quote struct {
	exchange string
	price    float64
	ts       int64
}

// CalculateSpreads groups comparison prices by symbol and emits one record per
// symbol quoted on at least two exchanges with a positive spread. Results are
// ordered by SpreadPct descending, then by symbol.
//
// Among equal prices the lexicographically smaller exchange wins both the low
// and the high side.
func CalculateSpreads(prices map[string]map[string]model.PriceEntry, f SpreadFilter) []model.SpreadRecord {
	grouped := make(map[string][]quote)
	for ex, symbols := range prices {
		if !f.allowsExchange(ex) {
			continue
		}
		for sym, p := range symbols {
			if f.Symbol != "" && sym != f.Symbol {
				continue
			}
			px, ok := ComparisonPrice(p)
			if !ok || px <= 0 {
				continue
			}
			grouped[sym] = append(grouped[sym], quote{exchange: ex, price: px, ts: p.Ts})
		}
	}

	out := make([]model.SpreadRecord, 0, len(grouped))
	for sym, rows := range grouped {
		if len(rows) < 2 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].exchange < rows[j].exchange })

		low, high := rows[0], rows[0]
		tsMin, tsMax := rows[0].ts, rows[0].ts
		exchanges := make([]string, 0, len(rows))
		for _, r := range rows {
			if r.price < low.price {
				low = r
			}
			if r.price > high.price {
				high = r
			}
			tsMin = min(tsMin, r.ts)
			tsMax = max(tsMax, r.ts)
			exchanges = append(exchanges, r.exchange)
		}

		// The skip test runs on the rounded, emitted values.
		lowPrice := decimal.NewFromFloat(low.price).Round(8)
		highPrice := decimal.NewFromFloat(high.price).Round(8)
		spreadAbs := highPrice.Sub(lowPrice)
		if !lowPrice.IsPositive() || !spreadAbs.IsPositive() {
			continue
		}
		spreadPct := spreadAbs.Div(lowPrice).Mul(decimal.NewFromInt(100)).Round(4)

		out = append(out, model.SpreadRecord{
			Symbol:            sym,
			LowExchange:       low.exchange,
			HighExchange:      high.exchange,
			LowPrice:          lowPrice.InexactFloat64(),
			HighPrice:         highPrice.InexactFloat64(),
			SpreadAbs:         spreadAbs.InexactFloat64(),
			SpreadPct:         spreadPct.InexactFloat64(),
			ComparedExchanges: exchanges,
			QuotesCount:       len(rows),
			TsMin:             tsMin,
			TsMax:             tsMax,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SpreadPct != out[j].SpreadPct {
			return out[i].SpreadPct > out[j].SpreadPct
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
