package model

// SpreadRecord describes the cross-exchange price spread of one symbol.
type SpreadRecord struct {
	Symbol            string   `json:"symbol"`
	LowExchange       string   `json:"low_exchange"`
	HighExchange      string   `json:"high_exchange"`
	LowPrice          float64  `json:"low_price"`
	HighPrice         float64  `json:"high_price"`
	SpreadAbs         float64  `json:"spread_abs"`
	SpreadPct         float64  `json:"spread_pct"`
	ComparedExchanges []string `json:"compared_exchanges"`
	QuotesCount       int      `json:"quotes_count"`
	TsMin             int64    `json:"ts_min"`
	TsMax             int64    `json:"ts_max"`
}
