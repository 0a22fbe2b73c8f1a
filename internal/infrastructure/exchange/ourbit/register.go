// Package ourbit registers Ourbit, which serves the MEXC contract format.
package ourbit

import (
	"spreadscope/internal/application/port"
	"spreadscope/internal/infrastructure/exchange"
	"spreadscope/internal/infrastructure/exchange/mexc"
)

const (
	Name = "ourbit"

	DefaultTickerURL = "https://futures.ourbit.com/api/v1/contract/ticker"
	DefaultMetaURL   = "https://futures.ourbit.com/api/v1/contract/detail"
)

func init() {
	exchange.Register(Name, exchange.Endpoints{
		TickerURL: DefaultTickerURL,
		MetaURL:   DefaultMetaURL,
	}, func(ep exchange.Endpoints) port.Adapter {
		return mexc.NewContractAdapter(Name, ep)
	})
}
