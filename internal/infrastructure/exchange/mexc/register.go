package mexc

import (
	"spreadscope/internal/application/port"
	"spreadscope/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(Name, exchange.Endpoints{
		TickerURL: DefaultTickerURL,
		MetaURL:   DefaultMetaURL,
	}, func(ep exchange.Endpoints) port.Adapter {
		return NewContractAdapter(Name, ep)
	})
}
