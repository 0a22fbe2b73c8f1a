package gate

import (
	"spreadscope/internal/application/port"
	"spreadscope/internal/infrastructure/exchange"
)

// init registers Gate so enabling it is a matter of configuration.
func init() {
	exchange.Register(Name, exchange.Endpoints{
		TickerURL: DefaultTickerURL,
		MetaURL:   DefaultMetaURL,
	}, func(ep exchange.Endpoints) port.Adapter {
		return NewAdapter(ep)
	})
}
