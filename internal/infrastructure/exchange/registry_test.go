package exchange_test

import (
	"errors"
	"testing"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/infrastructure/exchange"
	_ "spreadscope/internal/infrastructure/exchange/gate"
	_ "spreadscope/internal/infrastructure/exchange/mexc"
	_ "spreadscope/internal/infrastructure/exchange/ourbit"
)

func TestRegisteredExchanges(t *testing.T) {
	names := exchange.Names()
	want := []string{"gate", "mexc", "ourbit"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}
}

func TestNewOverridesEndpoints(t *testing.T) {
	a, err := exchange.New("ourbit", exchange.Endpoints{TickerURL: "http://local/ticker"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a.Name() != "ourbit" {
		t.Errorf("expected ourbit, got %s", a.Name())
	}
	if a.TickerURL() != "http://local/ticker" {
		t.Errorf("ticker url not overridden: %s", a.TickerURL())
	}
	def, _ := exchange.Defaults("ourbit")
	if a.MetaURL() != def.MetaURL {
		t.Errorf("meta url should keep default, got %s", a.MetaURL())
	}

	if _, err := exchange.New("kraken", exchange.Endpoints{}); !errors.Is(err, exchange.ErrUnknownExchange) {
		t.Errorf("expected ErrUnknownExchange, got %v", err)
	}
}

func TestMaxSizeResolver(t *testing.T) {
	g, _ := exchange.New("gate", exchange.Endpoints{})
	m, _ := exchange.New("mexc", exchange.Endpoints{})
	resolve := exchange.MaxSizeResolver([]port.Adapter{g, m})

	meta := &model.MetaEntry{SizeMax: model.Float(1000)}
	if v := resolve("gate", meta); v == nil || *v != 1000 {
		t.Errorf("expected 1000, got %v", v)
	}
	if v := resolve("mexc", nil); v != nil {
		t.Errorf("expected nil without meta, got %v", *v)
	}
	if v := resolve("okx", meta); v != nil {
		t.Errorf("expected nil for unknown exchange, got %v", *v)
	}
}
