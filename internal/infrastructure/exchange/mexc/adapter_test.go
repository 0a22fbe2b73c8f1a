package mexc

import (
	"encoding/json"
	"testing"

	"spreadscope/internal/infrastructure/exchange"
)

func newTestAdapter() *ContractAdapter {
	return NewContractAdapter("ourbit", exchange.Endpoints{TickerURL: DefaultTickerURL, MetaURL: DefaultMetaURL})
}

func TestParseTicker(t *testing.T) {
	a := newTestAdapter()
	row := json.RawMessage(`{"symbol":"BTC_USDT","lastPrice":65000.5,"bid1":65000,"ask1":65001,"fairPrice":65000.4,"timestamp":1700000000123}`)

	tk, ok := a.ParseTicker(row, 42)
	if !ok {
		t.Fatal("expected row to be accepted")
	}
	if tk.Symbol != "BTC_USDT" || tk.Price.Last != 65000.5 {
		t.Errorf("unexpected ticker %+v", tk)
	}
	if tk.Price.Ask == nil || *tk.Price.Ask != 65001 {
		t.Errorf("unexpected ask %v", tk.Price.Ask)
	}
	if tk.Price.Ts != 1700000000123 {
		t.Errorf("expected upstream timestamp, got %d", tk.Price.Ts)
	}
	if a.Name() != "ourbit" {
		t.Errorf("expected configured name, got %s", a.Name())
	}
}

func TestParseTickerFallbacks(t *testing.T) {
	a := newTestAdapter()

	tk, ok := a.ParseTicker(json.RawMessage(`{"symbol":"ETH_USDT","lastprice":"3000.5"}`), 42)
	if !ok {
		t.Fatal("expected lowercase lastprice to be accepted")
	}
	if tk.Price.Last != 3000.5 {
		t.Errorf("unexpected last %v", tk.Price.Last)
	}
	if tk.Price.Ts != 42 {
		t.Errorf("expected now timestamp, got %d", tk.Price.Ts)
	}
	if tk.Price.Bid != nil || tk.Price.Fair != nil {
		t.Errorf("expected absent sides, got %+v", tk.Price)
	}

	tk, ok = a.ParseTicker(json.RawMessage(`{"symbol":"ETH_USDT","lastPrice":1,"timestamp":"soon"}`), 7)
	if !ok || tk.Price.Ts != 7 {
		t.Errorf("expected unreadable timestamp to become now, got %+v", tk)
	}
}

func TestParseTickerRejects(t *testing.T) {
	a := newTestAdapter()
	rows := []string{
		`{"lastPrice":1}`,
		`{"symbol":"X_USDT"}`,
		`{"symbol":"X_USDT","lastPrice":"x"}`,
		`{"symbol":"X_USDT","lastPrice":1,"bid1":""}`,
		`{"symbol":"X_USDT","lastPrice":1,"fairPrice":"NaN"}`,
	}
	for _, r := range rows {
		if _, ok := a.ParseTicker(json.RawMessage(r), 1); ok {
			t.Errorf("expected rejection for %s", r)
		}
	}
}

func TestMeta(t *testing.T) {
	a := newTestAdapter()
	row := json.RawMessage(`{"symbol":"BTC_USDT","priceUnit":0.1,"volUnit":1,"contractSize":0.0001,"minVol":1,"maxVol":"1000000","maxLeverage":200,"settleCoin":"USDT"}`)

	sym, ok := a.MetaSymbol(row)
	if !ok || sym != "BTC_USDT" {
		t.Fatalf("unexpected meta symbol %q", sym)
	}
	meta := a.MetaPayload(row)
	if meta.LeverageMax == nil || *meta.LeverageMax != 200 {
		t.Errorf("unexpected leverage %v", meta.LeverageMax)
	}
	if meta.SettleCoin != "USDT" {
		t.Errorf("unexpected settle coin %q", meta.SettleCoin)
	}
	if v := a.MaxSize(&meta); v == nil || *v != 1000000 {
		t.Errorf("unexpected max size %v", v)
	}
	if v := a.MaxSize(nil); v != nil {
		t.Errorf("expected nil, got %v", *v)
	}
}
