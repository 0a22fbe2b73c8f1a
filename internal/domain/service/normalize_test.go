package service

import (
	"testing"

	"spreadscope/internal/domain/model"
)

func TestNormalizeCopiesPriceFields(t *testing.T) {
	p := model.PriceEntry{Last: 1.5, Bid: f(1.4), Ask: f(1.6), Fair: f(1.55), Ts: 1700000000000}
	meta := &model.MetaEntry{SizeMax: f(1000)}

	rec := Normalize("gate", "BTC_USDT", p, meta, meta.SizeMax)

	if rec.Exchange != "gate" || rec.Symbol != "BTC_USDT" {
		t.Fatalf("unexpected identity: %s %s", rec.Exchange, rec.Symbol)
	}
	if rec.PriceEntry() != p {
		t.Errorf("price fields changed: %+v != %+v", rec.PriceEntry(), p)
	}
	if rec.MaxSize == nil || *rec.MaxSize != 1000 {
		t.Errorf("expected max_size 1000, got %v", rec.MaxSize)
	}
	if rec.Meta != meta {
		t.Errorf("expected metadata to be attached")
	}
}

func TestNormalizeWithoutMeta(t *testing.T) {
	rec := Normalize("mexc", "ETH_USDT", model.PriceEntry{Last: 2}, nil, nil)
	if rec.MaxSize != nil || rec.Meta != nil {
		t.Errorf("expected empty metadata, got %+v", rec)
	}
}
