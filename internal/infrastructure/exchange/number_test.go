package exchange

import (
	"encoding/json"
	"testing"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		present bool
		wantErr bool
	}{
		{`1.5`, 1.5, true, false},
		{`"2.25"`, 2.25, true, false},
		{`" 3 "`, 3, true, false},
		{`null`, 0, false, false},
		{``, 0, false, false},
		{`""`, 0, true, true},
		{`"abc"`, 0, true, true},
		{`"NaN"`, 0, true, true},
		{`"Inf"`, 0, true, true},
		{`true`, 0, true, true},
		{`{}`, 0, true, true},
	}

	for _, tt := range tests {
		v, present, err := Float(json.RawMessage(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("Float(%s) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if present != tt.present {
			t.Errorf("Float(%s) present = %v, want %v", tt.raw, present, tt.present)
		}
		if !tt.wantErr && v != tt.want {
			t.Errorf("Float(%s) = %v, want %v", tt.raw, v, tt.want)
		}
	}
}

func TestOptionalFloatEmptyString(t *testing.T) {
	v, err := OptionalFloat(json.RawMessage(`""`), true)
	if err != nil || v != nil {
		t.Errorf("expected absent value, got %v, %v", v, err)
	}
	if _, err := OptionalFloat(json.RawMessage(`""`), false); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestString(t *testing.T) {
	tests := map[string]string{
		`"BTC_USDT"`: "BTC_USDT",
		`12`:         "12",
		`null`:       "",
		`""`:         "",
		`{"a":1}`:    "",
	}
	for raw, want := range tests {
		if got := String(json.RawMessage(raw)); got != want {
			t.Errorf("String(%s) = %q, want %q", raw, got, want)
		}
	}
}
