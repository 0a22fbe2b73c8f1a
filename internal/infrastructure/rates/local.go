// Package rates serves the converter's local fiat rate table.
package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrZeroRate        = errors.New("zero rate")
)

// Table is the rates file layout. Rates are units of a currency per one unit
// of Base.
type Table struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func fallback() Table {
	return Table{Base: "USD", Rates: map[string]float64{}}
}

// LocalRates reads the table from disk on every call so edits apply without
// a restart.
type LocalRates struct {
	path string
}

func NewLocalRates(path string) *LocalRates {
	return &LocalRates{path: path}
}

// Load returns the table, or the empty USD table when the file is missing or
// unreadable.
func (l *LocalRates) Load() Table {
	b, err := os.ReadFile(l.path)
	if err != nil {
		return fallback()
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return fallback()
	}
	if t.Base == "" {
		t.Base = "USD"
	}
	if t.Rates == nil {
		t.Rates = map[string]float64{}
	}
	return t
}

// Convert returns amount / rate[from] * rate[to], rounded to 8 places.
func (l *LocalRates) Convert(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.Load().Convert(from, to, amount)
}

func (t Table) Convert(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	rf, err := t.rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	rt, err := t.rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(rf).Mul(rt).Round(8), nil
}

func (t Table) rate(code string) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	v, ok := t.Rates[code]
	if !ok {
		if code == strings.ToUpper(t.Base) {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	d := decimal.NewFromFloat(v)
	if d.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrZeroRate, code)
	}
	return d, nil
}
