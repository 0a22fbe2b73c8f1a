package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"spreadscope/internal/domain/model"
)

func TestPrintSpreadsTable(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	err := PrintSpreads(sink, []model.SpreadRecord{
		{Symbol: "BTC_USDT", LowExchange: "gate", HighExchange: "mexc", LowPrice: 100, HighPrice: 101, SpreadAbs: 1, SpreadPct: 1, QuotesCount: 3},
		{Symbol: "ETH_USDT", LowExchange: "mexc", HighExchange: "ourbit", LowPrice: 0.00000012, HighPrice: 0.00000013, SpreadAbs: 0.00000001, SpreadPct: 8.3333, QuotesCount: 2},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "SYMBOL"))
	require.Contains(t, lines[1], "BTC_USDT")
	require.Contains(t, lines[1], "101")
	require.Contains(t, lines[2], "0.00000012")
	require.Contains(t, lines[2], "8.3333")
	require.Equal(t, strings.Index(lines[0], "LOW"), strings.Index(lines[1], "gate"))
	require.True(t, strings.HasSuffix(lines[1], "-"))
}

func TestPrintSpreadsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSpreads(NewSink(&buf), nil))
	require.Equal(t, "no spreads found\n", buf.String())
}

func TestSinkNewLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	require.NoError(t, s.WriteLine("a"))
	require.NoError(t, s.NewLine())
	require.Equal(t, "a\n\n", buf.String())
}
