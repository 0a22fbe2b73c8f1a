package console

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

// PrintSpreads renders spread records as an aligned table, one sink line per row.
func PrintSpreads(sink port.Sink, records []model.SpreadRecord) error {
	if len(records) == 0 {
		return sink.WriteLine("no spreads found")
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tLOW\tLOW PRICE\tHIGH\tHIGH PRICE\tSPREAD\tSPREAD%\tQUOTES\tAGE")
	now := time.Now().UnixMilli()
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Symbol,
			r.LowExchange,
			formatFloat(r.LowPrice, 8),
			r.HighExchange,
			formatFloat(r.HighPrice, 8),
			formatFloat(r.SpreadAbs, 8),
			formatFloat(r.SpreadPct, 4),
			r.QuotesCount,
			age(now, r.TsMin),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if err := sink.WriteLine(strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func age(nowMs, ts int64) string {
	if ts <= 0 {
		return "-"
	}
	d := time.Duration(max(nowMs-ts, 0)) * time.Millisecond
	return d.Truncate(time.Millisecond).String()
}
