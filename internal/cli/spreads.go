package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"spreadscope/internal/application/service"
	"spreadscope/internal/infrastructure/svc"
	"spreadscope/internal/interfaces/console"
)

var (
	spreadsSymbol    string
	spreadsExchanges string
	spreadsLimit     int
)

var spreadsCmd = &cobra.Command{
	Use:   "spreads",
	Short: "Poll every enabled exchange once and print the current spreads",
	RunE: func(cmd *cobra.Command, args []string) error {
		if spreadsLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		c := *getConfig()
		if spreadsExchanges != "" {
			c.Poller.Exchanges = splitList(spreadsExchanges)
		}

		sc, err := svc.New(cmd.Context(), &c, svc.Options{WithoutMirrors: true})
		if err != nil {
			return err
		}
		defer sc.Close()

		// Print whatever was fetched even when some exchanges failed.
		if err := sc.Poller.Once(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("some exchanges failed")
		}

		records := sc.Quotes.Spreads(service.SpreadQuery{
			Symbol: strings.TrimSpace(spreadsSymbol),
			Limit:  spreadsLimit,
		})
		return console.PrintSpreads(console.NewSink(cmd.OutOrStdout()), records)
	},
}

func init() {
	spreadsCmd.Flags().StringVar(&spreadsSymbol, "symbol", "", "Only compare this symbol, e.g. BTC_USDT")
	spreadsCmd.Flags().StringVar(&spreadsExchanges, "exchanges", "", "Comma separated exchanges to poll (defaults to config)")
	spreadsCmd.Flags().IntVar(&spreadsLimit, "limit", 20, "Number of spreads to display")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
