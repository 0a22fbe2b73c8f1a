package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spreadscope/internal/infrastructure/svc"
	"spreadscope/internal/interfaces/httpapi"
	"spreadscope/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the exchanges and serve the HTTP and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := getConfig()

		sc, err := svc.New(ctx, c, svc.Options{})
		if err != nil {
			return err
		}
		defer sc.Close()

		srv := httpapi.NewServer(httpapi.Params{
			Addr:            c.HTTP.Addr,
			FrontendDir:     c.HTTP.FrontendDir,
			ShutdownTimeout: c.ShutdownTimeout(),
			WriteTimeout:    c.WriteTimeout(),
			PingIdle:        c.PingIdle(),
		}, sc.Quotes, sc.Store, sc.Hub, sc.Rates)

		log.Info().
			Str("version", version.Version).
			Str("addr", c.HTTP.Addr).
			Strs("exchanges", sc.Store.Exchanges()).
			Float64("interval_min", c.Poller.IntervalMin).
			Float64("interval_max", c.Poller.IntervalMax).
			Msg("spreadscope started")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sc.Poller.Run(gctx) })
		g.Go(func() error { return srv.Run(gctx) })
		err = g.Wait()

		log.Info().Msg("spreadscope stopped")
		return err
	},
}
