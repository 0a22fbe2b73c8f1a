package svc

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"spreadscope/internal/application/broadcast"
	"spreadscope/internal/application/port"
	"spreadscope/internal/application/service"
	"spreadscope/internal/application/usecase/poller"
	"spreadscope/internal/domain/store"
	"spreadscope/internal/infrastructure/config"
	"spreadscope/internal/infrastructure/container"
	"spreadscope/internal/infrastructure/exchange"
	_ "spreadscope/internal/infrastructure/exchange/gate"
	_ "spreadscope/internal/infrastructure/exchange/mexc"
	_ "spreadscope/internal/infrastructure/exchange/ourbit"
	"spreadscope/internal/infrastructure/rates"
)

// ServiceContext wires every component of the process from one Config.
type ServiceContext struct {
	Config *config.Config

	Adapters []port.Adapter
	Store    *store.Store
	Hub      *broadcast.Hub
	Poller   *poller.Service
	Quotes   *service.QuoteService
	Rates    *rates.LocalRates

	storage     *container.Container
	closerChain []func() error
}

// Options switch off parts that one-shot commands do not need.
type Options struct {
	// WithoutMirrors skips redis/sqlite/postgres even when enabled.
	WithoutMirrors bool
	// Fetcher replaces the HTTP fetcher, mainly for tests.
	Fetcher port.Fetcher
}

// New builds the service context. Resources opened before a failure are
// released before returning.
func New(ctx context.Context, cfg *config.Config, opts Options) (*ServiceContext, error) {
	sc := &ServiceContext{
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}
	if err := sc.initializeComponents(ctx, opts); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContext) initializeComponents(ctx context.Context, opts Options) error {
	adapters, err := buildAdapters(sc.Config)
	if err != nil {
		return err
	}
	sc.Adapters = adapters

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	sc.Store = store.New(names, exchange.MaxSizeResolver(adapters))
	sc.Hub = broadcast.NewHub()
	sc.Rates = rates.NewLocalRates(sc.Config.Rates.Path)

	var mirror port.Repository
	if !opts.WithoutMirrors {
		storage, err := container.New(ctx, sc.Config)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
		}
		sc.storage = storage
		sc.closerChain = append(sc.closerChain, storage.Close)
		mirror = storage.Mirror()
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = exchange.NewHTTPClient(sc.Config.HTTPTimeout(), sc.Config.Poller.UserAgent)
	}

	loopOpts := poller.Options{
		IntervalMin:   sc.Config.IntervalMin(),
		IntervalMax:   sc.Config.IntervalMax(),
		MetaMin:       sc.Config.MetaMin(),
		MetaMax:       sc.Config.MetaMax(),
		MirrorTimeout: sc.Config.HTTPTimeout(),
	}
	loops := make([]*poller.Loop, 0, len(adapters))
	for _, a := range adapters {
		loops = append(loops, poller.NewLoop(a, fetcher, sc.Store, sc.Hub, mirror, loopOpts))
	}
	sc.Poller = poller.NewService(loops...)
	sc.Quotes = service.NewQuoteService(sc.Store, sc.Hub, sc.Poller)

	log.Info().
		Strs("exchanges", names).
		Bool("mirror", mirror != nil).
		Msg("all components initialized")
	return nil
}

// buildAdapters resolves the enabled exchanges against the registry.
// Unknown names are skipped with a warning.
func buildAdapters(cfg *config.Config) ([]port.Adapter, error) {
	var adapters []port.Adapter
	for _, name := range cfg.EnabledExchanges() {
		override := cfg.Exchange[name]
		a, err := exchange.New(name, exchange.Endpoints{
			TickerURL: override.TickerURL,
			MetaURL:   override.MetaURL,
		})
		if err != nil {
			log.Warn().Err(err).Str("exchange", name).Msg("exchange skipped")
			continue
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, ErrNoFeedsEnabled
	}
	return adapters, nil
}

// Close releases every resource in reverse order of acquisition.
func (sc *ServiceContext) Close() error {
	var firstErr error
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	sc.closerChain = nil
	return firstErr
}
