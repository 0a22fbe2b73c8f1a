package poller

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
	"spreadscope/internal/domain/store"
	"spreadscope/internal/infrastructure/exchange"
)

// Broadcaster receives every message produced by a loop.
type Broadcaster interface {
	Broadcast(ctx context.Context, ex string, msg model.Message)
}

// Options tune loop timing. Zero fields take the defaults below.
type Options struct {
	IntervalMin  time.Duration
	IntervalMax  time.Duration
	MetaMin      time.Duration
	MetaMax      time.Duration
	ErrorBackoff time.Duration
	// MirrorTimeout bounds each mirror write.
	MirrorTimeout time.Duration
}

const (
	DefaultIntervalMin  = 600 * time.Millisecond
	DefaultIntervalMax  = 1200 * time.Millisecond
	DefaultMetaMin      = 5 * time.Second
	DefaultMetaMax      = 12 * time.Second
	DefaultErrorBackoff = time.Second

	DefaultMirrorTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.IntervalMin <= 0 {
		o.IntervalMin = DefaultIntervalMin
	}
	if o.IntervalMax <= 0 {
		o.IntervalMax = DefaultIntervalMax
	}
	if o.IntervalMax < o.IntervalMin {
		o.IntervalMax = o.IntervalMin
	}
	if o.MetaMin <= 0 {
		o.MetaMin = DefaultMetaMin
	}
	if o.MetaMax <= 0 {
		o.MetaMax = DefaultMetaMax
	}
	if o.MetaMax < o.MetaMin {
		o.MetaMax = o.MetaMin
	}
	if o.ErrorBackoff <= 0 {
		o.ErrorBackoff = DefaultErrorBackoff
	}
	if o.MirrorTimeout <= 0 {
		o.MirrorTimeout = DefaultMirrorTimeout
	}
	return o
}

// Stats are the counters of one loop.
type Stats struct {
	Exchange    string    `json:"exchange"`
	Cycles      uint64    `json:"cycles"`
	Failures    uint64    `json:"failures"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
}

// Loop polls one exchange until its context is cancelled.
type Loop struct {
	adapter port.Adapter
	fetcher port.Fetcher
	store   *store.Store
	out     Broadcaster
	mirror  port.Repository
	opts    Options
	logger  zerolog.Logger

	now     func() time.Time
	uniform func(lo, hi time.Duration) time.Duration
	sleep   func(ctx context.Context, d time.Duration) error

	metaDeadline time.Time

	mu    sync.Mutex
	stats Stats
}

// NewLoop wires a loop. mirror may be nil.
func NewLoop(adapter port.Adapter, fetcher port.Fetcher, st *store.Store, out Broadcaster, mirror port.Repository, opts Options) *Loop {
	return &Loop{
		adapter: adapter,
		fetcher: fetcher,
		store:   st,
		out:     out,
		mirror:  mirror,
		opts:    opts.withDefaults(),
		logger:  log.With().Str("component", "poller").Str("exchange", adapter.Name()).Logger(),
		now:     time.Now,
		uniform: uniform,
		sleep:   sleep,
		stats:   Stats{Exchange: adapter.Name()},
	}
}

func (l *Loop) Name() string { return l.adapter.Name() }

// Stats returns a copy of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Run polls until ctx is done. It only returns nil.
func (l *Loop) Run(ctx context.Context) error {
	l.metaDeadline = l.now()
	l.logger.Info().Str("tickers", l.adapter.TickerURL()).Msg("poller started")
	defer l.logger.Info().Msg("poller stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := l.uniform(l.opts.IntervalMin, l.opts.IntervalMax)
		if err := l.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.recordFailure(err)
			l.logger.Warn().Err(err).Msg("poll cycle failed")
			wait = l.opts.ErrorBackoff
		}

		if err := l.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// Cycle runs one ticker pass and, when due, one metadata pass.
func (l *Loop) Cycle(ctx context.Context) error {
	accepted, err := l.pollTickers(ctx)
	if err != nil {
		return err
	}

	if !l.now().Before(l.metaDeadline) {
		err = l.pollMeta(ctx)
		l.metaDeadline = l.now().Add(l.uniform(l.opts.MetaMin, l.opts.MetaMax))
		if err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.stats.Cycles++
	l.stats.LastSuccess = l.now()
	l.mu.Unlock()

	l.logger.Debug().Int("accepted", accepted).Msg("poll cycle done")
	return nil
}

func (l *Loop) pollTickers(ctx context.Context) (int, error) {
	ex := l.adapter.Name()
	body, err := l.fetcher.Fetch(ctx, l.adapter.TickerURL())
	if err != nil {
		return 0, fmt.Errorf("fetch tickers: %w", err)
	}
	rows, err := exchange.Rows(body)
	if err != nil {
		return 0, fmt.Errorf("tickers: %w", err)
	}

	nowMs := l.now().UnixMilli()
	records := make([]model.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		t, ok := l.adapter.ParseTicker(row, nowMs)
		if !ok {
			continue
		}
		l.store.SetPrice(ex, t.Symbol, t.Price)
		rec, ok := l.store.Record(ex, t.Symbol)
		if !ok {
			continue
		}
		l.out.Broadcast(ctx, ex, model.TickMessage(rec))
		records = append(records, rec)
	}

	if l.mirror != nil && len(records) > 0 {
		mctx, cancel := context.WithTimeout(ctx, l.opts.MirrorTimeout)
		err := l.mirror.UpsertQuotes(mctx, ex, records)
		cancel()
		if err != nil {
			l.logger.Warn().Err(err).Msg("mirror quotes failed")
		}
	}
	return len(records), nil
}

func (l *Loop) pollMeta(ctx context.Context) error {
	ex := l.adapter.Name()
	body, err := l.fetcher.Fetch(ctx, l.adapter.MetaURL())
	if err != nil {
		return fmt.Errorf("fetch meta: %w", err)
	}
	rows, err := exchange.Rows(body)
	if err != nil {
		return fmt.Errorf("meta: %w", err)
	}

	refreshed := l.now().UnixMilli()
	batch := make(map[string]model.MetaEntry, len(rows))
	pushed := 0
	for _, row := range rows {
		sym, ok := l.adapter.MetaSymbol(row)
		if !ok {
			continue
		}
		meta := l.adapter.MetaPayload(row)
		meta.RefreshedAt = refreshed
		l.store.SetMeta(ex, sym, meta)
		batch[sym] = meta
		pushed++
	}
	l.out.Broadcast(ctx, ex, model.MetaBatchMessage(pushed))

	if l.mirror != nil && len(batch) > 0 {
		mctx, cancel := context.WithTimeout(ctx, l.opts.MirrorTimeout)
		err := l.mirror.UpsertMeta(mctx, ex, batch)
		cancel()
		if err != nil {
			l.logger.Warn().Err(err).Msg("mirror meta failed")
		}
	}
	l.logger.Debug().Int("contracts", pushed).Msg("metadata refreshed")
	return nil
}

func (l *Loop) recordFailure(err error) {
	l.mu.Lock()
	l.stats.Failures++
	l.stats.LastError = err.Error()
	l.mu.Unlock()
}

func uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
