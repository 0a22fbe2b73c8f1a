package service

import (
	"sort"
	"time"

	"spreadscope/internal/application/usecase/poller"
	"spreadscope/internal/domain/model"
	domainservice "spreadscope/internal/domain/service"
	"spreadscope/internal/domain/store"
)

// SubscriberCounter reports live stream subscribers per exchange.
type SubscriberCounter interface {
	Counts() map[string]int
}

// LoopStats reports poller counters.
type LoopStats interface {
	Stats() []poller.Stats
}

type QuoteQuery struct {
	Exchange string
	Symbol   string
	Limit    int
}

type SpreadQuery struct {
	Symbol    string
	Exchanges []string
	Limit     int
}

// Health is the /health payload. MetaAgeMs holds, per exchange, the age of the
// stalest metadata among quoted symbols; exchanges without metadata are absent.
type Health struct {
	Status           string           `json:"status"`
	ExchangesEnabled []string         `json:"exchanges_enabled"`
	QuotesCached     map[string]int   `json:"quotes_cached"`
	Subscribers      map[string]int   `json:"subscribers"`
	MetaAgeMs        map[string]int64 `json:"meta_age_ms"`
	Pollers          []poller.Stats   `json:"pollers"`
}

// QuoteService answers read queries against the price store.
type QuoteService struct {
	store *store.Store
	subs  SubscriberCounter
	loops LoopStats
	now   func() time.Time
}

// NewQuoteService creates the service. subs and loops may be nil.
func NewQuoteService(st *store.Store, subs SubscriberCounter, loops LoopStats) *QuoteService {
	return &QuoteService{store: st, subs: subs, loops: loops, now: time.Now}
}

// Quotes returns normalized records filtered by exact exchange and symbol,
// ordered by exchange then symbol and truncated to q.Limit when positive.
func (s *QuoteService) Quotes(q QuoteQuery) []model.NormalizedRecord {
	var recs []model.NormalizedRecord
	if q.Exchange != "" {
		recs = s.store.SnapshotExchange(q.Exchange)
	} else {
		recs = s.store.SnapshotAll()
	}

	out := recs[:0]
	for _, r := range recs {
		if q.Symbol != "" && r.Symbol != q.Symbol {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Exchange != out[j].Exchange {
			return out[i].Exchange < out[j].Exchange
		}
		return out[i].Symbol < out[j].Symbol
	})
	return truncate(out, q.Limit)
}

// Spreads computes cross-exchange spreads over the current prices.
func (s *QuoteService) Spreads(q SpreadQuery) []model.SpreadRecord {
	spreads := domainservice.CalculateSpreads(s.store.Prices(), domainservice.SpreadFilter{
		Symbol:    q.Symbol,
		Exchanges: q.Exchanges,
	})
	return truncate(spreads, q.Limit)
}

func (s *QuoteService) Health() Health {
	exchanges := s.store.Exchanges()
	counts := s.store.Counts()
	cached := make(map[string]int, len(exchanges))
	for _, ex := range exchanges {
		cached[ex] = counts[ex]
	}

	h := Health{
		Status:           "ok",
		ExchangesEnabled: exchanges,
		QuotesCached:     cached,
		Subscribers:      make(map[string]int, len(exchanges)),
		MetaAgeMs:        s.metaAges(exchanges),
		Pollers:          []poller.Stats{},
	}
	if s.subs != nil {
		all := s.subs.Counts()
		for _, ex := range exchanges {
			h.Subscribers[ex] = all[ex]
		}
	}
	if s.loops != nil {
		h.Pollers = s.loops.Stats()
	}
	return h
}

func (s *QuoteService) metaAges(exchanges []string) map[string]int64 {
	nowMs := s.now().UnixMilli()
	out := make(map[string]int64, len(exchanges))
	for _, ex := range exchanges {
		for _, rec := range s.store.SnapshotExchange(ex) {
			age, ok := s.store.MetaAge(ex, rec.Symbol, nowMs)
			if !ok {
				continue
			}
			if ms := age.Milliseconds(); ms >= out[ex] {
				out[ex] = ms
			}
		}
	}
	return out
}

func truncate[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
