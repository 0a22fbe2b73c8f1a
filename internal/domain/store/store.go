// Package store keeps the latest quote and contract metadata per exchange.
//
// Each exchange owns one partition and is written only by its own poller, so
// writers never contend across exchanges. Readers (HTTP handlers, the
// websocket snapshot) may run concurrently with any writer.
package store

import (
	"sort"
	"sync"
	"time"

	"spreadscope/internal/domain/model"
	"spreadscope/internal/domain/service"
)

// MaxSizeFunc resolves the size limit of a contract from its metadata.
type MaxSizeFunc func(exchange string, meta *model.MetaEntry) *float64

type partition struct {
	mu     sync.RWMutex
	prices map[string]model.PriceEntry
	meta   map[string]model.MetaEntry
}

func newPartition() *partition {
	return &partition{
		prices: make(map[string]model.PriceEntry),
		meta:   make(map[string]model.MetaEntry),
	}
}

// Store is the process-wide price and metadata snapshot.
type Store struct {
	mu      sync.RWMutex
	order   []string
	parts   map[string]*partition
	maxSize MaxSizeFunc
}

// New creates a store with one empty partition per exchange.
func New(exchanges []string, maxSize MaxSizeFunc) *Store {
	s := &Store{
		parts:   make(map[string]*partition, len(exchanges)),
		maxSize: maxSize,
	}
	for _, ex := range exchanges {
		if _, ok := s.parts[ex]; ok {
			continue
		}
		s.order = append(s.order, ex)
		s.parts[ex] = newPartition()
	}
	return s
}

// Exchanges returns the exchanges in the order they were configured.
func (s *Store) Exchanges() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) get(ex string) *partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parts[ex]
}

func (s *Store) getOrCreate(ex string) *partition {
	if p := s.get(ex); p != nil {
		return p
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parts[ex]; ok {
		return p
	}
	p := newPartition()
	s.parts[ex] = p
	s.order = append(s.order, ex)
	return p
}

// SetPrice overwrites the quote of a symbol.
func (s *Store) SetPrice(ex, symbol string, p model.PriceEntry) {
	part := s.getOrCreate(ex)
	part.mu.Lock()
	part.prices[symbol] = p
	part.mu.Unlock()
}

// SetMeta overwrites the metadata of a symbol. Symbols missing from a later
// metadata payload keep their previous entry.
func (s *Store) SetMeta(ex, symbol string, m model.MetaEntry) {
	part := s.getOrCreate(ex)
	part.mu.Lock()
	part.meta[symbol] = m
	part.mu.Unlock()
}

func (s *Store) GetPrice(ex, symbol string) (model.PriceEntry, bool) {
	part := s.get(ex)
	if part == nil {
		return model.PriceEntry{}, false
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	p, ok := part.prices[symbol]
	return p, ok
}

func (s *Store) GetMeta(ex, symbol string) (model.MetaEntry, bool) {
	part := s.get(ex)
	if part == nil {
		return model.MetaEntry{}, false
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	m, ok := part.meta[symbol]
	return m, ok
}

// MetaAge reports how long ago the metadata of a symbol was refreshed, relative
// to nowMs. It returns false when no metadata is cached.
func (s *Store) MetaAge(ex, symbol string, nowMs int64) (time.Duration, bool) {
	m, ok := s.GetMeta(ex, symbol)
	if !ok {
		return 0, false
	}
	return time.Duration(max(nowMs-m.RefreshedAt, 0)) * time.Millisecond, true
}

// Record normalizes the current quote of a symbol with whatever metadata is
// known at call time.
func (s *Store) Record(ex, symbol string) (model.NormalizedRecord, bool) {
	part := s.get(ex)
	if part == nil {
		return model.NormalizedRecord{}, false
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	p, ok := part.prices[symbol]
	if !ok {
		return model.NormalizedRecord{}, false
	}
	return s.normalize(ex, symbol, p, part), true
}

// caller holds part.mu
func (s *Store) normalize(ex, symbol string, p model.PriceEntry, part *partition) model.NormalizedRecord {
	var meta *model.MetaEntry
	if m, ok := part.meta[symbol]; ok {
		meta = &m
	}
	var maxSize *float64
	if s.maxSize != nil {
		maxSize = s.maxSize(ex, meta)
	}
	return service.Normalize(ex, symbol, p, meta, maxSize)
}

// SnapshotExchange returns every cached record of one exchange sorted by symbol.
func (s *Store) SnapshotExchange(ex string) []model.NormalizedRecord {
	part := s.get(ex)
	if part == nil {
		return nil
	}
	part.mu.RLock()
	out := make([]model.NormalizedRecord, 0, len(part.prices))
	for sym, p := range part.prices {
		out = append(out, s.normalize(ex, sym, p, part))
	}
	part.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SnapshotAll returns every cached record across all exchanges.
func (s *Store) SnapshotAll() []model.NormalizedRecord {
	var out []model.NormalizedRecord
	for _, ex := range s.Exchanges() {
		out = append(out, s.SnapshotExchange(ex)...)
	}
	return out
}

// Prices copies the price partitions for the spread calculator.
func (s *Store) Prices() map[string]map[string]model.PriceEntry {
	out := make(map[string]map[string]model.PriceEntry)
	for _, ex := range s.Exchanges() {
		part := s.get(ex)
		part.mu.RLock()
		m := make(map[string]model.PriceEntry, len(part.prices))
		for sym, p := range part.prices {
			m[sym] = p
		}
		part.mu.RUnlock()
		out[ex] = m
	}
	return out
}

// Counts returns the number of cached quotes per exchange.
func (s *Store) Counts() map[string]int {
	out := make(map[string]int)
	for _, ex := range s.Exchanges() {
		part := s.get(ex)
		part.mu.RLock()
		out[ex] = len(part.prices)
		part.mu.RUnlock()
	}
	return out
}
