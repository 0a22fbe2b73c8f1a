// Package broadcast fans stream messages out to per-exchange subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spreadscope/internal/domain/model"
)

// Subscriber is one live stream consumer.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, payload []byte) error
}

type group struct {
	mu   sync.Mutex
	subs map[string]Subscriber
}

// Hub keeps one subscriber set per exchange. Sends to one exchange's set are
// serialized by that set's lock, which also orders snapshots before ticks.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group
	logger zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]*group),
		logger: log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) group(ex string) *group {
	h.mu.RLock()
	g, ok := h.groups[ex]
	h.mu.RUnlock()
	if ok {
		return g
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok = h.groups[ex]; ok {
		return g
	}
	g = &group{subs: make(map[string]Subscriber)}
	h.groups[ex] = g
	return g
}

// SubscribeWithSnapshot sends the snapshot built by snapshot() to sub and then
// adds it to the set, all under the set's lock. No broadcast can reach sub
// before the snapshot. On send failure sub is not added.
func (h *Hub) SubscribeWithSnapshot(ctx context.Context, ex string, sub Subscriber, snapshot func() model.Message) error {
	g := h.group(ex)
	g.mu.Lock()
	defer g.mu.Unlock()

	payload, err := json.Marshal(snapshot())
	if err != nil {
		return err
	}
	if err := sub.Send(ctx, payload); err != nil {
		return err
	}
	g.subs[sub.ID()] = sub
	return nil
}

// Unsubscribe removes sub. Removing an unknown subscriber is a no-op.
func (h *Hub) Unsubscribe(ex string, sub Subscriber) {
	g := h.group(ex)
	g.mu.Lock()
	delete(g.subs, sub.ID())
	g.mu.Unlock()
}

// Broadcast delivers msg to every subscriber of ex. Subscribers whose send
// fails are dropped; the error is not returned.
func (h *Hub) Broadcast(ctx context.Context, ex string, msg model.Message) {
	h.mu.RLock()
	g, ok := h.groups[ex]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("exchange", ex).Str("type", msg.Type).Msg("marshal message")
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for id, sub := range g.subs {
		if err := sub.Send(ctx, payload); err != nil {
			delete(g.subs, id)
			h.logger.Debug().Err(err).Str("exchange", ex).Str("subscriber", id).Msg("subscriber dropped")
		}
	}
}

// Count returns the number of subscribers of ex.
func (h *Hub) Count(ex string) int {
	h.mu.RLock()
	g, ok := h.groups[ex]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// Counts returns subscriber counts for every exchange seen so far.
func (h *Hub) Counts() map[string]int {
	h.mu.RLock()
	names := make([]string, 0, len(h.groups))
	for ex := range h.groups {
		names = append(names, ex)
	}
	h.mu.RUnlock()

	out := make(map[string]int, len(names))
	for _, ex := range names {
		out[ex] = h.Count(ex)
	}
	return out
}
