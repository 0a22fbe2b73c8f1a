package exchange

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

var ErrUnknownExchange = errors.New("unknown exchange")

// Endpoints are the two REST feeds polled for an exchange.
type Endpoints struct {
	TickerURL string
	MetaURL   string
}

// Factory builds an adapter bound to the given endpoints.
type Factory func(ep Endpoints) port.Adapter

type entry struct {
	defaults Endpoints
	factory  Factory
}

var (
	mu sync.RWMutex
	// registry maps exchange names to their adapter factories
	registry = make(map[string]entry)
)

// Register adds an exchange under name with its default endpoints.
// Called from each exchange package's init().
func Register(name string, defaults Endpoints, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid exchange factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("exchange factory already registered, overwriting")
	}
	registry[name] = entry{defaults: defaults, factory: factory}
}

// New builds the adapter for name. Blank endpoint fields fall back to the
// registered defaults.
func New(name string, override Endpoints) (port.Adapter, error) {
	mu.RLock()
	e, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, name)
	}
	ep := e.defaults
	if override.TickerURL != "" {
		ep.TickerURL = override.TickerURL
	}
	if override.MetaURL != "" {
		ep.MetaURL = override.MetaURL
	}
	return e.factory(ep), nil
}

// Defaults returns the registered endpoints of name.
func Defaults(name string) (Endpoints, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[name]
	return e.defaults, ok
}

// Names returns the registered exchange names sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MaxSizeResolver routes size lookups to the adapter owning the exchange.
func MaxSizeResolver(adapters []port.Adapter) func(exchange string, meta *model.MetaEntry) *float64 {
	byName := make(map[string]port.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return func(exchange string, meta *model.MetaEntry) *float64 {
		a, ok := byName[exchange]
		if !ok || meta == nil {
			return nil
		}
		return a.MaxSize(meta)
	}
}
