// Package poller runs one REST polling loop per enabled exchange.
package poller

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	loops []*Loop
}

func NewService(loops ...*Loop) *Service {
	return &Service{loops: loops}
}

// Run starts every loop and blocks until ctx is cancelled and all loops
// have returned.
func (s *Service) Run(ctx context.Context) error {
	if len(s.loops) == 0 {
		return errors.New("no exchanges enabled")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range s.loops {
		g.Go(func() error { return l.Run(ctx) })
	}
	return g.Wait()
}

// Once runs a single cycle on every loop concurrently. Failed exchanges are
// reported together; the others still complete.
func (s *Service) Once(ctx context.Context) error {
	errs := make([]error, len(s.loops))
	var g errgroup.Group
	for i, l := range s.loops {
		g.Go(func() error {
			if err := l.Cycle(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", l.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Stats returns the counters of every loop in start order.
func (s *Service) Stats() []Stats {
	out := make([]Stats, 0, len(s.loops))
	for _, l := range s.loops {
		out = append(out, l.Stats())
	}
	return out
}
