package composite

import (
	"context"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

// Repo fans every write out to all configured mirrors. All mirrors are
// attempted; the first error is returned.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are skipped
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertQuotes(ctx context.Context, exchange string, records []model.NormalizedRecord) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertQuotes(ctx, exchange, records); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) UpsertMeta(ctx context.Context, exchange string, meta map[string]model.MetaEntry) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertMeta(ctx, exchange, meta); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)
