package port

import (
	"context"

	"spreadscope/internal/domain/model"
)

// Repository mirrors the latest quotes to an external store so other
// processes can read them. Only the current value per (exchange, symbol) is
// kept; mirrors never hold history.
type Repository interface {
	UpsertQuotes(ctx context.Context, exchange string, records []model.NormalizedRecord) error
	UpsertMeta(ctx context.Context, exchange string, meta map[string]model.MetaEntry) error
	Close() error
}
