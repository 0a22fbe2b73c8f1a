package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

// Repo mirrors the latest quote and metadata per (exchange, symbol) into
// Postgres for other processes to read.
type Repo struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	r := &Repo{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  last DOUBLE PRECISION NOT NULL,
  bid DOUBLE PRECISION,
  ask DOUBLE PRECISION,
  fair DOUBLE PRECISION,
  max_size DOUBLE PRECISION,
  ts_ms BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_quotes_symbol ON quotes(symbol);

CREATE TABLE IF NOT EXISTS contract_meta (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  payload JSONB NOT NULL,
  refreshed_at BIGINT NOT NULL,
  PRIMARY KEY(exchange, symbol)
);
`)
	return err
}

func (r *Repo) UpsertQuotes(ctx context.Context, exchange string, records []model.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quotes(exchange, symbol, last, bid, ask, fair, max_size, ts_ms, updated_at)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT(exchange, symbol) DO UPDATE SET
			last=EXCLUDED.last, bid=EXCLUDED.bid, ask=EXCLUDED.ask, fair=EXCLUDED.fair,
			max_size=EXCLUDED.max_size, ts_ms=EXCLUDED.ts_ms, updated_at=EXCLUDED.updated_at
		`, exchange, rec.Symbol, rec.Last, rec.Bid, rec.Ask, rec.Fair, rec.MaxSize, rec.Ts, now)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", rec.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) UpsertMeta(ctx context.Context, exchange string, meta map[string]model.MetaEntry) error {
	if len(meta) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for sym, m := range meta {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO contract_meta(exchange, symbol, payload, refreshed_at)
			VALUES($1, $2, $3, $4)
			ON CONFLICT(exchange, symbol) DO UPDATE SET
			payload=EXCLUDED.payload, refreshed_at=EXCLUDED.refreshed_at
		`, exchange, sym, string(b), m.RefreshedAt)
		if err != nil {
			return fmt.Errorf("upsert meta %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

var _ port.Repository = (*Repo)(nil)
