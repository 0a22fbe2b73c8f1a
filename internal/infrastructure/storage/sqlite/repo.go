package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

// Repo mirrors the latest quote and metadata per (exchange, symbol).
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
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
  last REAL NOT NULL,
  bid REAL,
  ask REAL,
  fair REAL,
  max_size REAL,
  ts_ms INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY(exchange, symbol)
);
CREATE INDEX IF NOT EXISTS idx_quotes_symbol ON quotes(symbol);

CREATE TABLE IF NOT EXISTS contract_meta (
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  payload TEXT NOT NULL,
  refreshed_at INTEGER NOT NULL,
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes(exchange, symbol, last, bid, ask, fair, max_size, ts_ms, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(exchange, symbol) DO UPDATE SET
		last=excluded.last, bid=excluded.bid, ask=excluded.ask, fair=excluded.fair,
		max_size=excluded.max_size, ts_ms=excluded.ts_ms, updated_at=excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, exchange, rec.Symbol, rec.Last, rec.Bid, rec.Ask, rec.Fair, rec.MaxSize, rec.Ts, now); err != nil {
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contract_meta(exchange, symbol, payload, refreshed_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(exchange, symbol) DO UPDATE SET
		payload=excluded.payload, refreshed_at=excluded.refreshed_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for sym, m := range meta {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, exchange, sym, string(b), m.RefreshedAt); err != nil {
			return fmt.Errorf("upsert meta %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

// GetQuote reads back one mirrored quote.
func (r *Repo) GetQuote(ctx context.Context, exchange, symbol string) (model.PriceEntry, bool, error) {
	var (
		p              model.PriceEntry
		bid, ask, fair sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, `SELECT last, bid, ask, fair, ts_ms FROM quotes WHERE exchange=? AND symbol=?`, exchange, symbol).
		Scan(&p.Last, &bid, &ask, &fair, &p.Ts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PriceEntry{}, false, nil
	}
	if err != nil {
		return model.PriceEntry{}, false, err
	}
	p.Bid, p.Ask, p.Fair = nullable(bid), nullable(ask), nullable(fair)
	return p, true, nil
}

// GetMeta reads back one mirrored metadata entry.
func (r *Repo) GetMeta(ctx context.Context, exchange, symbol string) (model.MetaEntry, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM contract_meta WHERE exchange=? AND symbol=?`, exchange, symbol).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MetaEntry{}, false, nil
	}
	if err != nil {
		return model.MetaEntry{}, false, err
	}
	var m model.MetaEntry
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return model.MetaEntry{}, false, err
	}
	return m, true, nil
}

// CountQuotes returns the number of mirrored quotes of an exchange.
func (r *Repo) CountQuotes(ctx context.Context, exchange string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE exchange=?`, exchange).Scan(&n)
	return n, err
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

var _ port.Repository = (*Repo)(nil)
