package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spreadscope/internal/application/port"
	"spreadscope/internal/domain/model"
)

// Repo keeps the latest normalized record per exchange in a hash and
// publishes every batch on a pub/sub channel.
//
//	<prefix>:latest:<exchange>  field <symbol> -> record JSON
//	<prefix>:meta:<exchange>    field <symbol> -> meta JSON
type Repo struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	channel string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, channel string) *Repo {
	if channel == "" {
		channel = prefix + ":ticks"
	}
	return &Repo{
		rdb:     rdb,
		prefix:  prefix,
		ttl:     ttl,
		channel: channel,
	}
}

func (r *Repo) LatestKey(exchange string) string { return r.prefix + ":latest:" + exchange }
func (r *Repo) MetaKey(exchange string) string   { return r.prefix + ":meta:" + exchange }
func (r *Repo) Channel() string                  { return r.channel }

// Batch is the message published after each quotes upsert.
type Batch struct {
	Exchange string                   `json:"exchange"`
	Count    int                      `json:"count"`
	Records  []model.NormalizedRecord `json:"records"`
}

func (r *Repo) UpsertQuotes(ctx context.Context, exchange string, records []model.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	key := r.LatestKey(exchange)
	values := make([]any, 0, 2*len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		values = append(values, rec.Symbol, string(b))
	}

	msg, err := json.Marshal(Batch{Exchange: exchange, Count: len(records), Records: records})
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, values...)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	pipe.Publish(ctx, r.channel, string(msg))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis quotes %s: %w", exchange, err)
	}
	return nil
}

func (r *Repo) UpsertMeta(ctx context.Context, exchange string, meta map[string]model.MetaEntry) error {
	if len(meta) == 0 {
		return nil
	}
	key := r.MetaKey(exchange)
	values := make([]any, 0, 2*len(meta))
	for sym, m := range meta {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, sym, string(b))
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, values...)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis meta %s: %w", exchange, err)
	}
	return nil
}

// Latest reads one mirrored record.
func (r *Repo) Latest(ctx context.Context, exchange, symbol string) (model.NormalizedRecord, bool, error) {
	s, err := r.rdb.HGet(ctx, r.LatestKey(exchange), symbol).Result()
	if err == redis.Nil {
		return model.NormalizedRecord{}, false, nil
	}
	if err != nil {
		return model.NormalizedRecord{}, false, err
	}
	var rec model.NormalizedRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return model.NormalizedRecord{}, false, err
	}
	return rec, true, nil
}

// Close is a no-op; the client is owned by whoever created it.
func (r *Repo) Close() error { return nil }

var _ port.Repository = (*Repo)(nil)
