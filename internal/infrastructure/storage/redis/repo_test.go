package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"spreadscope/internal/domain/model"
)

func newTestRepo(t *testing.T, ttl time.Duration) (*Repo, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, "test", ttl, ""), mr, rdb
}

func TestUpsertQuotes(t *testing.T) {
	repo, mr, _ := newTestRepo(t, time.Minute)
	ctx := context.Background()

	err := repo.UpsertQuotes(ctx, "gate", []model.NormalizedRecord{
		{Exchange: "gate", Symbol: "BTC_USDT", Last: 100, Ts: 1},
		{Exchange: "gate", Symbol: "ETH_USDT", Last: 10, Ts: 1},
	})
	require.NoError(t, err)

	rec, ok, err := repo.Latest(ctx, "gate", "BTC_USDT")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 100.0, rec.Last)

	require.Len(t, mr.HKeys("test:latest:gate"), 2)
	require.Equal(t, time.Minute, mr.TTL("test:latest:gate"))

	_, ok, err = repo.Latest(ctx, "gate", "SOL_USDT")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpsertQuotesPublishes(t *testing.T) {
	repo, _, rdb := newTestRepo(t, 0)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, repo.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertQuotes(ctx, "mexc", []model.NormalizedRecord{
		{Exchange: "mexc", Symbol: "BTC_USDT", Last: 101, Ts: 2},
	}))

	select {
	case msg := <-sub.Channel():
		var batch Batch
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &batch))
		require.Equal(t, "mexc", batch.Exchange)
		require.Equal(t, 1, batch.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestUpsertMeta(t *testing.T) {
	repo, mr, _ := newTestRepo(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMeta(ctx, "gate", map[string]model.MetaEntry{
		"BTC_USDT": {SizeMax: model.Float(5), RefreshedAt: 3},
	}))

	var m model.MetaEntry
	require.NoError(t, json.Unmarshal([]byte(mr.HGet("test:meta:gate", "BTC_USDT")), &m))
	require.Equal(t, int64(3), m.RefreshedAt)
	require.Equal(t, 5.0, *m.SizeMax)
}

func TestUpsertFailsWhenServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	repo := New(rdb, "test", 0, "")
	mr.Close()

	err = repo.UpsertQuotes(context.Background(), "gate", []model.NormalizedRecord{{Symbol: "X", Last: 1}})
	require.Error(t, err)
}
