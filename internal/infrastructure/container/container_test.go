package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"spreadscope/internal/domain/model"
	"spreadscope/internal/infrastructure/config"
)

func TestContainerWithoutMirrors(t *testing.T) {
	c, err := New(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("failed to create container: %v", err)
	}
	defer c.Close()

	if c.Mirror() != nil {
		t.Error("expected no mirror")
	}
}

func TestContainerWithSQLiteAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.SQLite.Enabled = true
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "mirror.db")
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Prefix = "test"

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create container: %v", err)
	}
	defer c.Close()

	if c.SQLiteRepo() == nil || c.redisClient == nil {
		t.Fatal("expected sqlite and redis to be initialized")
	}

	ctx := context.Background()
	err = c.Mirror().UpsertQuotes(ctx, "gate", []model.NormalizedRecord{{Exchange: "gate", Symbol: "BTC_USDT", Last: 1, Ts: 1}})
	if err != nil {
		t.Fatalf("UpsertQuotes failed: %v", err)
	}

	n, err := c.SQLiteRepo().CountQuotes(ctx, "gate")
	if err != nil || n != 1 {
		t.Errorf("expected 1 sqlite row, got %d (%v)", n, err)
	}
	if !mr.Exists("test:latest:gate") {
		t.Error("expected redis hash to exist")
	}
}

func TestContainerRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{}
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr

	if _, err = New(context.Background(), cfg); err == nil {
		t.Fatal("expected redis init error")
	}
}
