package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var DefaultExchanges = []string{"gate", "mexc", "ourbit"}

type Config struct {
	App struct {
		Name string `toml:"name"`
	} `toml:"app"`

	HTTP struct {
		Addr               string  `toml:"addr"`
		FrontendDir        string  `toml:"frontend_dir"`
		ShutdownTimeoutSec float64 `toml:"shutdown_timeout_sec"`
		WriteTimeoutSec    float64 `toml:"write_timeout_sec"`
		PingIdleSec        float64 `toml:"ping_idle_sec"`
	} `toml:"http"`

	Poller struct {
		Exchanges      []string `toml:"exchanges"`
		IntervalMin    float64  `toml:"interval_min"`
		IntervalMax    float64  `toml:"interval_max"`
		MetaMin        float64  `toml:"meta_min"`
		MetaMax        float64  `toml:"meta_max"`
		HTTPTimeoutSec float64  `toml:"http_timeout"`
		UserAgent      string   `toml:"user_agent"`
	} `toml:"poller"`

	// Exchange overrides keyed by exchange name.
	Exchange map[string]ExchangeConfig `toml:"exchange"`

	Redis struct {
		Enabled    bool   `toml:"enabled"`
		Addr       string `toml:"addr"`
		Password   string `toml:"password"`
		DB         int    `toml:"db"`
		Prefix     string `toml:"prefix"`
		Channel    string `toml:"channel"`
		TTLSeconds int    `toml:"ttl_seconds"`
	} `toml:"redis"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Rates struct {
		Path string `toml:"path"`
	} `toml:"rates"`

	Log struct {
		Level  string `toml:"level"`
		Pretty bool   `toml:"pretty"`
	} `toml:"log"`
}

type ExchangeConfig struct {
	// Enabled=false switches off an exchange listed in poller.exchanges.
	Enabled   *bool  `toml:"enabled"`
	TickerURL string `toml:"ticker_url"`
	MetaURL   string `toml:"meta_url"`
}

// Load reads .env, the optional TOML file at path and environment overrides,
// in that order of precedence from lowest to highest.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.Log.Pretty = true
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("EXCHANGES"); ok && strings.TrimSpace(v) != "" {
		cfg.Poller.Exchanges = strings.Split(v, ",")
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"INTERVAL_MIN", &cfg.Poller.IntervalMin},
		{"INTERVAL_MAX", &cfg.Poller.IntervalMax},
		{"HTTP_TIMEOUT", &cfg.Poller.HTTPTimeoutSec},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	if v, ok := lookup("HTTP_ADDR"); ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		cfg.Redis.Addr = v
	}
	if v, ok := lookup("POSTGRES_DSN"); ok && v != "" {
		cfg.Postgres.DSN = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "SpreadScope"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.FrontendDir == "" {
		cfg.HTTP.FrontendDir = "frontend"
	}
	if cfg.HTTP.ShutdownTimeoutSec <= 0 {
		cfg.HTTP.ShutdownTimeoutSec = 10
	}
	if cfg.HTTP.WriteTimeoutSec <= 0 {
		cfg.HTTP.WriteTimeoutSec = 5
	}
	if cfg.HTTP.PingIdleSec <= 0 {
		cfg.HTTP.PingIdleSec = 60
	}
	if len(cfg.Poller.Exchanges) == 0 {
		cfg.Poller.Exchanges = append([]string(nil), DefaultExchanges...)
	}
	if cfg.Poller.IntervalMin <= 0 {
		cfg.Poller.IntervalMin = 0.6
	}
	if cfg.Poller.IntervalMax <= 0 {
		cfg.Poller.IntervalMax = 1.2
	}
	if cfg.Poller.MetaMin <= 0 {
		cfg.Poller.MetaMin = 5
	}
	if cfg.Poller.MetaMax <= 0 {
		cfg.Poller.MetaMax = 12
	}
	if cfg.Poller.HTTPTimeoutSec <= 0 {
		cfg.Poller.HTTPTimeoutSec = 10
	}
	if cfg.Poller.UserAgent == "" {
		cfg.Poller.UserAgent = "SpreadScope/0.1"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "spreadscope"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "spreadscope:ticks"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/spreadscope.db"
	}
	if cfg.Rates.Path == "" {
		cfg.Rates.Path = "data/rates.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validate(cfg *Config) error {
	cfg.Poller.Exchanges = normalizeExchanges(cfg.Poller.Exchanges)
	if len(cfg.EnabledExchanges()) == 0 {
		return errors.New("poller.exchanges is empty")
	}
	if cfg.Poller.IntervalMax < cfg.Poller.IntervalMin {
		return fmt.Errorf("poller.interval_max %.3f below interval_min %.3f", cfg.Poller.IntervalMax, cfg.Poller.IntervalMin)
	}
	if cfg.Poller.MetaMax < cfg.Poller.MetaMin {
		return fmt.Errorf("poller.meta_max %.3f below meta_min %.3f", cfg.Poller.MetaMax, cfg.Poller.MetaMin)
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but enabled")
	}
	return nil
}

// EnabledExchanges returns the polled exchanges in configured order.
func (c *Config) EnabledExchanges() []string {
	out := make([]string, 0, len(c.Poller.Exchanges))
	for _, ex := range c.Poller.Exchanges {
		if ec, ok := c.Exchange[ex]; ok && ec.Enabled != nil && !*ec.Enabled {
			continue
		}
		out = append(out, ex)
	}
	return out
}

func (c *Config) IntervalMin() time.Duration     { return seconds(c.Poller.IntervalMin) }
func (c *Config) IntervalMax() time.Duration     { return seconds(c.Poller.IntervalMax) }
func (c *Config) MetaMin() time.Duration         { return seconds(c.Poller.MetaMin) }
func (c *Config) MetaMax() time.Duration         { return seconds(c.Poller.MetaMax) }
func (c *Config) HTTPTimeout() time.Duration     { return seconds(c.Poller.HTTPTimeoutSec) }
func (c *Config) ShutdownTimeout() time.Duration { return seconds(c.HTTP.ShutdownTimeoutSec) }
func (c *Config) WriteTimeout() time.Duration    { return seconds(c.HTTP.WriteTimeoutSec) }
func (c *Config) PingIdle() time.Duration        { return seconds(c.HTTP.PingIdleSec) }

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func normalizeExchanges(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		ex := strings.ToLower(strings.TrimSpace(s))
		if ex == "" {
			continue
		}
		if _, ok := seen[ex]; ok {
			continue
		}
		seen[ex] = struct{}{}
		out = append(out, ex)
	}
	return out
}
