package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"missing gamma host", func(c *Config) { c.Polymarket.GammaHost = "" }, "gamma_host"},
		{"bad signature type", func(c *Config) { c.Polymarket.SignatureType = 7 }, "signature_type"},
		{"no featured markets", func(c *Config) { c.Markets.Featured = nil }, "featured"},
		{"zero window", func(c *Config) { c.Markets.WindowSeconds = 0 }, "window_seconds"},
		{"bad port", func(c *Config) { c.Server.Port = 99999 }, "port"},
		{"chain enabled without rpc", func(c *Config) { c.Chain.Enabled = true; c.Chain.RPCURL = "" }, "rpc_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FRAMECAST_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("FRAMECAST_MARKETS_FEATURED", "btc-updown-15m, sol-updown-15m")
	t.Setenv("FRAMECAST_MARKETS_CALL_TIMEOUT", "3s")
	t.Setenv("FRAMECAST_POSTGRES_ENABLED", "true")
	t.Setenv("FRAMECAST_SERVER_PORT", "9100")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if len(cfg.Markets.Featured) != 2 || cfg.Markets.Featured[1] != "sol-updown-15m" {
		t.Errorf("featured = %v", cfg.Markets.Featured)
	}
	if cfg.Markets.CallTimeout.Duration != 3*time.Second {
		t.Errorf("call timeout = %v", cfg.Markets.CallTimeout.Duration)
	}
	if !cfg.Postgres.Enabled {
		t.Error("postgres should be enabled")
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestApplyEnvOverridesIgnoresEmpty(t *testing.T) {
	t.Setenv("FRAMECAST_REDIS_ADDR", "")

	cfg := Defaults()
	before := cfg.Redis.Addr
	applyEnvOverrides(&cfg)
	if cfg.Redis.Addr != before {
		t.Errorf("empty env var should not override, got %q", cfg.Redis.Addr)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "secret"

	red := RedactedConfig(&cfg)
	if red.Wallet.PrivateKey != "***" || red.Redis.Password != "***" || red.S3.SecretKey != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Error("original config mutated")
	}
}
