// Package config defines the top-level configuration for the framecast
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FRAMECAST_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Wallet     WalletConfig     `toml:"wallet"`
	Chain      ChainConfig      `toml:"chain"`
	Markets    MarketsConfig    `toml:"markets"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Server     ServerConfig     `toml:"server"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and signing parameters.
type PolymarketConfig struct {
	GammaHost     string `toml:"gamma_host"`
	ClobHost      string `toml:"clob_host"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
}

// WalletConfig holds the signing key for CLOB orders.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ChainConfig holds the Polygon RPC endpoint and the Safe deployment
// contract addresses.
type ChainConfig struct {
	Enabled         bool   `toml:"enabled"`
	RPCURL          string `toml:"rpc_url"`
	ChainID         int64  `toml:"chain_id"`
	DeployerKey     string `toml:"deployer_key"`
	SafeFactory     string `toml:"safe_factory"`
	SafeMasterCopy  string `toml:"safe_master_copy"`
	FallbackHandler string `toml:"fallback_handler"`
	USDCAddress     string `toml:"usdc_address"`
}

// MarketsConfig holds the featured identifiers and resolution tuning.
type MarketsConfig struct {
	// Featured lists the identifiers the refresh loop resolves each window.
	// Periodic family patterns and static slugs or condition ids both work.
	Featured           []string `toml:"featured"`
	WindowSeconds      int      `toml:"window_seconds"`
	ListLimit          int      `toml:"list_limit"`
	ResolveConcurrency int      `toml:"resolve_concurrency"`
	CallTimeout        duration `toml:"call_timeout"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds the optional order audit database parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds the optional snapshot storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	Prefix         string `toml:"prefix"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// Contract addresses default to the Polygon mainnet Safe v1.3.0 deployment.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:     "https://gamma-api.polymarket.com",
			ClobHost:      "https://clob.polymarket.com",
			ChainID:       137,
			SignatureType: 2,
		},
		Chain: ChainConfig{
			Enabled:         false,
			RPCURL:          "https://polygon-rpc.com",
			ChainID:         137,
			SafeFactory:     "0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2",
			SafeMasterCopy:  "0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552",
			FallbackHandler: "0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4",
			USDCAddress:     "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		},
		Markets: MarketsConfig{
			Featured:           []string{"btc-updown-15m", "eth-updown-15m"},
			WindowSeconds:      900,
			ListLimit:          500,
			ResolveConcurrency: 4,
			CallTimeout:        duration{10 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "framecast",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "framecast-data",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket endpoints
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.SignatureType != 0 && c.Polymarket.SignatureType != 1 && c.Polymarket.SignatureType != 2 {
		errs = append(errs, fmt.Sprintf("polymarket: signature_type must be 0 (EOA), 1 (proxy), or 2 (Safe), got %d", c.Polymarket.SignatureType))
	}

	// Wallet: key password is only meaningful with an encrypted key file.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Chain
	if c.Chain.Enabled {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain: rpc_url must not be empty when enabled")
		}
		if c.Chain.DeployerKey == "" {
			errs = append(errs, "chain: deployer_key must be set when enabled")
		}
		if c.Chain.ChainID <= 0 {
			errs = append(errs, "chain: chain_id must be positive")
		}
	}

	// Markets
	if len(c.Markets.Featured) == 0 {
		errs = append(errs, "markets: featured must list at least one identifier")
	}
	if c.Markets.WindowSeconds <= 0 {
		errs = append(errs, "markets: window_seconds must be positive")
	}
	if c.Markets.ListLimit < 1 {
		errs = append(errs, "markets: list_limit must be >= 1")
	}
	if c.Markets.ResolveConcurrency < 1 {
		errs = append(errs, "markets: resolve_concurrency must be >= 1")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
