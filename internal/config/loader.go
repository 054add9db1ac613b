package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FRAMECAST_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FRAMECAST_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "FRAMECAST_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "FRAMECAST_POLYMARKET_CLOB_HOST")
	setInt(&cfg.Polymarket.ChainID, "FRAMECAST_POLYMARKET_CHAIN_ID")
	setInt(&cfg.Polymarket.SignatureType, "FRAMECAST_POLYMARKET_SIGNATURE_TYPE")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "FRAMECAST_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "FRAMECAST_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "FRAMECAST_WALLET_KEY_PASSWORD")

	// ── Chain ──
	setBool(&cfg.Chain.Enabled, "FRAMECAST_CHAIN_ENABLED")
	setStr(&cfg.Chain.RPCURL, "FRAMECAST_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "FRAMECAST_CHAIN_CHAIN_ID")
	setStr(&cfg.Chain.DeployerKey, "FRAMECAST_CHAIN_DEPLOYER_KEY")
	setStr(&cfg.Chain.SafeFactory, "FRAMECAST_CHAIN_SAFE_FACTORY")
	setStr(&cfg.Chain.SafeMasterCopy, "FRAMECAST_CHAIN_SAFE_MASTER_COPY")
	setStr(&cfg.Chain.FallbackHandler, "FRAMECAST_CHAIN_FALLBACK_HANDLER")
	setStr(&cfg.Chain.USDCAddress, "FRAMECAST_CHAIN_USDC_ADDRESS")

	// ── Markets ──
	setStringSlice(&cfg.Markets.Featured, "FRAMECAST_MARKETS_FEATURED")
	setInt(&cfg.Markets.WindowSeconds, "FRAMECAST_MARKETS_WINDOW_SECONDS")
	setInt(&cfg.Markets.ListLimit, "FRAMECAST_MARKETS_LIST_LIMIT")
	setInt(&cfg.Markets.ResolveConcurrency, "FRAMECAST_MARKETS_RESOLVE_CONCURRENCY")
	setDuration(&cfg.Markets.CallTimeout, "FRAMECAST_MARKETS_CALL_TIMEOUT")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "FRAMECAST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FRAMECAST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FRAMECAST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FRAMECAST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FRAMECAST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FRAMECAST_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "FRAMECAST_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "FRAMECAST_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FRAMECAST_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FRAMECAST_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FRAMECAST_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FRAMECAST_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FRAMECAST_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FRAMECAST_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FRAMECAST_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FRAMECAST_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FRAMECAST_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "FRAMECAST_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "FRAMECAST_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FRAMECAST_S3_REGION")
	setStr(&cfg.S3.Bucket, "FRAMECAST_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FRAMECAST_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FRAMECAST_S3_SECRET_KEY")
	setStr(&cfg.S3.Prefix, "FRAMECAST_S3_PREFIX")
	setBool(&cfg.S3.ForcePathStyle, "FRAMECAST_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "FRAMECAST_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FRAMECAST_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "FRAMECAST_SERVER_API_KEY")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "FRAMECAST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
