package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/framecast/internal/blob/s3"
	"github.com/alanyoungcy/framecast/internal/cache/redis"
	"github.com/alanyoungcy/framecast/internal/config"
	"github.com/alanyoungcy/framecast/internal/crypto"
	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/alanyoungcy/framecast/internal/platform/polymarket"
	"github.com/alanyoungcy/framecast/internal/resolver"
	"github.com/alanyoungcy/framecast/internal/store/postgres"
	"github.com/alanyoungcy/framecast/internal/wallet"
)

// Dependencies bundles every infrastructure-level dependency the application
// needs to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Upstream clients
	Gamma *polymarket.GammaClient
	Clob  *polymarket.ClobClient

	// Resolution
	Resolver *resolver.Resolver

	// Redis-backed state
	BatchCache domain.BatchCache
	Sessions   domain.SessionStore
	SignalBus  domain.SignalBus

	// Optional persistence and storage
	OrderStore domain.OrderStore       // nil when Postgres is disabled
	Archiver   *s3blob.SnapshotArchiver // nil when S3 is disabled
	Wallet     *wallet.Manager          // nil when the chain is disabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Polymarket Gamma + resolver ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	deps.Resolver = resolver.New(deps.Gamma, resolver.Config{
		Width:       time.Duration(cfg.Markets.WindowSeconds) * time.Second,
		ListLimit:   cfg.Markets.ListLimit,
		Concurrency: cfg.Markets.ResolveConcurrency,
		CallTimeout: cfg.Markets.CallTimeout.Duration,
	}, logger)

	// --- CLOB client (signer is optional; without one the client is
	// read-only and order placement stays unavailable) ---
	var signer *crypto.Signer
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		key, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load signing key: %w", err)
		}
		signer, err = crypto.NewSigner(key, cfg.Polymarket.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
	}
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, "", cfg.Polymarket.SignatureType)
	if signer != nil {
		if err := deps.Clob.DeriveAPIKey(ctx); err != nil {
			// Order placement degrades to unauthenticated until restart;
			// market resolution does not depend on it.
			logger.Warn("wire: derive CLOB api key failed", slog.String("error", err.Error()))
		}
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.BatchCache = redis.NewBatchCache(redisClient)
	deps.Sessions = redis.NewSessionStore(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- PostgreSQL (optional order audit trail) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.OrderStore = postgres.NewOrderStore(pgClient.Pool())
	}

	// --- S3 blob storage (optional window snapshots) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewSnapshotArchiver(s3blob.NewWriter(s3Client), cfg.S3.Prefix, logger)
	}

	// --- Chain (optional Safe deployment) ---
	if cfg.Chain.Enabled {
		mgr, err := wallet.New(wallet.Config{
			RPCURL:          cfg.Chain.RPCURL,
			ChainID:         cfg.Chain.ChainID,
			DeployerKey:     cfg.Chain.DeployerKey,
			SafeFactory:     cfg.Chain.SafeFactory,
			SafeMasterCopy:  cfg.Chain.SafeMasterCopy,
			FallbackHandler: cfg.Chain.FallbackHandler,
			USDCAddress:     cfg.Chain.USDCAddress,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet manager: %w", err)
		}
		closers = append(closers, mgr.Close)

		deps.Wallet = mgr
	}

	return deps, cleanup, nil
}
