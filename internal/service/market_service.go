package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/alanyoungcy/framecast/internal/window"
)

// featuredCacheKey is the BatchCache key for the featured-market batch.
const featuredCacheKey = "featured"

// refreshChannel is the SignalBus channel window-rollover events publish to.
const refreshChannel = "markets"

// minCacheTTL floors the cache TTL so a batch resolved moments before a
// window boundary is not written with a near-zero expiry.
const minCacheTTL = 5 * time.Second

// BatchResolver resolves a batch of identifiers to live markets.
// *resolver.Resolver satisfies it.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, ids []string) ([]domain.Market, []string)
}

// BookReader reads per-token order book state. *polymarket.ClobClient
// satisfies it.
type BookReader interface {
	BookSummary(ctx context.Context, tokenID string) (domain.BookSummary, error)
}

// SnapshotArchiver persists resolved batches for offline analysis.
type SnapshotArchiver interface {
	Archive(ctx context.Context, batch domain.ResolvedBatch) error
}

// RefreshEvent is the payload published on the markets channel when the
// tracked window rolls over.
type RefreshEvent struct {
	WindowStart int64           `json:"window_start"`
	NextRefresh int64           `json:"next_refresh"`
	Markets     []domain.Market `json:"markets"`
	Misses      []string        `json:"misses,omitempty"`
}

// MarketService serves the featured-market batch. Reads go through the
// cache; the refresh loop re-resolves at each window boundary and fans the
// new batch out over the signal bus.
type MarketService struct {
	resolver BatchResolver
	books    BookReader
	cache    domain.BatchCache
	bus      domain.SignalBus
	archiver SnapshotArchiver // nil disables snapshots
	featured []string
	width    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewMarketService creates a MarketService. archiver may be nil when
// snapshot storage is not configured.
func NewMarketService(
	res BatchResolver,
	books BookReader,
	cache domain.BatchCache,
	bus domain.SignalBus,
	archiver SnapshotArchiver,
	featured []string,
	width time.Duration,
	logger *slog.Logger,
) *MarketService {
	if width <= 0 {
		width = window.DefaultWidth
	}
	return &MarketService{
		resolver: res,
		books:    books,
		cache:    cache,
		bus:      bus,
		archiver: archiver,
		featured: featured,
		width:    width,
		logger:   logger.With(slog.String("component", "market_service")),
		now:      time.Now,
	}
}

// FeaturedMarkets returns the currently-active instances of the featured
// identifiers, serving from cache when a batch for the current window
// exists.
func (s *MarketService) FeaturedMarkets(ctx context.Context) (domain.ResolvedBatch, error) {
	start := window.Current(s.width, s.now())

	if cached, err := s.cache.Get(ctx, featuredCacheKey); err == nil && cached.WindowStart == start {
		return cached, nil
	}

	return s.refresh(ctx)
}

// MarketDetails returns the live book snapshot for a token.
func (s *MarketService) MarketDetails(ctx context.Context, tokenID string) (domain.BookSummary, error) {
	summary, err := s.books.BookSummary(ctx, tokenID)
	if err != nil {
		return domain.BookSummary{}, fmt.Errorf("market_service: book summary %s: %w", tokenID, err)
	}
	return summary, nil
}

// NextRefresh reports the Unix time of the next window boundary and how long
// until it.
func (s *MarketService) NextRefresh() (int64, time.Duration) {
	now := s.now()
	return window.Next(s.width, now), window.UntilNext(s.width, now)
}

// RunRefreshLoop re-resolves the featured batch at every window boundary
// until the context is cancelled. Each refresh result is cached, published
// on the markets channel, and archived when an archiver is configured.
func (s *MarketService) RunRefreshLoop(ctx context.Context) error {
	// Resolve once up front so the cache is warm before the first boundary.
	if _, err := s.refresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "initial refresh failed",
			slog.String("error", err.Error()),
		)
	}

	for {
		wait := window.UntilNext(s.width, s.now())
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		batch, err := s.refresh(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "window refresh failed",
				slog.String("error", err.Error()),
			)
			continue
		}

		s.publish(ctx, batch)

		if s.archiver != nil {
			if err := s.archiver.Archive(ctx, batch); err != nil {
				s.logger.WarnContext(ctx, "snapshot archive failed",
					slog.Int64("window_start", batch.WindowStart),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// refresh resolves the featured identifiers and caches the result with a
// TTL that expires at the window boundary.
func (s *MarketService) refresh(ctx context.Context) (domain.ResolvedBatch, error) {
	now := s.now()
	markets, misses := s.resolver.ResolveBatch(ctx, s.featured)

	if len(markets) == 0 && len(s.featured) > 0 {
		return domain.ResolvedBatch{}, fmt.Errorf("market_service: no identifiers resolved (%d misses)", len(misses))
	}

	batch := domain.ResolvedBatch{
		Markets:     markets,
		Misses:      misses,
		WindowStart: window.Current(s.width, now),
		ResolvedAt:  now.UTC(),
	}

	ttl := window.UntilNext(s.width, now)
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}
	if err := s.cache.Set(ctx, featuredCacheKey, batch, ttl); err != nil {
		s.logger.WarnContext(ctx, "batch cache write failed",
			slog.String("error", err.Error()),
		)
		// Non-fatal: the next read resolves again.
	}

	s.logger.InfoContext(ctx, "featured batch resolved",
		slog.Int64("window_start", batch.WindowStart),
		slog.Int("markets", len(markets)),
		slog.Int("misses", len(misses)),
	)

	return batch, nil
}

// publish fans a refresh event out on the markets channel. Failures are
// logged; subscribers fall back to polling.
func (s *MarketService) publish(ctx context.Context, batch domain.ResolvedBatch) {
	event := RefreshEvent{
		WindowStart: batch.WindowStart,
		NextRefresh: batch.WindowStart + int64(s.width/time.Second),
		Markets:     batch.Markets,
		Misses:      batch.Misses,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal refresh event failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, refreshChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "publish refresh event failed",
			slog.String("error", err.Error()),
		)
	}
}
