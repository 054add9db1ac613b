package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/alanyoungcy/framecast/internal/window"
)

// MarketSource is the listing-service boundary the resolver probes. The
// Gamma client satisfies it; tests use an in-memory fake.
type MarketSource interface {
	MarketBySlug(ctx context.Context, slug string) (domain.Market, error)
	MarketsByConditionID(ctx context.Context, conditionID string) ([]domain.Market, error)
	ListMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}

// Config holds resolver tuning parameters.
type Config struct {
	// Width is the rotation window for periodic families.
	Width time.Duration
	// ListLimit bounds the bulk listing used by the fallback search.
	ListLimit int
	// Concurrency caps how many identifiers a batch resolves in parallel.
	Concurrency int
	// CallTimeout bounds each upstream call.
	CallTimeout time.Duration
}

func (c *Config) fillDefaults() {
	if c.Width <= 0 {
		c.Width = window.DefaultWidth
	}
	if c.ListLimit <= 0 {
		c.ListLimit = 500
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
}

// Resolver turns raw identifiers into canonical markets via the classify,
// probe, and search cascade.
type Resolver struct {
	src    MarketSource
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Resolver. Zero-value Config fields take defaults.
func New(src MarketSource, cfg Config, logger *slog.Logger) *Resolver {
	cfg.fillDefaults()
	return &Resolver{
		src:    src,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "resolver")),
		now:    time.Now,
	}
}

// ResolveBatch resolves many identifiers concurrently. An identifier that
// fails does not abort the rest: its error is logged and the identifier is
// reported in the second return value. Resolved markets keep the input
// order of their identifiers.
func (r *Resolver) ResolveBatch(ctx context.Context, ids []string) ([]domain.Market, []string) {
	results := make([]*domain.Market, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i, raw := range ids {
		g.Go(func() error {
			m, err := r.Resolve(gctx, raw)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					r.logger.WarnContext(gctx, "identifier resolution failed",
						slog.String("identifier", raw),
						slog.String("error", err.Error()),
					)
				}
				return nil
			}
			results[i] = &m
			return nil
		})
	}
	_ = g.Wait()

	resolved := make([]domain.Market, 0, len(ids))
	var misses []string
	for i, raw := range ids {
		if results[i] != nil {
			resolved = append(resolved, *results[i])
		} else {
			misses = append(misses, raw)
		}
	}
	return resolved, misses
}

// Resolve maps a single identifier to a canonical market. It returns
// domain.ErrNotFound when the cascade exhausts without a hit.
func (r *Resolver) Resolve(ctx context.Context, raw string) (domain.Market, error) {
	id := Classify(raw)

	if id.Kind == KindPeriodic {
		return r.resolvePeriodic(ctx, id)
	}
	return r.resolveStatic(ctx, id)
}

// resolvePeriodic probes the windowed slug candidates in order, then falls
// back to searching a bulk listing for the family. Closed candidates are
// skipped: the point is the instance that is live right now.
func (r *Resolver) resolvePeriodic(ctx context.Context, id Identifier) (domain.Market, error) {
	for _, slug := range Candidates(id.BasePattern, r.cfg.Width, r.now()) {
		m, err := r.fetchSlug(ctx, slug)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				r.logger.WarnContext(ctx, "slug probe failed",
					slog.String("slug", slug),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		if m.IsActive() {
			return m, nil
		}
	}

	listing, err := r.listMarkets(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "fallback listing failed",
			slog.String("pattern", id.BasePattern),
			slog.String("error", err.Error()),
		)
		return domain.Market{}, fmt.Errorf("resolver: %w: %s", domain.ErrNotFound, id.Raw)
	}

	if active := Search(id.BasePattern, listing); len(active) > 0 {
		return active[0], nil
	}
	return domain.Market{}, fmt.Errorf("resolver: %w: %s", domain.ErrNotFound, id.Raw)
}

// resolveStatic looks an identifier up directly: slug fetch first when the
// identifier looks like a slug, then a condition-id filter fetch. An active
// result is preferred, but a closed market still resolves (callers decide
// what to do with it).
func (r *Resolver) resolveStatic(ctx context.Context, id Identifier) (domain.Market, error) {
	var closedHit *domain.Market

	if IsSlug(id.Raw) {
		m, err := r.fetchSlug(ctx, id.Raw)
		switch {
		case err == nil && m.IsActive():
			return m, nil
		case err == nil:
			closedHit = &m
		case !errors.Is(err, domain.ErrNotFound):
			r.logger.WarnContext(ctx, "slug lookup failed",
				slog.String("slug", id.Raw),
				slog.String("error", err.Error()),
			)
		}
	}

	markets, err := r.fetchByConditionID(ctx, id.Raw)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.WarnContext(ctx, "condition lookup failed",
				slog.String("identifier", id.Raw),
				slog.String("error", err.Error()),
			)
		}
	} else if len(markets) > 0 {
		for _, m := range markets {
			if m.IsActive() {
				return m, nil
			}
		}
		return markets[0], nil
	}

	if closedHit != nil {
		return *closedHit, nil
	}
	return domain.Market{}, fmt.Errorf("resolver: %w: %s", domain.ErrNotFound, id.Raw)
}

func (r *Resolver) fetchSlug(ctx context.Context, slug string) (domain.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.src.MarketBySlug(ctx, slug)
}

func (r *Resolver) fetchByConditionID(ctx context.Context, conditionID string) ([]domain.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.src.MarketsByConditionID(ctx, conditionID)
}

func (r *Resolver) listMarkets(ctx context.Context) ([]domain.Market, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.src.ListMarkets(ctx, r.cfg.ListLimit)
}
