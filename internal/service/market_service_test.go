package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

type fakeBatchResolver struct {
	mu      sync.Mutex
	calls   int
	markets []domain.Market
	misses  []string
}

func (f *fakeBatchResolver) ResolveBatch(_ context.Context, _ []string) ([]domain.Market, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.markets, f.misses
}

type memBatchCache struct {
	mu      sync.Mutex
	entries map[string]domain.ResolvedBatch
	sets    int
}

func newMemBatchCache() *memBatchCache {
	return &memBatchCache{entries: make(map[string]domain.ResolvedBatch)}
}

func (c *memBatchCache) Set(_ context.Context, key string, batch domain.ResolvedBatch, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = batch
	c.sets++
	return nil
}

func (c *memBatchCache) Get(_ context.Context, key string) (domain.ResolvedBatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return domain.ResolvedBatch{}, domain.ErrNotFound
	}
	return b, nil
}

func (c *memBatchCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type memBus struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newMemBus() *memBus {
	return &memBus{messages: make(map[string][][]byte)}
}

func (b *memBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[channel] = append(b.messages[channel], payload)
	return nil
}

func (b *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMarketService(res *fakeBatchResolver, cache *memBatchCache, at time.Time) *MarketService {
	svc := NewMarketService(res, nil, cache, newMemBus(), nil,
		[]string{"btc-updown-15m"}, 15*time.Minute, testLogger())
	svc.now = func() time.Time { return at }
	return svc
}

func TestFeaturedMarketsResolvesAndCaches(t *testing.T) {
	res := &fakeBatchResolver{markets: []domain.Market{{Slug: "btc-updown-15m-1700000100", Active: true}}}
	cache := newMemBatchCache()
	svc := newTestMarketService(res, cache, time.Unix(1700000450, 0))

	batch, err := svc.FeaturedMarkets(context.Background())
	if err != nil {
		t.Fatalf("FeaturedMarkets: %v", err)
	}
	if batch.WindowStart != 1700000400 {
		t.Errorf("WindowStart = %d, want 1700000400", batch.WindowStart)
	}
	if len(batch.Markets) != 1 {
		t.Fatalf("markets = %d, want 1", len(batch.Markets))
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
}

func TestFeaturedMarketsServesCacheWithinWindow(t *testing.T) {
	res := &fakeBatchResolver{markets: []domain.Market{{Slug: "a", Active: true}}}
	cache := newMemBatchCache()
	svc := newTestMarketService(res, cache, time.Unix(1700000450, 0))

	if _, err := svc.FeaturedMarkets(context.Background()); err != nil {
		t.Fatalf("first FeaturedMarkets: %v", err)
	}
	if _, err := svc.FeaturedMarkets(context.Background()); err != nil {
		t.Fatalf("second FeaturedMarkets: %v", err)
	}

	if res.calls != 1 {
		t.Errorf("resolver calls = %d, want 1 (second read from cache)", res.calls)
	}
}

func TestFeaturedMarketsReResolvesAfterRollover(t *testing.T) {
	res := &fakeBatchResolver{markets: []domain.Market{{Slug: "a", Active: true}}}
	cache := newMemBatchCache()

	now := time.Unix(1700000450, 0)
	svc := newTestMarketService(res, cache, now)
	if _, err := svc.FeaturedMarkets(context.Background()); err != nil {
		t.Fatalf("FeaturedMarkets: %v", err)
	}

	// Move past the window boundary; the cached batch is stale even though
	// the entry still exists.
	svc.now = func() time.Time { return time.Unix(1700001310, 0) }
	batch, err := svc.FeaturedMarkets(context.Background())
	if err != nil {
		t.Fatalf("FeaturedMarkets after rollover: %v", err)
	}
	if res.calls != 2 {
		t.Errorf("resolver calls = %d, want 2", res.calls)
	}
	if batch.WindowStart != 1700001300 {
		t.Errorf("WindowStart = %d, want 1700001300", batch.WindowStart)
	}
}

func TestFeaturedMarketsAllMissesIsError(t *testing.T) {
	res := &fakeBatchResolver{misses: []string{"btc-updown-15m"}}
	svc := newTestMarketService(res, newMemBatchCache(), time.Unix(1700000450, 0))

	if _, err := svc.FeaturedMarkets(context.Background()); err == nil {
		t.Error("expected error when every identifier misses")
	}
}

func TestNextRefresh(t *testing.T) {
	svc := newTestMarketService(&fakeBatchResolver{}, newMemBatchCache(), time.Unix(1700000450, 0))

	next, until := svc.NextRefresh()
	if next != 1700001300 {
		t.Errorf("next = %d, want 1700001300", next)
	}
	if want := 850 * time.Second; until != want {
		t.Errorf("until = %v, want %v", until, want)
	}
}
