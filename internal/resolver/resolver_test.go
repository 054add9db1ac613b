package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// fakeSource is an in-memory MarketSource that records the calls it receives.
type fakeSource struct {
	mu        sync.Mutex
	bySlug    map[string]domain.Market
	byCond    map[string][]domain.Market
	listing   []domain.Market
	slugErrs  map[string]error
	slugCalls []string
	listCalls int
}

func (f *fakeSource) MarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	f.mu.Lock()
	f.slugCalls = append(f.slugCalls, slug)
	f.mu.Unlock()

	if err, ok := f.slugErrs[slug]; ok {
		return domain.Market{}, err
	}
	if m, ok := f.bySlug[slug]; ok {
		return m, nil
	}
	return domain.Market{}, fmt.Errorf("gamma: %w: %s", domain.ErrNotFound, slug)
}

func (f *fakeSource) MarketsByConditionID(ctx context.Context, conditionID string) ([]domain.Market, error) {
	if ms, ok := f.byCond[conditionID]; ok {
		return ms, nil
	}
	return nil, nil
}

func (f *fakeSource) ListMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	return f.listing, nil
}

func newTestResolver(src MarketSource, at time.Time) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(src, Config{}, logger)
	r.now = func() time.Time { return at }
	return r
}

func TestResolvePeriodicCurrentWindow(t *testing.T) {
	now := time.Unix(1700000450, 0) // window 1700000400
	active := mk("eth-updown-15m-1700000400", true, false)

	src := &fakeSource{bySlug: map[string]domain.Market{active.Slug: active}}
	r := newTestResolver(src, now)

	got, err := r.Resolve(context.Background(), "eth-updown-15m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != active.Slug {
		t.Fatalf("resolved %q, want %q", got.Slug, active.Slug)
	}
	if src.listCalls != 0 {
		t.Fatal("fallback listing must not run when a probe hits")
	}
}

func TestResolvePeriodicPreviousWindow(t *testing.T) {
	now := time.Unix(1700000450, 0)
	closed := mk("eth-updown-15m-1700000400", false, true)
	prev := mk("eth-updown-15m-1699999500", true, false)

	src := &fakeSource{bySlug: map[string]domain.Market{
		closed.Slug: closed,
		prev.Slug:   prev,
	}}
	r := newTestResolver(src, now)

	got, err := r.Resolve(context.Background(), "eth-updown-15m-1761921000")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != prev.Slug {
		t.Fatalf("resolved %q, want previous-window instance %q", got.Slug, prev.Slug)
	}
	if src.listCalls != 0 {
		t.Fatal("fallback listing must not run when a probe hits")
	}
}

func TestResolvePeriodicFallbackSearch(t *testing.T) {
	now := time.Unix(1700000450, 0)
	live := mk("btc-updown-15m-1700003100", true, false)

	src := &fakeSource{
		bySlug:  map[string]domain.Market{},
		listing: []domain.Market{mk("other", true, false), live},
	}
	r := newTestResolver(src, now)

	got, err := r.Resolve(context.Background(), "btc-updown-15m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != live.Slug {
		t.Fatalf("resolved %q, want %q", got.Slug, live.Slug)
	}
	if src.listCalls != 1 {
		t.Fatalf("listCalls = %d, want 1", src.listCalls)
	}
	if len(src.slugCalls) != len(probeOffsets) {
		t.Fatalf("probed %d slugs, want %d", len(src.slugCalls), len(probeOffsets))
	}
}

func TestResolvePeriodicExhausted(t *testing.T) {
	src := &fakeSource{}
	r := newTestResolver(src, time.Unix(1700000450, 0))

	_, err := r.Resolve(context.Background(), "btc-updown-15m")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolvePeriodicProbeErrorContinues(t *testing.T) {
	now := time.Unix(1700000450, 0)
	prev := mk("eth-updown-15m-1699999500", true, false)

	src := &fakeSource{
		bySlug: map[string]domain.Market{prev.Slug: prev},
		slugErrs: map[string]error{
			"eth-updown-15m-1700000400": fmt.Errorf("gamma: %w: HTTP 503", domain.ErrUpstream),
		},
	}
	r := newTestResolver(src, now)

	got, err := r.Resolve(context.Background(), "eth-updown-15m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != prev.Slug {
		t.Fatalf("resolved %q, want %q despite upstream error on first probe", got.Slug, prev.Slug)
	}
}

func TestResolveStaticSlug(t *testing.T) {
	m := mk("will-x-happen", true, false)
	src := &fakeSource{bySlug: map[string]domain.Market{m.Slug: m}}
	r := newTestResolver(src, time.Now())

	got, err := r.Resolve(context.Background(), "will-x-happen")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Slug != m.Slug {
		t.Fatalf("resolved %q, want %q", got.Slug, m.Slug)
	}
}

func TestResolveStaticClosedSlugStillResolves(t *testing.T) {
	m := mk("settled-question", false, true)
	src := &fakeSource{bySlug: map[string]domain.Market{m.Slug: m}}
	r := newTestResolver(src, time.Now())

	got, err := r.Resolve(context.Background(), "settled-question")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.Closed {
		t.Fatal("expected the closed market to resolve as-is")
	}
}

func TestResolveStaticConditionIDPrefersActive(t *testing.T) {
	cond := "0x157ebf10b47ebeedd56e1b4e3fcab375b62ba7bb"
	closed := mk("a", false, true)
	active := mk("b", true, false)

	src := &fakeSource{byCond: map[string][]domain.Market{
		cond: {closed, active},
	}}
	r := newTestResolver(src, time.Now())

	got, err := r.Resolve(context.Background(), cond)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !got.IsActive() {
		t.Fatal("expected the active match to win over the closed one")
	}
}

func TestResolveBatchPartialFailure(t *testing.T) {
	now := time.Unix(1700000450, 0)
	a := mk("will-a-happen", true, false)
	b := mk("eth-updown-15m-1700000400", true, false)

	src := &fakeSource{bySlug: map[string]domain.Market{
		a.Slug: a,
		b.Slug: b,
	}}
	r := newTestResolver(src, now)

	ids := []string{"will-a-happen", "no-such-market-anywhere", "eth-updown-15m"}
	resolved, misses := r.ResolveBatch(context.Background(), ids)

	if len(resolved) != 2 {
		t.Fatalf("resolved %d markets, want 2", len(resolved))
	}
	if resolved[0].Slug != a.Slug || resolved[1].Slug != b.Slug {
		t.Fatalf("batch order not preserved: %q, %q", resolved[0].Slug, resolved[1].Slug)
	}
	if len(misses) != 1 || misses[0] != "no-such-market-anywhere" {
		t.Fatalf("misses = %v, want the one unresolvable identifier", misses)
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	r := newTestResolver(&fakeSource{}, time.Now())
	resolved, misses := r.ResolveBatch(context.Background(), nil)
	if len(resolved) != 0 || len(misses) != 0 {
		t.Fatalf("empty batch returned %d/%d", len(resolved), len(misses))
	}
}
