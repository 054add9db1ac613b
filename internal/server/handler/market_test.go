package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

type fakeMarketService struct {
	batch      domain.ResolvedBatch
	batchErr   error
	summary    domain.BookSummary
	summaryErr error
}

func (f *fakeMarketService) FeaturedMarkets(context.Context) (domain.ResolvedBatch, error) {
	return f.batch, f.batchErr
}

func (f *fakeMarketService) MarketDetails(_ context.Context, _ string) (domain.BookSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeMarketService) NextRefresh() (int64, time.Duration) {
	return 1700001300, 850 * time.Second
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func marketMux(svc *fakeMarketService) *http.ServeMux {
	h := NewMarketHandler(svc, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/next-refresh", h.NextRefresh)
	mux.HandleFunc("GET /api/markets/details/{tokenID}", h.MarketDetails)
	return mux
}

func TestListMarkets(t *testing.T) {
	svc := &fakeMarketService{
		batch: domain.ResolvedBatch{
			Markets:     []domain.Market{{Slug: "btc-updown-15m-1700000400", Active: true}},
			Misses:      []string{"eth-updown-15m"},
			WindowStart: 1700000400,
		},
	}

	rec := httptest.NewRecorder()
	marketMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp featuredResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Markets) != 1 {
		t.Errorf("markets = %d, want 1", len(resp.Markets))
	}
	if resp.WindowStart != 1700000400 {
		t.Errorf("window_start = %d, want 1700000400", resp.WindowStart)
	}
	if resp.NextRefresh != 1700001300 {
		t.Errorf("next_refresh = %d, want 1700001300", resp.NextRefresh)
	}
	if len(resp.Misses) != 1 {
		t.Errorf("misses = %v, want one entry", resp.Misses)
	}
}

func TestListMarketsUpstreamFailure(t *testing.T) {
	svc := &fakeMarketService{batchErr: errors.New("gamma unreachable")}

	rec := httptest.NewRecorder()
	marketMux(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/markets", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestNextRefreshEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	marketMux(&fakeMarketService{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/markets/next-refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["next_refresh"] != 1700001300 {
		t.Errorf("next_refresh = %d, want 1700001300", resp["next_refresh"])
	}
	if resp["seconds_left"] != 850 {
		t.Errorf("seconds_left = %d, want 850", resp["seconds_left"])
	}
}

func TestMarketDetailsNotFound(t *testing.T) {
	svc := &fakeMarketService{summaryErr: domain.ErrNotFound}

	rec := httptest.NewRecorder()
	marketMux(svc).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/markets/details/12345", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
