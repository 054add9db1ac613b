package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/framecast/internal/domain"
)

func TestMarketBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/slug/btc-updown-15m-1700000400" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"condition_id": "0xabc",
			"slug": "btc-updown-15m-1700000400",
			"clobTokenIds": "[\"111\",\"222\"]",
			"outcomes": "[\"Up\",\"Down\"]"
		}`))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	m, err := g.MarketBySlug(context.Background(), "btc-updown-15m-1700000400")
	if err != nil {
		t.Fatalf("MarketBySlug: %v", err)
	}
	if m.ConditionID != "0xabc" {
		t.Errorf("unexpected condition id %q", m.ConditionID)
	}
	if len(m.Tokens) != 2 || m.Tokens[0].Outcome != "Up" {
		t.Errorf("unexpected tokens: %+v", m.Tokens)
	}
}

func TestMarketBySlugNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	_, err := g.MarketBySlug(context.Background(), "missing-slug")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketBySlugServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	_, err := g.MarketBySlug(context.Background(), "any")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestMarketBySlugRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	_, err := g.MarketBySlug(context.Background(), "any")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestListMarketsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("unexpected limit %q", got)
		}
		w.Write([]byte(`[{"condition_id":"0x1"},{"condition_id":"0x2"}]`))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	markets, err := g.ListMarkets(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}
}

func TestListMarketsWrappedData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"condition_id":"0x1"}]}`))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	markets, err := g.ListMarkets(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListMarkets: %v", err)
	}
	if len(markets) != 1 || markets[0].ConditionID != "0x1" {
		t.Errorf("unexpected markets: %+v", markets)
	}
}

func TestMarketsByConditionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("condition_ids"); got != "0xabc" {
			t.Errorf("unexpected condition_ids %q", got)
		}
		w.Write([]byte(`[{"condition_id":"0xabc"}]`))
	}))
	defer srv.Close()

	g := NewGammaClient(srv.URL)
	markets, err := g.MarketsByConditionID(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("MarketsByConditionID: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("expected 1 market, got %d", len(markets))
	}
}
