// Package polymarket implements REST clients for the Polymarket Gamma
// (market discovery) and CLOB (trading) APIs.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery, metadata, and listing.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// MarketBySlug returns a single market looked up by its URL slug. A missing
// slug maps to domain.ErrNotFound.
func (g *GammaClient) MarketBySlug(ctx context.Context, slug string) (domain.Market, error) {
	path := "/markets/slug/" + url.PathEscape(slug)

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market by slug %s: %w", slug, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	return apiMarket.ToCanonical(), nil
}

// MarketsByConditionID returns the markets sharing an on-chain condition id.
func (g *GammaClient) MarketsByConditionID(ctx context.Context, conditionID string) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets by condition %s: %w", conditionID, err)
	}

	markets, err := decodeMarkets(body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return markets, nil
}

// ListMarkets returns up to limit markets from the bulk listing endpoint.
func (g *GammaClient) ListMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: list markets: %w", err)
	}

	markets, err := decodeMarkets(body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return markets, nil
}

// decodeMarkets handles both response shapes the listing endpoints use: a
// bare JSON array and an object wrapping the array in a "data" field.
func decodeMarkets(body []byte) ([]domain.Market, error) {
	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		var wrapped struct {
			Data []APIMarket `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, err
		}
		apiMarkets = wrapped.Data
	}

	markets := make([]domain.Market, 0, len(apiMarkets))
	for i := range apiMarkets {
		markets = append(markets, apiMarkets[i].ToCanonical())
	}
	return markets, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
