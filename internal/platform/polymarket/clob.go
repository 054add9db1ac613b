package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/framecast/internal/crypto"
	"github.com/alanyoungcy/framecast/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It handles order placement, cancellation, and public
// price reads.
type ClobClient struct {
	baseURL       string
	httpClient    *http.Client
	signer        *crypto.Signer
	hmacAuth      *crypto.HMACAuth
	funder        string
	signatureType int
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// signer is the EIP-712 signer for order signatures and auth messages; it
// may be nil for read-only use. funder is the address that holds the
// collateral (the Safe when signatureType is 2).
func NewClobClient(baseURL string, signer *crypto.Signer, funder string, signatureType int) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer:        signer,
		funder:        funder,
		signatureType: signatureType,
	}
}

// PostOrder submits a signed order to the CLOB API and returns the result.
func (c *ClobClient) PostOrder(ctx context.Context, order domain.Order) (domain.OrderResult, error) {
	body := map[string]any{
		"order": map[string]any{
			"tokenID":       order.TokenID,
			"makerAmount":   order.MakerAmount.String(),
			"takerAmount":   order.TakerAmount.String(),
			"side":          string(order.Side),
			"feeRateBps":    "0",
			"nonce":         "0",
			"expiration":    "0",
			"signatureType": c.signatureType,
			"signature":     order.Signature,
			"maker":         order.Wallet,
			"signer":        c.signerAddress(),
			"taker":         "0x0000000000000000000000000000000000000000",
		},
		"owner":     order.Wallet,
		"orderType": string(order.Type),
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	result := apiResult.ToDomainOrderResult()
	if !result.Success {
		return result, fmt.Errorf("polymarket/clob: order rejected: %s", result.Message)
	}

	return result, nil
}

// CancelOrder cancels a single order by its ID.
func (c *ClobClient) CancelOrder(ctx context.Context, orderID string) error {
	body := map[string]any{
		"orderID": orderID,
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/order", body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel order %s: %w", orderID, err)
	}

	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode cancel response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: cancel failed: %s", result.ErrorMsg)
	}

	return nil
}

// CancelAll cancels all open orders for the authenticated wallet.
func (c *ClobClient) CancelAll(ctx context.Context) error {
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodDelete, "/cancel-all", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: cancel all: %w", err)
	}

	var result struct {
		Success  bool   `json:"success"`
		ErrorMsg string `json:"errorMsg"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("polymarket/clob: decode cancel-all response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("polymarket/clob: cancel-all failed: %s", result.ErrorMsg)
	}

	return nil
}

// GetOpenOrders returns all open orders for the authenticated wallet.
func (c *ClobClient) GetOpenOrders(ctx context.Context) ([]domain.Order, error) {
	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodGet, "/orders", nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get open orders: %w", err)
	}

	var apiOrders []APIOrder
	if err := json.Unmarshal(respBody, &apiOrders); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(apiOrders))
	for i := range apiOrders {
		orders = append(orders, apiOrders[i].ToDomainOrder())
	}

	return orders, nil
}

// BookSummary aggregates the public read endpoints (book depth, best bid and
// ask, midpoint, last trade) into one snapshot for a token.
func (c *ClobClient) BookSummary(ctx context.Context, tokenID string) (domain.BookSummary, error) {
	summary := domain.BookSummary{TokenID: tokenID}

	book, err := c.orderBook(ctx, tokenID)
	if err != nil {
		return domain.BookSummary{}, err
	}
	summary.BidLevels = len(book.Bids)
	summary.AskLevels = len(book.Asks)

	// Price reads are best-effort: a missing quote leaves the zero value.
	if p, err := c.price(ctx, tokenID, "buy"); err == nil {
		summary.BuyPrice = p
	}
	if p, err := c.price(ctx, tokenID, "sell"); err == nil {
		summary.SellPrice = p
	}
	if p, err := c.readPriceField(ctx, "/midpoint?token_id="+url.QueryEscape(tokenID), "mid"); err == nil {
		summary.Midpoint = p
	}
	if p, err := c.readPriceField(ctx, "/last-trade-price?token_id="+url.QueryEscape(tokenID), "price"); err == nil {
		summary.LastTrade = p
	}

	return summary, nil
}

// DeriveAPIKey performs the CLOB auth flow to obtain an HMAC API key. It
// signs a ClobAuth EIP-712 message and sends it with L1 headers to the
// derive-api-key endpoint. On success it populates the client's hmacAuth
// field so later requests carry L2 headers.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	if c.signer == nil {
		return fmt.Errorf("polymarket/clob: no signer configured")
	}

	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(address, timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var authResp struct {
		APIKey     string `json:"apiKey"`
		Secret     string `json:"secret"`
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.hmacAuth = &crypto.HMACAuth{
		Key:        authResp.APIKey,
		Secret:     authResp.Secret,
		Passphrase: authResp.Passphrase,
	}

	return nil
}

// CanSign reports whether the client was constructed with a signing key.
func (c *ClobClient) CanSign() bool {
	return c.signer != nil
}

// Signer exposes the underlying EIP-712 signer, or nil for read-only clients.
func (c *ClobClient) Signer() *crypto.Signer {
	return c.signer
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *ClobClient) signerAddress() string {
	if c.signer == nil {
		return ""
	}
	return c.signer.Address().Hex()
}

// orderBook fetches the raw book for a token.
func (c *ClobClient) orderBook(ctx context.Context, tokenID string) (APIBook, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/book?token_id="+url.QueryEscape(tokenID), nil, false)
	if err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(respBody, &book); err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	return book, nil
}

// price fetches the best price for a side ("buy" or "sell").
func (c *ClobClient) price(ctx context.Context, tokenID, side string) (float64, error) {
	path := "/price?token_id=" + url.QueryEscape(tokenID) + "&side=" + url.QueryEscape(side)
	return c.readPriceField(ctx, path, "price")
}

// readPriceField fetches a single-field price response like {"price":"0.52"}.
func (c *ClobClient) readPriceField(ctx context.Context, path, field string) (float64, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get %s: %w", path, err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode %s: %w", path, err)
	}

	raw, ok := payload[field]
	if !ok {
		return 0, fmt.Errorf("polymarket/clob: field %q missing in %s response", field, path)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode %s field %q: %w", path, field, err)
	}
	return f, nil
}

// doAuthenticatedRequest sends a request with HMAC L2 headers applied.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	return c.doRequest(ctx, method, path, body, true)
}

// doRequest builds, optionally signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doRequest(ctx context.Context, method, path string, body any, authenticated bool) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated && c.hmacAuth != nil && c.signer != nil {
		address := c.signer.Address().Hex()
		headers := c.hmacAuth.L2Headers(address, method, path, bodyStr)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors. Server-side
// failures map to ErrUpstream so callers can treat them as transient.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, statusCode, bodyStr)
	}
}
