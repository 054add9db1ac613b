package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Set records
// whether the field was present and parseable, so callers can apply
// defaults.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		f.Value, f.Set = n, true
	}
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Gamma API. Field shapes
// vary between endpoints and market generations: prices and outcomes arrive
// as JSON-encoded strings, token lists as either a CSV string field or a
// structured array, and booleans sometimes as strings. ToCanonical absorbs
// all of it.
type APIMarket struct {
	ConditionID   string    `json:"condition_id"`
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	Slug          string    `json:"slug"`
	EventSlug     string    `json:"eventSlug"`
	Active        *flexBool `json:"active"` // absent means active
	Closed        bool      `json:"closed"`
	Outcomes      string    `json:"outcomes"`      // JSON-encoded or CSV, e.g. "[\"Yes\",\"No\"]"
	ShortOutcomes string    `json:"shortOutcomes"` // fallback for Outcomes
	OutcomePrices string    `json:"outcomePrices"` // JSON array or label-keyed object
	ClobTokenIDs  string    `json:"clobTokenIds"`  // JSON-encoded or CSV token id list
	Tokens        []APIToken `json:"tokens"`
	EndDateISO    string    `json:"end_date_iso"`
	EndDate       string    `json:"endDate"`
}

// APIToken is a token entry inside a Gamma or CLOB market response. Some
// endpoints send full objects, others send bare token-id strings; both
// decode into this type.
type APIToken struct {
	TokenID string    `json:"token_id"`
	Outcome string    `json:"outcome"`
	Price   flexFloat `json:"price"`
	Winner  bool      `json:"winner"`
}

func (t *APIToken) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*t = APIToken{TokenID: id}
		return nil
	}

	type alias APIToken
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = APIToken(a)
	return nil
}

// ToCanonical converts an APIMarket to the canonical domain.Market. It never
// fails: malformed fields degrade to defaults (outcome labels "Yes"/"No" or
// "Outcome N", price 0.5) rather than dropping the market. The CSV token-id
// field wins over the structured token array when both are present.
func (m *APIMarket) ToCanonical() domain.Market {
	cm := domain.Market{
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Description: m.Description,
		Slug:        firstNonEmpty(m.Slug, m.EventSlug),
		EventSlug:   firstNonEmpty(m.EventSlug, m.Slug),
		Closed:      m.Closed,
		EndDate:     firstNonEmpty(m.EndDateISO, m.EndDate),
	}

	cm.Active = true
	if m.Active != nil {
		cm.Active = bool(*m.Active)
	}

	cm.Tokens = m.canonicalTokens()
	return cm
}

// canonicalTokens builds the token list from whichever shape the response
// used. The result is never nil.
func (m *APIMarket) canonicalTokens() []domain.Token {
	if ids := parseStringList(m.ClobTokenIDs); len(ids) > 0 {
		outcomes := parseStringList(m.Outcomes)
		if len(outcomes) == 0 {
			outcomes = parseStringList(m.ShortOutcomes)
		}
		if len(outcomes) == 0 {
			outcomes = []string{"Yes", "No"}
		}
		priceList, priceByLabel := parsePrices(m.OutcomePrices)

		tokens := make([]domain.Token, 0, len(ids))
		for i, id := range ids {
			outcome := fmt.Sprintf("Outcome %d", i+1)
			if i < len(outcomes) && outcomes[i] != "" {
				outcome = outcomes[i]
			}

			price := 0.5
			if i < len(priceList) {
				price = priceList[i]
			} else if p, ok := priceByLabel[outcome]; ok {
				price = p
			}

			tokens = append(tokens, domain.Token{
				TokenID: id,
				Outcome: outcome,
				Price:   price,
			})
		}
		return tokens
	}

	if len(m.Tokens) > 0 {
		tokens := make([]domain.Token, 0, len(m.Tokens))
		for i, t := range m.Tokens {
			outcome := t.Outcome
			if outcome == "" {
				outcome = fmt.Sprintf("Outcome %d", i+1)
			}
			price := 0.5
			if t.Price.Set {
				price = t.Price.Value
			}
			tokens = append(tokens, domain.Token{
				TokenID: t.TokenID,
				Outcome: outcome,
				Price:   price,
				Winner:  t.Winner,
			})
		}
		return tokens
	}

	return []domain.Token{}
}

// parseStringList decodes a field that may be a JSON-encoded string array
// ("[\"a\",\"b\"]") or a plain comma-separated list ("a,b"). Malformed
// input yields an empty slice.
func parseStringList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		out := arr[:0]
		for _, v := range arr {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"[]`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrices decodes the outcomePrices field, which arrives either as a
// JSON array of numeric strings aligned with the outcome order, or as an
// object keyed by outcome label. Malformed input yields empty results and
// callers fall back to the 0.5 default.
func parsePrices(s string) ([]float64, map[string]float64) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var rawList []json.RawMessage
	if err := json.Unmarshal([]byte(s), &rawList); err == nil {
		out := make([]float64, 0, len(rawList))
		for _, raw := range rawList {
			v, ok := coerceFloat(raw)
			if !ok {
				v = 0.5
			}
			out = append(out, v)
		}
		return out, nil
	}

	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &rawMap); err == nil {
		out := make(map[string]float64, len(rawMap))
		for label, raw := range rawMap {
			if v, ok := coerceFloat(raw); ok {
				out[label] = v
			}
		}
		return nil, out
	}

	return nil, nil
}

// coerceFloat interprets a raw JSON value as a float, accepting numbers and
// numeric strings.
func coerceFloat(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// ToDomainOrderResult converts an APIOrderResult to a domain.OrderResult.
func (r *APIOrderResult) ToDomainOrderResult() domain.OrderResult {
	result := domain.OrderResult{
		Success:     r.Success,
		OrderID:     r.OrderID,
		Message:     r.ErrorMsg,
		ShouldRetry: r.ShouldRetry,
	}

	switch r.Status {
	case "live", "open":
		result.Status = domain.OrderStatusOpen
	case "matched":
		result.Status = domain.OrderStatusMatched
	case "delayed":
		result.Status = domain.OrderStatusPending
	default:
		if r.Success {
			result.Status = domain.OrderStatusPending
		} else {
			result.Status = domain.OrderStatusFailed
		}
	}

	return result
}

// APIOrder represents an order as returned by the CLOB API.
type APIOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Type         string `json:"type"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Owner        string `json:"owner"`
	CreatedAt    string `json:"created_at"`
}

// ToDomainOrder converts an APIOrder to a domain.Order.
func (a *APIOrder) ToDomainOrder() domain.Order {
	o := domain.Order{
		ID:      a.ID,
		TokenID: a.AssetID,
		Wallet:  a.Owner,
	}

	switch a.Side {
	case "BUY":
		o.Side = domain.OrderSideBuy
	case "SELL":
		o.Side = domain.OrderSideSell
	}

	switch a.Type {
	case "FOK":
		o.Type = domain.OrderTypeFOK
	default:
		o.Type = domain.OrderTypeGTC
	}

	switch a.Status {
	case "live", "open":
		o.Status = domain.OrderStatusOpen
	case "matched", "filled":
		o.Status = domain.OrderStatusMatched
	case "cancelled":
		o.Status = domain.OrderStatusCancelled
	default:
		o.Status = domain.OrderStatusPending
	}

	if price, err := strconv.ParseFloat(a.Price, 64); err == nil {
		o.PriceTicks = int64(price * 1e6)
	}
	if orig, err := strconv.ParseFloat(a.OriginalSize, 64); err == nil {
		o.SizeUnits = int64(orig * 1e6)
	}
	if matched, err := strconv.ParseFloat(a.SizeMatched, 64); err == nil {
		o.FilledSize = matched
	}

	return o
}

// APIBook is the CLOB order book response for one token.
type APIBook struct {
	AssetID string          `json:"asset_id"`
	Bids    []APIPriceLevel `json:"bids"`
	Asks    []APIPriceLevel `json:"asks"`
}

// APIPriceLevel is a single bid/ask level in the order book.
type APIPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
