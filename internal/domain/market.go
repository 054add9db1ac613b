// Package domain holds the core types and interfaces shared across the
// framecast backend. It has no dependencies on other internal packages.
package domain

import "time"

// Token is one tradable outcome token inside a market.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// Market is the canonical market record served to clients. Every upstream
// shape (Gamma, CLOB) is converted into this form at the platform boundary.
type Market struct {
	ConditionID string  `json:"condition_id"`
	Question    string  `json:"question"`
	Description string  `json:"description"`
	Slug        string  `json:"market_slug"`
	EventSlug   string  `json:"event_slug"`
	Active      bool    `json:"active"`
	Closed      bool    `json:"closed"`
	EndDate     string  `json:"end_date_iso"`
	Tokens      []Token `json:"tokens"`
}

// IsActive reports whether the market is currently tradable.
func (m Market) IsActive() bool {
	return m.Active && !m.Closed
}

// ResolvedBatch is the outcome of resolving a set of market identifiers:
// the canonical records that resolved plus the identifiers that did not.
type ResolvedBatch struct {
	Markets     []Market  `json:"markets"`
	Misses      []string  `json:"misses,omitempty"`
	WindowStart int64     `json:"window_start"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// BookSummary aggregates the CLOB read endpoints for a single token.
type BookSummary struct {
	TokenID   string  `json:"token_id"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Midpoint  float64 `json:"midpoint"`
	LastTrade float64 `json:"last_trade"`
	BidLevels int     `json:"bid_levels"`
	AskLevels int     `json:"ask_levels"`
}
