package domain

import (
	"math/big"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled (limit)
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill (market)
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusMatched   OrderStatus = "matched"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFailed    OrderStatus = "failed"
)

// Order represents a signed trading order.
type Order struct {
	ID          string
	TokenID     string
	Wallet      string // funder address (Safe when signature type 2)
	Side        OrderSide
	Type        OrderType
	PriceTicks  int64    // fixed-point: price * 1e6
	SizeUnits   int64    // fixed-point: size  * 1e6
	MakerAmount *big.Int // integer amount the maker gives, 1e6 scale
	TakerAmount *big.Int // integer amount the maker receives, 1e6 scale
	FilledSize  float64
	Status      OrderStatus
	Signature   string // EIP-712 hex
	CreatedAt   time.Time
	FilledAt    *time.Time
	CancelledAt *time.Time
}

// Price returns the float64 display price from fixed-point ticks.
func (o Order) Price() float64 {
	return float64(o.PriceTicks) / 1e6
}

// Size returns the float64 display size from fixed-point units.
func (o Order) Size() float64 {
	return float64(o.SizeUnits) / 1e6
}

// OrderRequest is the client-facing order intent before signing.
type OrderRequest struct {
	TokenID string    `json:"token_id"`
	Side    OrderSide `json:"side"`
	Type    OrderType `json:"order_type"`
	Price   float64   `json:"price"`
	Size    float64   `json:"size"`
}

// OrderResult wraps the exchange response after order submission.
type OrderResult struct {
	Success     bool        `json:"success"`
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	Message     string      `json:"message,omitempty"`
	ShouldRetry bool        `json:"should_retry,omitempty"`
}
