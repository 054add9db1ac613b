package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// OrderStore persists the order audit trail.
type OrderStore interface {
	Create(ctx context.Context, order Order) error
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListOpen(ctx context.Context, wallet string) ([]Order, error)
	ListByWallet(ctx context.Context, wallet string, opts ListOpts) ([]Order, error)
}

// SessionStore persists user sessions and the owner-to-Safe mapping.
type SessionStore interface {
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, error)
	SafeForOwner(ctx context.Context, owner string) (string, error)
	PutSafeForOwner(ctx context.Context, owner, safe string) error
}
