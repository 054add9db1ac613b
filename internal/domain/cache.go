package domain

import (
	"context"
	"time"
)

// BatchCache stores resolved market batches keyed by identifier set. Entries
// carry a TTL aligned to the rotation window so stale instances age out on
// their own.
type BatchCache interface {
	Set(ctx context.Context, key string, batch ResolvedBatch, ttl time.Duration) error
	Get(ctx context.Context, key string) (ResolvedBatch, error)
	Invalidate(ctx context.Context, key string) error
}

// SignalBus provides pub/sub fan-out between services and the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
