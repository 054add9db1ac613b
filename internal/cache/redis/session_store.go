package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/framecast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	safeOwnerPrefix  = "safe:owner:"
)

// SessionStore implements domain.SessionStore in Redis. Sessions expire via
// TTL; the owner-to-Safe mapping is persistent so a returning user gets the
// same Safe instead of a fresh deployment.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore creates a SessionStore backed by the given Client.
func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{rdb: c.Underlying()}
}

// Put stores a session with the given TTL.
func (ss *SessionStore) Put(ctx context.Context, s domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal session %s: %w", s.ID, err)
	}
	if err := ss.rdb.Set(ctx, sessionKeyPrefix+s.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put session %s: %w", s.ID, err)
	}
	return nil
}

// Get fetches a session by ID. It returns domain.ErrNotFound for missing or
// expired sessions.
func (ss *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	data, err := ss.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, fmt.Errorf("redis: session %s: %w", id, domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("redis: get session %s: %w", id, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, fmt.Errorf("redis: unmarshal session %s: %w", id, err)
	}
	return s, nil
}

// SafeForOwner returns the Safe address previously recorded for an owner
// address, or domain.ErrNotFound when none exists.
func (ss *SessionStore) SafeForOwner(ctx context.Context, owner string) (string, error) {
	safe, err := ss.rdb.Get(ctx, safeOwnerKey(owner)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("redis: safe for %s: %w", owner, domain.ErrNotFound)
		}
		return "", fmt.Errorf("redis: safe for %s: %w", owner, err)
	}
	return safe, nil
}

// PutSafeForOwner records the Safe address deployed for an owner. The
// mapping has no TTL.
func (ss *SessionStore) PutSafeForOwner(ctx context.Context, owner, safe string) error {
	if err := ss.rdb.Set(ctx, safeOwnerKey(owner), safe, 0).Err(); err != nil {
		return fmt.Errorf("redis: put safe for %s: %w", owner, err)
	}
	return nil
}

// safeOwnerKey lowercases the owner address so lookups are checksum-agnostic.
func safeOwnerKey(owner string) string {
	return safeOwnerPrefix + strings.ToLower(owner)
}

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)
