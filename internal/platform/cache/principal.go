package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
)

const principalVersionKey = "authz:principal:version"

// PrincipalCache stores resolved principal snapshots in Redis. Entries are
// versioned: a role-wide permission change bumps the version instead of
// enumerating every cached user. A stale-by-one-request snapshot is
// acceptable; grant mutations still re-validate inside the write
// transaction.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache constructs a PrincipalCache.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

func (c *PrincipalCache) key(ctx context.Context, userID int64) string {
	// Before the first bump the version key is absent and reads as 0;
	// INCR then moves it to 1, orphaning the version-0 keys.
	ver, err := c.client.Get(ctx, principalVersionKey).Int64()
	if err != nil {
		ver = 0
	}
	return fmt.Sprintf("authz:principal:%d:%d", userID, ver)
}

// GetPrincipal returns the cached snapshot for userID when present.
func (c *PrincipalCache) GetPrincipal(ctx context.Context, userID int64) (*authz.Principal, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, c.key(ctx, userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var p authz.Principal
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// SetPrincipal stores a snapshot with the configured TTL.
func (c *PrincipalCache) SetPrincipal(ctx context.Context, p *authz.Principal) {
	if c == nil || c.client == nil || p == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(ctx, p.UserID), payload, c.ttl).Err()
}

// Invalidate drops the snapshot for a single user.
func (c *PrincipalCache) Invalidate(ctx context.Context, userID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(ctx, userID)).Err()
}

// InvalidateAll bumps the version so every existing snapshot misses.
func (c *PrincipalCache) InvalidateAll(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, principalVersionKey).Err()
}

var _ authz.PermissionCache = (*PrincipalCache)(nil)
