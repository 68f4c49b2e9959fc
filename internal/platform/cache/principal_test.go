package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
)

func newTestCache(t *testing.T) *PrincipalCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPrincipalCache(client, time.Hour)
}

func TestPrincipalCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetPrincipal(ctx, 1)
	assert.False(t, ok)

	c.SetPrincipal(ctx, &authz.Principal{
		UserID:   1,
		Username: "amina",
		Roles:    []authz.Role{{Name: "officer", Hierarchy: 100}},
		Direct:   []authz.Permission{{Name: "customers.view", Module: "customers"}},
	})

	p, ok := c.GetPrincipal(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "amina", p.Username)
	require.Len(t, p.Roles, 1)
	assert.Equal(t, 100, p.Roles[0].Hierarchy)
	require.Len(t, p.Direct, 1)
	assert.Equal(t, "customers.view", p.Direct[0].Name)
}

func TestPrincipalCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.SetPrincipal(ctx, &authz.Principal{UserID: 1})
	c.SetPrincipal(ctx, &authz.Principal{UserID: 2})

	c.Invalidate(ctx, 1)

	_, ok := c.GetPrincipal(ctx, 1)
	assert.False(t, ok)
	_, ok = c.GetPrincipal(ctx, 2)
	assert.True(t, ok)
}

func TestPrincipalCacheInvalidateAll(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.SetPrincipal(ctx, &authz.Principal{UserID: 1})
	c.SetPrincipal(ctx, &authz.Principal{UserID: 2})

	// A version bump orphans every existing key.
	c.InvalidateAll(ctx)

	_, ok := c.GetPrincipal(ctx, 1)
	assert.False(t, ok)
	_, ok = c.GetPrincipal(ctx, 2)
	assert.False(t, ok)

	// The cache keeps working under the new version.
	c.SetPrincipal(ctx, &authz.Principal{UserID: 3})
	_, ok = c.GetPrincipal(ctx, 3)
	assert.True(t, ok)
}
