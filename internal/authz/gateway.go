package authz

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// PrincipalStore loads a user with its role and direct-permission
// associations hydrated. Implemented by the users repository.
type PrincipalStore interface {
	LoadPrincipal(ctx context.Context, userID int64) (*Principal, error)
}

// PermissionCache caches effective permission snapshots between requests.
// A nil cache is valid and means every load hits the store.
type PermissionCache interface {
	GetPrincipal(ctx context.Context, userID int64) (*Principal, bool)
	SetPrincipal(ctx context.Context, p *Principal)
	Invalidate(ctx context.Context, userID int64)
	InvalidateAll(ctx context.Context)
}

// Gateway is the facade the rest of the system calls for authorization
// decisions. It owns principal loading (store + cache + singleflight) and
// exposes the resolver, hierarchy and grant guard behind point queries.
type Gateway struct {
	store     PrincipalStore
	cache     PermissionCache
	resolver  *Resolver
	hierarchy *Hierarchy
	guard     *GrantGuard
	group     singleflight.Group
}

// NewGateway constructs a Gateway. cache may be nil.
func NewGateway(store PrincipalStore, cache PermissionCache) *Gateway {
	resolver := NewResolver()
	hierarchy := NewHierarchy()
	return &Gateway{
		store:     store,
		cache:     cache,
		resolver:  resolver,
		hierarchy: hierarchy,
		guard:     NewGrantGuard(resolver, hierarchy),
	}
}

// Principal loads the principal for userID, collapsing concurrent loads for
// the same user into a single store round trip.
func (g *Gateway) Principal(ctx context.Context, userID int64) (*Principal, error) {
	if g.cache != nil {
		if p, ok := g.cache.GetPrincipal(ctx, userID); ok {
			return p, nil
		}
	}
	v, err, _ := g.group.Do(fmt.Sprintf("principal:%d", userID), func() (any, error) {
		p, err := g.store.LoadPrincipal(ctx, userID)
		if err != nil {
			return nil, err
		}
		if g.cache != nil {
			g.cache.SetPrincipal(ctx, p)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Principal), nil
}

// Allowed reports whether the principal may perform action within module.
func (g *Gateway) Allowed(p *Principal, module, action string) bool {
	return g.resolver.HasModulePermission(p, module, action)
}

// HasPermission reports an exact-name permission query.
func (g *Gateway) HasPermission(p *Principal, name string) bool {
	return g.resolver.HasPermission(p, name)
}

// Effective exposes the principal's resolved permission set.
func (g *Gateway) Effective(p *Principal) []Permission {
	return g.resolver.Effective(p)
}

// Guard exposes the grant guard for mutation validation.
func (g *Gateway) Guard() *GrantGuard {
	return g.guard
}

// Hierarchy exposes rank comparisons.
func (g *Gateway) Hierarchy() *Hierarchy {
	return g.hierarchy
}

// InvalidatePrincipal drops the cached snapshot for userID after a grant or
// role mutation touching that user.
func (g *Gateway) InvalidatePrincipal(ctx context.Context, userID int64) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, userID)
	}
}

// InvalidateAll drops every cached snapshot, used after role-wide
// permission matrix changes.
func (g *Gateway) InvalidateAll(ctx context.Context) {
	if g.cache != nil {
		g.cache.InvalidateAll(ctx)
	}
}
