// Package authz implements the authorization core: effective permission
// resolution, role rank comparison, and the guards that validate every
// role/permission mutation before it is persisted.
package authz

import "time"

// NoAuthorityRank is the hierarchy assigned to a principal with no roles.
// Lower values mean more authority, so a roleless user can manage nobody.
const NoAuthorityRank = 1000

// SystemModule is the module bucket for permissions stored without one.
const SystemModule = "System"

// SuperAdminRole is the reserved name of the unrestricted system role.
const SuperAdminRole = "super-admin"

// Role is a named grouping of permissions carrying an authority rank.
type Role struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Hierarchy  int       `json:"hierarchy"`
	IsSystem   bool      `json:"is_system"`
	IsDefault  bool      `json:"is_default"`
	IsEditable bool      `json:"is_editable"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Permissions holds the role's permission rows once the principal
	// loader has hydrated them.
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is an atomic capability, named either "module.action" or as a
// bare action for unscoped system permissions.
type Permission struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Module string `json:"module"`
	IsCore bool   `json:"is_core"`
}

// Principal is the resolved actor a request runs as: the user plus its
// loaded role and direct-permission associations. It is threaded explicitly
// through every decision; there is no ambient current-user state.
type Principal struct {
	UserID   int64
	Username string
	Email    string
	Roles    []Role
	Direct   []Permission
}

// IsSuperAdmin reports whether the principal holds the unrestricted role.
func (p *Principal) IsSuperAdmin() bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.Name == SuperAdminRole {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
