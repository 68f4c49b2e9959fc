package authz

import "strings"

// Resolver computes effective permission sets. All methods are pure
// functions over the principal's loaded associations; unresolvable
// principals are the caller's problem, not the resolver's.
type Resolver struct{}

// NewResolver constructs a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Effective returns the union of the principal's direct permissions and the
// permissions of every assigned role, deduplicated by permission name. The
// result is independent of association load order.
func (Resolver) Effective(p *Principal) []Permission {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(p.Direct))
	out := make([]Permission, 0, len(p.Direct))
	add := func(perm Permission) {
		if _, ok := seen[perm.Name]; ok {
			return
		}
		seen[perm.Name] = struct{}{}
		out = append(out, perm)
	}
	for _, perm := range p.Direct {
		add(perm)
	}
	for _, role := range p.Roles {
		for _, perm := range role.Permissions {
			add(perm)
		}
	}
	return out
}

// HasPermission reports whether name is in the principal's effective set.
func (r Resolver) HasPermission(p *Principal, name string) bool {
	for _, perm := range r.Effective(p) {
		if perm.Name == name {
			return true
		}
	}
	return false
}

// HasModulePermission reports whether the principal may perform action in
// module. Super administrators short-circuit to true. Permissions are stored
// both as bare actions and as dotted "module.action" names, so both forms
// are accepted: the permission matches when its module matches (an empty
// module counts as SystemModule) and its name either equals the action or
// ends with "." + action.
func (r Resolver) HasModulePermission(p *Principal, module, action string) bool {
	if p.IsSuperAdmin() {
		return true
	}
	for _, perm := range r.Effective(p) {
		permModule := perm.Module
		if permModule == "" {
			permModule = SystemModule
		}
		if permModule != module {
			continue
		}
		if perm.Name == action || strings.HasSuffix(perm.Name, "."+action) {
			return true
		}
	}
	return false
}
