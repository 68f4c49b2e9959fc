package authz

import "fmt"

// UserMutationKind enumerates the guarded user mutations.
type UserMutationKind string

const (
	// MutationDelete removes a user account.
	MutationDelete UserMutationKind = "delete"
	// MutationDeactivate disables a user account.
	MutationDeactivate UserMutationKind = "deactivate"
	// MutationUnlock clears a lockout and reactivates the account.
	MutationUnlock UserMutationKind = "unlock"
)

// GrantGuard validates role and permission mutations before they commit.
// It only judges; the repository layer performs the write after a nil
// result, re-running the judgment inside the same transaction.
type GrantGuard struct {
	resolver  *Resolver
	hierarchy *Hierarchy
}

// NewGrantGuard constructs a GrantGuard.
func NewGrantGuard(resolver *Resolver, hierarchy *Hierarchy) *GrantGuard {
	return &GrantGuard{resolver: resolver, hierarchy: hierarchy}
}

// ValidateGrant checks that every requested permission is already in the
// actor's effective set. A single missing permission rejects the entire
// operation; the offending subset is returned for display. Revoking is not
// validated here: removals are always allowed so an under-privileged
// administrator can correct someone else's over-grant.
func (g *GrantGuard) ValidateGrant(actor *Principal, requested []string) error {
	if actor.IsSuperAdmin() {
		return nil
	}
	held := make(map[string]struct{})
	for _, perm := range g.resolver.Effective(actor) {
		held[perm.Name] = struct{}{}
	}
	var missing []string
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := held[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &EscalationError{Unauthorized: missing}
	}
	return nil
}

// ValidateRoleAssignment checks that actor may assign role to target.
// System roles are reserved to super administrators, the role must be
// strictly weaker than the actor, and the actor must out-rank the target.
func (g *GrantGuard) ValidateRoleAssignment(actor *Principal, role Role, target *Principal) error {
	if role.IsSystem && !actor.IsSuperAdmin() {
		return &UnauthorizedError{Reason: fmt.Sprintf("role %q is a system role and cannot be assigned", role.Name)}
	}
	if !g.hierarchy.CanAssignRole(actor, role) {
		return &UnauthorizedError{Reason: fmt.Sprintf("role %q is not below your authority level", role.Name)}
	}
	if target != nil && !g.hierarchy.CanManage(actor, target) {
		return &UnauthorizedError{Reason: "you cannot manage this user"}
	}
	return nil
}

// ValidateUserMutation checks that actor may delete, deactivate or unlock
// target. Self-mutation and mutating a super administrator are always
// rejected, then rank protection applies.
func (g *GrantGuard) ValidateUserMutation(actor, target *Principal, kind UserMutationKind) error {
	if target != nil && actor != nil && actor.UserID == target.UserID {
		return &UnauthorizedError{Reason: fmt.Sprintf("you cannot %s your own account", kind)}
	}
	if target.IsSuperAdmin() {
		return &UnauthorizedError{Reason: "the super administrator account is protected"}
	}
	if !g.hierarchy.CanManage(actor, target) {
		return &UnauthorizedError{Reason: "you cannot manage this user"}
	}
	return nil
}
