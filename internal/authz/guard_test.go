package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

func newGuard() *GrantGuard {
	return NewGrantGuard(NewResolver(), NewHierarchy())
}

func TestValidateGrantBlocksEscalation(t *testing.T) {
	guard := newGuard()
	actor := &Principal{
		UserID: 1,
		Roles:  []Role{{Name: "officer", Hierarchy: 100, Permissions: []Permission{perm("customers.view", "customers")}}},
	}

	err := guard.ValidateGrant(actor, []string{"customers.view", "finance.delete"})
	require.Error(t, err)

	var escalation *EscalationError
	require.ErrorAs(t, err, &escalation)
	assert.Equal(t, []string{"finance.delete"}, escalation.Unauthorized)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
}

func TestValidateGrantAllOrNothing(t *testing.T) {
	guard := newGuard()
	actor := &Principal{
		UserID: 1,
		Direct: []Permission{perm("customers.view", "customers"), perm("customers.edit", "customers")},
	}

	// One bad name poisons the whole request, held names included.
	err := guard.ValidateGrant(actor, []string{"customers.view", "customers.edit", "users.delete", "roles.create"})
	var escalation *EscalationError
	require.ErrorAs(t, err, &escalation)
	assert.ElementsMatch(t, []string{"users.delete", "roles.create"}, escalation.Unauthorized)

	assert.NoError(t, guard.ValidateGrant(actor, []string{"customers.view", "customers.edit"}))
}

func TestValidateGrantSuperAdmin(t *testing.T) {
	guard := newGuard()
	super := &Principal{UserID: 1, Roles: []Role{{Name: SuperAdminRole}}}

	assert.NoError(t, guard.ValidateGrant(super, []string{"anything.at.all"}))
}

func TestValidateRoleAssignmentRankProtection(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(50)
	target := principalWithRank(200)

	// Equal rank is refused, strictly weaker is accepted.
	err := guard.ValidateRoleAssignment(actor, Role{Name: "supervisor", Hierarchy: 50}, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	assert.NoError(t, guard.ValidateRoleAssignment(actor, Role{Name: "teller", Hierarchy: 60}, target))
}

func TestValidateRoleAssignmentTargetOutranksActor(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(50)
	target := principalWithRank(10)

	err := guard.ValidateRoleAssignment(actor, Role{Name: "teller", Hierarchy: 60}, target)
	require.Error(t, err)

	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "you cannot manage this user", unauthorized.Reason)
}

func TestValidateRoleAssignmentSystemRoleReserved(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(1)

	err := guard.ValidateRoleAssignment(actor, Role{Name: SuperAdminRole, Hierarchy: 0, IsSystem: true}, nil)
	require.Error(t, err)

	super := &Principal{Roles: []Role{{Name: SuperAdminRole, Hierarchy: 0}}}
	assert.NoError(t, guard.ValidateRoleAssignment(super, Role{Name: "auditor", Hierarchy: 5, IsSystem: true}, nil))
}

func TestValidateUserMutationSelf(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(10)
	actor.UserID = 42
	target := principalWithRank(500)
	target.UserID = 42

	err := guard.ValidateUserMutation(actor, target, MutationDelete)
	require.Error(t, err)

	var unauthorized *UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Contains(t, unauthorized.Reason, "own account")
}

func TestValidateUserMutationSuperAdminTarget(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(10)
	actor.UserID = 1
	superTarget := &Principal{UserID: 2, Roles: []Role{{Name: SuperAdminRole, Hierarchy: 0}}}

	// The super administrator account is protected from everyone,
	// including another super administrator.
	require.Error(t, guard.ValidateUserMutation(actor, superTarget, MutationDeactivate))

	superActor := &Principal{UserID: 3, Roles: []Role{{Name: SuperAdminRole, Hierarchy: 0}}}
	require.Error(t, guard.ValidateUserMutation(superActor, superTarget, MutationDeactivate))
}

func TestValidateUserMutationRank(t *testing.T) {
	guard := newGuard()
	actor := principalWithRank(100)
	actor.UserID = 1
	peer := principalWithRank(100)
	peer.UserID = 2
	weaker := principalWithRank(300)
	weaker.UserID = 3

	require.Error(t, guard.ValidateUserMutation(actor, peer, MutationUnlock))
	assert.NoError(t, guard.ValidateUserMutation(actor, weaker, MutationUnlock))
}
