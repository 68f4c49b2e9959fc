package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func principalWithRank(ranks ...int) *Principal {
	p := &Principal{}
	for _, r := range ranks {
		p.Roles = append(p.Roles, Role{Name: "r", Hierarchy: r})
	}
	return p
}

func TestRankOf(t *testing.T) {
	h := NewHierarchy()

	assert.Equal(t, NoAuthorityRank, h.RankOf(nil))
	assert.Equal(t, NoAuthorityRank, h.RankOf(&Principal{}))
	assert.Equal(t, 10, h.RankOf(principalWithRank(100, 10, 50)))
}

func TestCanManageStrictOrder(t *testing.T) {
	h := NewHierarchy()

	assert.True(t, h.CanManage(principalWithRank(10), principalWithRank(50)))
	assert.False(t, h.CanManage(principalWithRank(50), principalWithRank(10)))
	// Equal rank never manages; there is no peer privilege.
	assert.False(t, h.CanManage(principalWithRank(50), principalWithRank(50)))
	// A roleless actor manages nobody, not even another roleless user.
	assert.False(t, h.CanManage(&Principal{}, &Principal{}))
}

func TestCanManageSuperAdmin(t *testing.T) {
	h := NewHierarchy()
	super := &Principal{Roles: []Role{{Name: SuperAdminRole, Hierarchy: 0}}}

	assert.True(t, h.CanManage(super, principalWithRank(0)))
	assert.True(t, h.CanManage(super, super))
}

func TestCanAssignRole(t *testing.T) {
	h := NewHierarchy()
	actor := principalWithRank(50)

	assert.False(t, h.CanAssignRole(actor, Role{Hierarchy: 50}))
	assert.False(t, h.CanAssignRole(actor, Role{Hierarchy: 10}))
	assert.True(t, h.CanAssignRole(actor, Role{Hierarchy: 60}))

	super := &Principal{Roles: []Role{{Name: SuperAdminRole, Hierarchy: 0}}}
	assert.True(t, h.CanAssignRole(super, Role{Hierarchy: 0}))
}
