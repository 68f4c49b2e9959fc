package authz

// Hierarchy answers relative-authority questions between principals and
// roles. Authority is an integer rank on each role where a lower value
// means more power.
type Hierarchy struct{}

// NewHierarchy constructs a Hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{}
}

// RankOf returns the strongest (minimum) hierarchy across the principal's
// roles, or NoAuthorityRank when the principal has none.
func (Hierarchy) RankOf(p *Principal) int {
	if p == nil || len(p.Roles) == 0 {
		return NoAuthorityRank
	}
	rank := NoAuthorityRank
	for _, r := range p.Roles {
		if r.Hierarchy < rank {
			rank = r.Hierarchy
		}
	}
	return rank
}

// CanManage reports whether actor out-ranks target. Super administrators
// manage everyone; otherwise the actor's rank must be strictly lower.
// Equal rank never manages: there is no peer-management privilege.
func (h Hierarchy) CanManage(actor, target *Principal) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	return h.RankOf(actor) < h.RankOf(target)
}

// CanAssignRole reports whether actor may grant role to someone. Super
// administrators may assign anything; otherwise the role must be strictly
// weaker than the actor's own rank, never equal or stronger.
func (h Hierarchy) CanAssignRole(actor *Principal, role Role) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	return role.Hierarchy > h.RankOf(actor)
}
