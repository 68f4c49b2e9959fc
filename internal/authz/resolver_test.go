package authz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perm(name, module string) Permission {
	return Permission{Name: name, Module: module}
}

func TestEffectiveUnionDedup(t *testing.T) {
	resolver := NewResolver()
	p := &Principal{
		UserID: 1,
		Direct: []Permission{perm("customers.view", "Customers"), perm("reports.view", "Reports")},
		Roles: []Role{
			{Name: "officer", Permissions: []Permission{perm("customers.view", "Customers"), perm("customers.edit", "Customers")}},
			{Name: "teller", Permissions: []Permission{perm("customers.edit", "Customers"), perm("branches.view", "Branches")}},
		},
	}

	effective := resolver.Effective(p)
	names := make([]string, 0, len(effective))
	for _, e := range effective {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"customers.view", "reports.view", "customers.edit", "branches.view"}, names)
}

func TestEffectiveOrderIndependent(t *testing.T) {
	resolver := NewResolver()
	perms := []Permission{
		perm("customers.view", "Customers"),
		perm("customers.edit", "Customers"),
		perm("branches.view", "Branches"),
		perm("users.delete", "Users"),
		perm("reports.view", "Reports"),
	}

	rng := rand.New(rand.NewSource(7))
	var reference []string
	for trial := 0; trial < 20; trial++ {
		shuffledDirect := append([]Permission(nil), perms[:2]...)
		shuffledRole := append([]Permission(nil), perms[1:]...)
		rng.Shuffle(len(shuffledDirect), func(i, j int) {
			shuffledDirect[i], shuffledDirect[j] = shuffledDirect[j], shuffledDirect[i]
		})
		rng.Shuffle(len(shuffledRole), func(i, j int) {
			shuffledRole[i], shuffledRole[j] = shuffledRole[j], shuffledRole[i]
		})
		p := &Principal{
			Direct: shuffledDirect,
			Roles:  []Role{{Name: "officer", Permissions: shuffledRole}},
		}
		names := make([]string, 0)
		for _, e := range resolver.Effective(p) {
			names = append(names, e.Name)
		}
		if reference == nil {
			reference = names
			require.Len(t, reference, len(perms))
			continue
		}
		assert.ElementsMatch(t, reference, names, "trial %d produced a different set", trial)
	}
}

func TestEffectiveNilPrincipal(t *testing.T) {
	assert.Nil(t, NewResolver().Effective(nil))
}

func TestHasPermission(t *testing.T) {
	resolver := NewResolver()
	p := &Principal{
		Roles: []Role{{Name: "officer", Permissions: []Permission{perm("customers.view", "Customers")}}},
	}
	assert.True(t, resolver.HasPermission(p, "customers.view"))
	assert.False(t, resolver.HasPermission(p, "customers.edit"))
}

func TestHasModulePermission(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name      string
		principal *Principal
		module    string
		action    string
		want      bool
	}{
		{
			name: "dotted name matches module and action suffix",
			principal: &Principal{Direct: []Permission{perm("customers.view", "customers")}},
			module:    "customers",
			action:    "view",
			want:      true,
		},
		{
			name: "bare action name matches",
			principal: &Principal{Direct: []Permission{perm("view", "customers")}},
			module:    "customers",
			action:    "view",
			want:      true,
		},
		{
			name: "empty permission module falls back to System bucket",
			principal: &Principal{Direct: []Permission{perm("backup", "")}},
			module:    SystemModule,
			action:    "backup",
			want:      true,
		},
		{
			name: "module mismatch rejects even with matching action",
			principal: &Principal{Direct: []Permission{perm("customers.view", "customers")}},
			module:    "branches",
			action:    "view",
			want:      false,
		},
		{
			name: "action substring without dot boundary rejects",
			principal: &Principal{Direct: []Permission{perm("customers.preview", "customers")}},
			module:    "customers",
			action:    "view",
			want:      false,
		},
		{
			name: "super admin passes without any permission rows",
			principal: &Principal{Roles: []Role{{Name: SuperAdminRole}}},
			module:    "anything",
			action:    "delete",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolver.HasModulePermission(tt.principal, tt.module, tt.action))
		})
	}
}
