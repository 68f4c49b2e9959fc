package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type mockRepo struct {
	roles       map[int64]*Role
	permissions map[int64][]authz.Permission
	nextID      int64
	synced      map[int64][]string
	deleted     []int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		roles:       make(map[int64]*Role),
		permissions: make(map[int64][]authz.Permission),
		synced:      make(map[int64][]string),
		nextID:      1,
	}
}

func (m *mockRepo) add(role Role) *Role {
	role.ID = m.nextID
	m.nextID++
	m.roles[role.ID] = &role
	return m.roles[role.ID]
}

func (m *mockRepo) List(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRepo) Create(ctx context.Context, input Input) (*Role, error) {
	return m.add(Role{Name: input.Name, Hierarchy: input.Hierarchy, IsDefault: input.IsDefault, IsEditable: true}), nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, input Input) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	r.Name = input.Name
	r.Hierarchy = input.Hierarchy
	copied := *r
	return &copied, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.roles, id)
	return nil
}

func (m *mockRepo) Permissions(ctx context.Context, roleID int64) ([]authz.Permission, error) {
	return m.permissions[roleID], nil
}

func (m *mockRepo) SyncPermissions(ctx context.Context, actorID, roleID int64, permissionNames []string) error {
	m.synced[roleID] = permissionNames
	return nil
}

type noStore struct{}

func (noStore) LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	return nil, shared.ErrNotFound
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, authz.NewGateway(noStore{}, nil), nil)
}

func actorWithRank(rank int, perms ...string) *authz.Principal {
	p := &authz.Principal{UserID: 1, Roles: []authz.Role{{Name: "admin", Hierarchy: rank}}}
	for _, name := range perms {
		p.Direct = append(p.Direct, authz.Permission{Name: name})
	}
	return p
}

func TestCreateValidatesInput(t *testing.T) {
	service := newTestService(newMockRepo())
	actor := actorWithRank(10)

	_, err := service.Create(context.Background(), actor, Input{Name: "", Hierarchy: 50})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = service.Create(context.Background(), actor, Input{Name: "x", Hierarchy: authz.NoAuthorityRank})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = service.Create(context.Background(), actor, Input{Name: "x", Hierarchy: -1})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateRankGate(t *testing.T) {
	service := newTestService(newMockRepo())
	actor := actorWithRank(50)

	// At or above the actor's own rank is refused.
	_, err := service.Create(context.Background(), actor, Input{Name: "peer", Hierarchy: 50})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	role, err := service.Create(context.Background(), actor, Input{Name: "teller", Hierarchy: 60})
	require.NoError(t, err)
	assert.Equal(t, 60, role.Hierarchy)
}

func TestUpdateSystemRoleImmutable(t *testing.T) {
	repo := newMockRepo()
	system := repo.add(Role{Name: authz.SuperAdminRole, Hierarchy: 0, IsSystem: true})
	service := newTestService(repo)

	_, err := service.Update(context.Background(), actorWithRank(0), system.ID, Input{Name: "renamed", Hierarchy: 5})
	require.Error(t, err)

	var unauthorized *authz.UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Contains(t, unauthorized.Reason, "system role")
}

func TestDeleteSystemRoleRejected(t *testing.T) {
	repo := newMockRepo()
	system := repo.add(Role{Name: authz.SuperAdminRole, Hierarchy: 0, IsSystem: true})
	service := newTestService(repo)

	err := service.Delete(context.Background(), actorWithRank(0), system.ID)
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}

func TestDeleteWeakerRole(t *testing.T) {
	repo := newMockRepo()
	role := repo.add(Role{Name: "teller", Hierarchy: 200, IsEditable: true})
	service := newTestService(repo)

	require.NoError(t, service.Delete(context.Background(), actorWithRank(10), role.ID))
	assert.Equal(t, []int64{role.ID}, repo.deleted)
}

func TestSyncPermissionsEscalationBlocked(t *testing.T) {
	repo := newMockRepo()
	role := repo.add(Role{Name: "officer", Hierarchy: 100, IsEditable: true})
	repo.permissions[role.ID] = []authz.Permission{{Name: "customers.view"}}
	service := newTestService(repo)

	actor := actorWithRank(10, "customers.view")
	err := service.SyncPermissions(context.Background(), actor, role.ID, []string{"customers.view", "finance.delete"})

	var escalation *authz.EscalationError
	require.ErrorAs(t, err, &escalation)
	assert.Equal(t, []string{"finance.delete"}, escalation.Unauthorized)
	// The matrix is untouched on rejection.
	assert.Empty(t, repo.synced)
}

func TestSyncPermissionsRemovalAllowed(t *testing.T) {
	repo := newMockRepo()
	role := repo.add(Role{Name: "officer", Hierarchy: 100, IsEditable: true})
	repo.permissions[role.ID] = []authz.Permission{{Name: "finance.delete"}, {Name: "customers.view"}}
	service := newTestService(repo)

	// The actor does not hold finance.delete but is only removing it.
	actor := actorWithRank(10, "customers.view")
	require.NoError(t, service.SyncPermissions(context.Background(), actor, role.ID, []string{"customers.view"}))
	assert.Equal(t, []string{"customers.view"}, repo.synced[role.ID])
}

func TestSyncPermissionsSuperAdmin(t *testing.T) {
	repo := newMockRepo()
	role := repo.add(Role{Name: "officer", Hierarchy: 100, IsEditable: true})
	service := newTestService(repo)

	super := &authz.Principal{UserID: 1, Roles: []authz.Role{{Name: authz.SuperAdminRole}}}
	require.NoError(t, service.SyncPermissions(context.Background(), super, role.ID, []string{"anything.new"}))
	assert.Equal(t, []string{"anything.new"}, repo.synced[role.ID])
}
