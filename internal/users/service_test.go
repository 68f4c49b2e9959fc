package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type mockRepo struct {
	users   map[int64]*User
	deleted []int64
	blocked []int64
	synced  map[int64][]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[int64]*User), synced: make(map[int64][]string)}
}

func (m *mockRepo) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) Create(ctx context.Context, actorID int64, input CreateInput, passwordHash string) (*User, error) {
	id := int64(len(m.users) + 1)
	u := &User{ID: id, Username: input.Username, Email: input.Email, IsActive: true}
	m.users[id] = u
	return u, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, input UpdateInput) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	u.Email = input.Email
	u.FullName = input.FullName
	return u, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	delete(m.users, id)
	return nil
}

func (m *mockRepo) Deactivate(ctx context.Context, id int64) error {
	m.blocked = append(m.blocked, id)
	return nil
}

func (m *mockRepo) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	return nil
}

func (m *mockRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return nil
}

func (m *mockRepo) SyncDirectPermissions(ctx context.Context, actorID, userID int64, permissionNames []string) error {
	m.synced[userID] = permissionNames
	return nil
}

type mockAuthRepo struct {
	unlocked []int64
}

func (m *mockAuthRepo) FindByLogin(ctx context.Context, login string) (*auth.Account, error) {
	return nil, shared.ErrNotFound
}

func (m *mockAuthRepo) RecordFailure(ctx context.Context, userID int64) (auth.FailureOutcome, error) {
	return auth.FailureOutcome{}, nil
}

func (m *mockAuthRepo) RecordSuccess(ctx context.Context, userID int64) (bool, error) {
	return true, nil
}

func (m *mockAuthRepo) Unlock(ctx context.Context, userID int64) error {
	m.unlocked = append(m.unlocked, userID)
	return nil
}

func (m *mockAuthRepo) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// principalStore serves principals for guard checks from a fixed map.
type principalStore struct {
	principals map[int64]*authz.Principal
}

func (s *principalStore) LoadPrincipal(ctx context.Context, userID int64) (*authz.Principal, error) {
	p, ok := s.principals[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func rankedPrincipal(id int64, rank int) *authz.Principal {
	return &authz.Principal{UserID: id, Roles: []authz.Role{{Name: "r", Hierarchy: rank}}}
}

func newTestService(repo *mockRepo, authRepo *mockAuthRepo, principals map[int64]*authz.Principal) *Service {
	gateway := authz.NewGateway(&principalStore{principals: principals}, nil)
	return NewService(repo, authRepo, gateway, nil)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	service := newTestService(newMockRepo(), &mockAuthRepo{}, nil)

	_, err := service.Create(context.Background(), rankedPrincipal(1, 10), CreateInput{
		Username: "new", Email: "new@meridian.test", Password: "short",
	})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMockRepo()
	service := newTestService(repo, &mockAuthRepo{}, nil)

	user, err := service.Create(context.Background(), rankedPrincipal(1, 10), CreateInput{
		Username: "new", Email: "new@meridian.test", Password: "long-enough-pass",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestDeleteSelfRejected(t *testing.T) {
	repo := newMockRepo()
	principals := map[int64]*authz.Principal{1: rankedPrincipal(1, 10)}
	service := newTestService(repo, &mockAuthRepo{}, principals)

	err := service.Delete(context.Background(), rankedPrincipal(1, 10), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Empty(t, repo.deleted)
}

func TestDeleteSuperAdminRejected(t *testing.T) {
	repo := newMockRepo()
	principals := map[int64]*authz.Principal{
		2: {UserID: 2, Roles: []authz.Role{{Name: authz.SuperAdminRole, Hierarchy: 0}}},
	}
	service := newTestService(repo, &mockAuthRepo{}, principals)

	err := service.Delete(context.Background(), rankedPrincipal(1, 10), 2)
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}

func TestDeleteWeakerTarget(t *testing.T) {
	repo := newMockRepo()
	repo.users[2] = &User{ID: 2}
	principals := map[int64]*authz.Principal{2: rankedPrincipal(2, 500)}
	service := newTestService(repo, &mockAuthRepo{}, principals)

	require.NoError(t, service.Delete(context.Background(), rankedPrincipal(1, 10), 2))
	assert.Equal(t, []int64{2}, repo.deleted)
}

func TestUnlockGoesThroughGuard(t *testing.T) {
	authRepo := &mockAuthRepo{}
	principals := map[int64]*authz.Principal{
		2: rankedPrincipal(2, 500),
		3: rankedPrincipal(3, 5),
	}
	service := newTestService(newMockRepo(), authRepo, principals)
	actor := rankedPrincipal(1, 10)

	require.NoError(t, service.Unlock(context.Background(), actor, 2))
	assert.Equal(t, []int64{2}, authRepo.unlocked)

	// Target out-ranks the actor.
	err := service.Unlock(context.Background(), actor, 3)
	require.Error(t, err)
	assert.Equal(t, []int64{2}, authRepo.unlocked)
}

func TestSyncDirectPermissionsEscalationBlocked(t *testing.T) {
	repo := newMockRepo()
	principals := map[int64]*authz.Principal{2: rankedPrincipal(2, 500)}
	service := newTestService(repo, &mockAuthRepo{}, principals)

	actor := rankedPrincipal(1, 100)
	actor.Direct = []authz.Permission{{Name: "customers.view", Module: "customers"}}

	err := service.SyncDirectPermissions(context.Background(), actor, 2, []string{"customers.view", "finance.delete"})
	var escalation *authz.EscalationError
	require.ErrorAs(t, err, &escalation)
	assert.Equal(t, []string{"finance.delete"}, escalation.Unauthorized)
	assert.Empty(t, repo.synced)
}

func TestSyncDirectPermissionsRemovalAlwaysAllowed(t *testing.T) {
	repo := newMockRepo()
	target := rankedPrincipal(2, 500)
	// The target already holds a permission the actor does not.
	target.Direct = []authz.Permission{{Name: "finance.delete", Module: "finance"}, {Name: "customers.view", Module: "customers"}}
	principals := map[int64]*authz.Principal{2: target}
	service := newTestService(repo, &mockAuthRepo{}, principals)

	actor := rankedPrincipal(1, 100)
	actor.Direct = []authz.Permission{{Name: "customers.view", Module: "customers"}}

	// Dropping finance.delete is a removal, not a grant.
	require.NoError(t, service.SyncDirectPermissions(context.Background(), actor, 2, []string{"customers.view"}))
	assert.Equal(t, []string{"customers.view"}, repo.synced[2])
}
