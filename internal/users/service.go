package users

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Service handles user management. Every mutation that touches authority or
// security state goes through the gateway's guards before the repository
// commits it.
type Service struct {
	repo     RepositoryPort
	authRepo auth.Repository
	gateway  *authz.Gateway
	audit    *shared.AuditLogger
}

// NewService builds a Service instance. audit may be nil.
func NewService(repo RepositoryPort, authRepo auth.Repository, gateway *authz.Gateway, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, authRepo: authRepo, gateway: gateway, audit: audit}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

// List returns users matching the filters.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create provisions a user account. Initial role assignments are validated
// against the actor's rank; the repository re-checks inside the insert
// transaction.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, input CreateInput) (*User, error) {
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, actor.UserID, input, string(hash))
}

// Update edits a user's identity fields, gated on rank.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, input UpdateInput) (*User, error) {
	if actor.UserID != id {
		target, err := s.gateway.Principal(ctx, id)
		if err != nil {
			return nil, err
		}
		if !s.gateway.Hierarchy().CanManage(actor, target) {
			return nil, &authz.UnauthorizedError{Reason: "you cannot manage this user"}
		}
	}
	user, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.gateway.InvalidatePrincipal(ctx, id)
	return user, nil
}

// Delete tombstones a user account after the guard accepts the mutation.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	target, err := s.gateway.Principal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateway.Guard().ValidateUserMutation(actor, target, authz.MutationDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditUserDelete, id, nil)
	s.gateway.InvalidatePrincipal(ctx, id)
	return nil
}

// Deactivate blocks a user account administratively.
func (s *Service) Deactivate(ctx context.Context, actor *authz.Principal, id int64) error {
	target, err := s.gateway.Principal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateway.Guard().ValidateUserMutation(actor, target, authz.MutationDeactivate); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditUserDeactivate, id, nil)
	s.gateway.InvalidatePrincipal(ctx, id)
	return nil
}

// Unlock clears a lockout and reactivates the account.
func (s *Service) Unlock(ctx context.Context, actor *authz.Principal, id int64) error {
	target, err := s.gateway.Principal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gateway.Guard().ValidateUserMutation(actor, target, authz.MutationUnlock); err != nil {
		return err
	}
	if err := s.authRepo.Unlock(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditUserUnlock, id, nil)
	s.gateway.InvalidatePrincipal(ctx, id)
	return nil
}

// AssignRole attaches a role to a user through the assignment guard.
func (s *Service) AssignRole(ctx context.Context, actor *authz.Principal, userID, roleID int64) error {
	if err := s.repo.AssignRole(ctx, actor.UserID, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditRoleAssign, userID, map[string]any{"role_id": roleID})
	s.gateway.InvalidatePrincipal(ctx, userID)
	return nil
}

// RemoveRole detaches a role. Revocation is always permitted, even of
// authority the actor does not personally hold.
func (s *Service) RemoveRole(ctx context.Context, actor *authz.Principal, userID, roleID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditRoleRemove, userID, map[string]any{"role_id": roleID})
	s.gateway.InvalidatePrincipal(ctx, userID)
	return nil
}

// SyncDirectPermissions replaces a user's direct grants. Only additions
// relative to the target's current set are validated (removals always
// pass); this pre-check gives the caller the offending names early, and the
// repository re-validates under the writing transaction.
func (s *Service) SyncDirectPermissions(ctx context.Context, actor *authz.Principal, userID int64, permissionNames []string) error {
	target, err := s.gateway.Principal(ctx, userID)
	if err != nil {
		return err
	}
	current := make(map[string]struct{}, len(target.Direct))
	for _, perm := range target.Direct {
		current[perm.Name] = struct{}{}
	}
	var additions []string
	for _, name := range permissionNames {
		if _, ok := current[name]; !ok {
			additions = append(additions, name)
		}
	}
	if err := s.gateway.Guard().ValidateGrant(actor, additions); err != nil {
		return err
	}
	if err := s.repo.SyncDirectPermissions(ctx, actor.UserID, userID, permissionNames); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditPermSync, userID, map[string]any{"permissions": permissionNames})
	s.gateway.InvalidatePrincipal(ctx, userID)
	return nil
}
