package roles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Service handles role management. Rank rules: an actor may only create,
// edit or delete roles strictly below its own rank, and may only grant
// permissions it already holds.
type Service struct {
	repo    RepositoryPort
	gateway *authz.Gateway
	audit   *shared.AuditLogger
}

// NewService builds a Service instance. audit may be nil.
func NewService(repo RepositoryPort, gateway *authz.Gateway, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, gateway: gateway, audit: audit}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, roleID int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role with its permission matrix.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Permissions, err = s.repo.Permissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// Create inserts a role below the actor's rank.
func (s *Service) Create(ctx context.Context, actor *authz.Principal, input Input) (*Role, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !s.gateway.Hierarchy().CanAssignRole(actor, Role{Hierarchy: input.Hierarchy}) {
		return nil, &authz.UnauthorizedError{Reason: "role hierarchy must be below your own authority level"}
	}
	return s.repo.Create(ctx, input)
}

// Update edits a role. System and non-editable roles are immutable
// regardless of caller authority.
func (s *Service) Update(ctx context.Context, actor *authz.Principal, id int64, input Input) (*Role, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsSystem || !existing.IsEditable {
		return nil, &authz.UnauthorizedError{Reason: fmt.Sprintf("role %q is a system role and cannot be edited", existing.Name)}
	}
	if !s.gateway.Hierarchy().CanAssignRole(actor, *existing) {
		return nil, &authz.UnauthorizedError{Reason: "role is not below your authority level"}
	}
	if !s.gateway.Hierarchy().CanAssignRole(actor, Role{Hierarchy: input.Hierarchy}) {
		return nil, &authz.UnauthorizedError{Reason: "role hierarchy must be below your own authority level"}
	}
	role, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor.UserID, shared.AuditRoleUpdate, id, map[string]any{"hierarchy": input.Hierarchy})
	// Rank of every holder may have changed.
	s.gateway.InvalidateAll(ctx)
	return role, nil
}

// Delete removes a role. System roles are non-deletable.
func (s *Service) Delete(ctx context.Context, actor *authz.Principal, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return &authz.UnauthorizedError{Reason: fmt.Sprintf("role %q is a system role and cannot be deleted", existing.Name)}
	}
	if !s.gateway.Hierarchy().CanAssignRole(actor, *existing) {
		return &authz.UnauthorizedError{Reason: "role is not below your authority level"}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditRoleDelete, id, nil)
	s.gateway.InvalidateAll(ctx)
	return nil
}

// SyncPermissions replaces a role's permission matrix. Escalation checks
// run here for early feedback and again inside the write transaction.
func (s *Service) SyncPermissions(ctx context.Context, actor *authz.Principal, roleID int64, permissionNames []string) error {
	existing, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return err
	}
	if existing.IsSystem && !actor.IsSuperAdmin() {
		return &authz.UnauthorizedError{Reason: fmt.Sprintf("role %q is a system role", existing.Name)}
	}
	current, err := s.repo.Permissions(ctx, roleID)
	if err != nil {
		return err
	}
	held := make(map[string]struct{}, len(current))
	for _, perm := range current {
		held[perm.Name] = struct{}{}
	}
	var additions []string
	for _, name := range permissionNames {
		if _, ok := held[name]; !ok {
			additions = append(additions, name)
		}
	}
	if err := s.gateway.Guard().ValidateGrant(actor, additions); err != nil {
		return err
	}
	if err := s.repo.SyncPermissions(ctx, actor.UserID, roleID, permissionNames); err != nil {
		return err
	}
	s.record(ctx, actor.UserID, shared.AuditRolePermSync, roleID, map[string]any{"permissions": permissionNames})
	s.gateway.InvalidateAll(ctx)
	return nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	if input.Hierarchy < 0 || input.Hierarchy >= authz.NoAuthorityRank {
		return fmt.Errorf("%w: hierarchy must be between 0 and %d", shared.ErrValidation, authz.NoAuthorityRank-1)
	}
	return nil
}
