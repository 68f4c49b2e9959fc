package staff

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Service struct {
	repo    *Repository
	gateway *authz.Gateway
}

func NewService(repo *Repository, gateway *authz.Gateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

func (s *Service) List(ctx context.Context, branchID int64, filters shared.ListFilters) ([]Member, int, error) {
	return s.repo.List(ctx, branchID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	return s.repo.Get(ctx, id)
}

// Provision creates the staff member with their login account. Either both
// rows commit or neither does.
func (s *Service) Provision(ctx context.Context, actor *authz.Principal, in ProvisionInput) (*Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Provision(ctx, actor.UserID, in, string(hash))
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Member, error) {
	return s.repo.Update(ctx, id, in)
}

// Deactivate retires the staff member, blocks their account, and drops the
// cached principal so the block takes effect on the next request.
func (s *Service) Deactivate(ctx context.Context, actor *authz.Principal, id int64) error {
	userID, err := s.repo.UserID(ctx, id)
	if err != nil {
		return err
	}
	target, err := s.gateway.Principal(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gateway.Guard().ValidateUserMutation(actor, target, authz.MutationDeactivate); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.gateway.InvalidatePrincipal(ctx, userID)
	return nil
}
