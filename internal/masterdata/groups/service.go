package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, centerID int64, filters shared.ListFilters) ([]Group, int, error) {
	return s.repo.List(ctx, centerID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, g Group) (*Group, error) {
	if err := s.validate(g); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, g)
}

func (s *Service) Update(ctx context.Context, id int64, g Group) (*Group, error) {
	if err := s.validate(g); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, g)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(g Group) error {
	if g.CenterID <= 0 {
		return fmt.Errorf("%w: center is required", shared.ErrValidation)
	}
	if strings.TrimSpace(g.Code) == "" {
		return fmt.Errorf("%w: group code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: group name is required", shared.ErrValidation)
	}
	return nil
}
