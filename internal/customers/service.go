package customers

import (
	"context"
	"fmt"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, groupID int64, status string, filters shared.ListFilters) ([]Customer, int, error) {
	if status != "" && status != StatusActive && status != StatusDormant && status != StatusExited {
		return nil, 0, fmt.Errorf("%w: unknown customer status %q", shared.ErrValidation, status)
	}
	return s.repo.List(ctx, groupID, status, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Customer, error) {
	if in.Status == "" {
		in.Status = StatusActive
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Customer, error) {
	if in.Status == "" {
		in.Status = StatusActive
	}
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Exit(ctx context.Context, id int64) error {
	return s.repo.Exit(ctx, id)
}
