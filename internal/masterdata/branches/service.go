package branches

import (
	"context"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// Service handles branch business logic.
type Service struct {
	repo *Repository
}

// NewService builds a Service instance.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns branches matching the filters.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Branch, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a branch.
func (s *Service) Get(ctx context.Context, id int64) (*Branch, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a branch.
func (s *Service) Create(ctx context.Context, b Branch) (*Branch, error) {
	if err := s.validate(b); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, b)
}

// Update validates and edits a branch.
func (s *Service) Update(ctx context.Context, id int64, b Branch) (*Branch, error) {
	if err := s.validate(b); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, b)
}

// Delete removes a branch.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
