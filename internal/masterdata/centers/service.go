package centers

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

func (s *Service) List(ctx context.Context, branchID int64, filters shared.ListFilters) ([]Center, int, error) {
	return s.repo.List(ctx, branchID, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Center, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Center) (*Center, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, c Center) (*Center, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

var meetingDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true, "sunday": true,
}

func (s *Service) validate(c Center) error {
	if c.BranchID <= 0 {
		return fmt.Errorf("%w: branch is required", shared.ErrValidation)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: center code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: center name is required", shared.ErrValidation)
	}
	if c.MeetingDay != "" && !meetingDays[strings.ToLower(c.MeetingDay)] {
		return fmt.Errorf("%w: invalid meeting day", shared.ErrValidation)
	}
	return nil
}
