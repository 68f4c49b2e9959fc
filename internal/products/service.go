package products

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

func (s *Service) List(ctx context.Context, kind string, filters shared.ListFilters) ([]Product, int, error) {
	if kind != "" && kind != KindLoan && kind != KindInvestment {
		return nil, 0, fmt.Errorf("%w: unknown product kind %q", shared.ErrValidation, kind)
	}
	products, total, err := s.repo.List(ctx, kind, filters)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].AmountRange = formatAmountRange(products[i].MinAmount, products[i].MaxAmount)
	}
	return products, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.AmountRange = formatAmountRange(p.MinAmount, p.MaxAmount)
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	p.AmountRange = formatAmountRange(p.MinAmount, p.MaxAmount)
	return p, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Product, error) {
	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	p.AmountRange = formatAmountRange(p.MinAmount, p.MaxAmount)
	return p, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
