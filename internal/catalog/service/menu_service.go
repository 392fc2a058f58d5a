package service

import (
	"context"

	"kms/internal/domain"
)

type Repository interface {
	FindCanteenByID(ctx context.Context, id string) (*domain.Canteen, error)
	FindMenuItemsByIDs(ctx context.Context, ids []string) ([]domain.MenuItem, error)
}

type MenuService struct {
	repo Repository
}

func NewMenuService(repo Repository) *MenuService {
	return &MenuService{repo: repo}
}

func (s *MenuService) GetCanteen(ctx context.Context, id string) (*domain.Canteen, error) {
	return s.repo.FindCanteenByID(ctx, id)
}

// GetMenuItemsByIDs returns the items that exist keyed by id, plus the requested ids that do
// not, in request order.
func (s *MenuService) GetMenuItemsByIDs(ctx context.Context, ids []string) (map[string]domain.MenuItem, []string, error) {
	found, err := s.repo.FindMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]domain.MenuItem, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	var notFoundIDs []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return byID, notFoundIDs, nil
}
