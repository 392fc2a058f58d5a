package usecase

import (
	"context"

	"kms/internal/domain"
	"kms/internal/dto"
)

type Service interface {
	GetMenuItemsByIDs(ctx context.Context, ids []string) (found map[string]domain.MenuItem, notFoundIDs []string, err error)
}

type SearchMenuItemsUseCase struct {
	service Service
}

func NewSearchMenuItemsUseCase(service Service) *SearchMenuItemsUseCase {
	return &SearchMenuItemsUseCase{service: service}
}

// SearchMenuItems resolves a cart against a canteen's menu. Items of another canteen are
// reported as not found.
func (uc *SearchMenuItemsUseCase) SearchMenuItems(ctx context.Context, req dto.SearchMenuItemsRequest) (*dto.SearchMenuItemsResponse, error) {
	found, notFoundIDs, err := uc.service.GetMenuItemsByIDs(ctx, req.MenuItemIDs)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MenuItemDTO, 0, len(found))
	missing := make([]string, 0, len(notFoundIDs))
	missing = append(missing, notFoundIDs...)

	for _, id := range req.MenuItemIDs {
		m, ok := found[id]
		if !ok {
			continue
		}
		if m.CanteenID != req.CanteenID {
			missing = append(missing, id)
			continue
		}
		items = append(items, dto.MenuItemDTO{
			ID:          m.ID,
			CanteenID:   m.CanteenID,
			Name:        m.Name,
			Category:    m.Category,
			Price:       m.Price,
			IsAvailable: m.IsAvailable,
		})
	}

	return &dto.SearchMenuItemsResponse{
		MenuItems: items,
		NotFound:  missing,
	}, nil
}
