package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"kms/internal/commons"
	"kms/internal/dto"
)

type SearchUseCase interface {
	SearchMenuItems(ctx context.Context, req dto.SearchMenuItemsRequest) (*dto.SearchMenuItemsResponse, error)
}

type MenuController struct {
	useCase SearchUseCase
	logger  *zap.Logger
}

func NewMenuController(useCase SearchUseCase, logger *zap.Logger) *MenuController {
	return &MenuController{
		useCase: useCase,
		logger:  logger,
	}
}

// SearchMenuItems handles POST /api/menu-items/search.
func (c *MenuController) SearchMenuItems(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchMenuItemsRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	resp, err := c.useCase.SearchMenuItems(r.Context(), req)
	if err != nil {
		commons.WriteError(w, r, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}
