package catalog

import (
	"go.uber.org/zap"

	"kms/internal/catalog/controller"
	"kms/internal/catalog/service"
	"kms/internal/catalog/usecase"
	"kms/internal/storage"
)

type Module struct {
	Controller *controller.MenuController
	Service    *service.MenuService
}

func NewModule(store *storage.Storage, logger *zap.Logger) *Module {
	svc := service.NewMenuService(store.Catalog)
	uc := usecase.NewSearchMenuItemsUseCase(svc)
	return &Module{
		Controller: controller.NewMenuController(uc, logger),
		Service:    svc,
	}
}
