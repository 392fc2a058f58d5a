package dto

type SearchMenuItemsRequest struct {
	CanteenID   string   `json:"canteenId" validate:"required"`
	MenuItemIDs []string `json:"menuItemIds" validate:"required,min=1,max=100,dive,required"`
}

type SearchMenuItemsResponse struct {
	MenuItems []MenuItemDTO `json:"menuItems"`
	NotFound  []string      `json:"notFound"`
}

type MenuItemDTO struct {
	ID          string  `json:"id"`
	CanteenID   string  `json:"canteenId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"isAvailable"`
}
