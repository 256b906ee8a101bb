package validation

// OrderItem is one requested line of an order.
type OrderItem struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// CreateOrderRequest is the payload for POST /orders. The customer comes from the
// authenticated identity, never from the body; prices come from the catalog.
type CreateOrderRequest struct {
	Items   []OrderItem `json:"items" validate:"required,min=1,dive"` // at least one item
	Notes   string      `json:"notes,omitempty" validate:"max=500"`
	TableID string      `json:"table_id,omitempty" validate:"max=32"`
}

// UpdateStatusRequest is the payload for PUT /orders/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=placed preparing ready completed cancelled"`
}

// MenuItemRequest is the payload for POST /menu and PUT /menu/:id
type MenuItemRequest struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Description     string  `json:"description,omitempty" validate:"max=1000"`
	Price           float64 `json:"price" validate:"required,gt=0"` // whole cents only
	Category        string  `json:"category" validate:"required,max=60"`
	Image           string  `json:"image,omitempty" validate:"omitempty,url"`
	Available       *bool   `json:"available,omitempty"`
	PreparationTime int     `json:"preparation_time,omitempty" validate:"omitempty,min=1,max=240"` // minutes
}
