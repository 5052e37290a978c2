package domain

// Line is a cart entry resolved against the live catalog.
type Line struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
	Subtotal  int64  `json:"subtotal"`
}

type View struct {
	Lines     []Line `json:"items"`
	Total     int64  `json:"total"`
	ItemCount int    `json:"item_count"`
	Note      string `json:"note"`
	// Unavailable lists entries whose product has been removed from the catalog.
	Unavailable []int64 `json:"unavailable,omitempty"`
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"omitempty,min=1,max=10000"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=10000"`
}

type NoteRequest struct {
	Note string `json:"note" binding:"max=500"`
}
