package domain

import (
	"time"
)

const DefaultImageFile = "default.jpg"

// Product prices are whole rupiah.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageFile   string    `json:"image_file"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether qty units can be sold right now.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// Untuk admin create / update produk
type ProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"min=0"`
	Stock       int    `json:"stock" binding:"min=0"`
	ImageFile   string `json:"image_file"`
}
