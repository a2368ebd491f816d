package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID               gocql.UUID `json:"id"`
	Name             string     `json:"name"`
	SKU              string     `json:"sku"`
	Price            float64    `json:"price"`
	StockQuantity    int        `json:"stock_quantity"`
	InStock          bool       `json:"in_stock"`
	Status           string     `json:"status"` // "active", "inactive", "out_of_stock"
	FeaturedImageURL string     `json:"featured_image_url"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
