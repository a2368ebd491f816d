package models

import (
	"time"

	"github.com/gocql/gocql"
)

type ShippingMethod struct {
	ID             gocql.UUID `json:"id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"` // "STANDARD", "EXPRESS", "SUPER_EXPRESS", "ECONOMY"
	Description    string     `json:"description,omitempty"`
	Cost           float64    `json:"cost"`
	MinOrderAmount *float64   `json:"min_order_amount,omitempty"` // gratuit au-delà de ce montant
	EstimatedDays  int        `json:"estimated_days"`
	IsActive       bool       `json:"is_active"`
	SortOrder      int        `json:"sort_order"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
