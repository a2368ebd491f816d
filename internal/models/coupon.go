package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Coupon struct {
	ID             gocql.UUID `json:"id"`
	Code           string     `json:"code"` // stocké en majuscules, unique
	Name           string     `json:"name"`
	Type           string     `json:"type"` // "percentage", "fixed_amount"
	Value          float64    `json:"value"`
	MinOrderAmount *float64   `json:"min_order_amount,omitempty"`
	UsageLimit     *int       `json:"usage_limit,omitempty"`
	UsageCount     int        `json:"usage_count"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Exhausted indique si la limite d'utilisation est atteinte.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// CouponUsage : trace d'audit en append-only liant coupon, utilisateur,
// commande et montant réellement appliqué.
type CouponUsage struct {
	ID             gocql.UUID `json:"id"`
	CouponID       gocql.UUID `json:"coupon_id"`
	UserID         string     `json:"user_id"`
	OrderID        gocql.UUID `json:"order_id"`
	DiscountAmount float64    `json:"discount_amount"`
	UsedAt         time.Time  `json:"used_at"`
}

type CouponValidation struct {
	IsValid      bool    `json:"is_valid"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Discount     float64 `json:"discount"`
	Type         string  `json:"type,omitempty"`
	Code         string  `json:"code,omitempty"`
}
