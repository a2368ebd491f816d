package models

import (
	"time"

	"github.com/gocql/gocql"
)

// CheckoutSession fige le panier et ses totaux à la création : c'est la seule
// source de vérité sur ce que le client paiera, quelles que soient les
// modifications ultérieures du catalogue.
type CheckoutSession struct {
	ID              gocql.UUID            `json:"id"`
	UserID          string                `json:"user_id"` // vide pour un invité
	Email           string                `json:"email"`
	Status          SessionStatus         `json:"status"`
	Subtotal        float64               `json:"subtotal"`
	ShippingFee     float64               `json:"shipping_fee"`
	Tax             float64               `json:"tax"`
	DiscountAmount  float64               `json:"discount_amount"`
	TotalAmount     float64               `json:"total_amount"`
	ShippingMethod  string                `json:"shipping_method"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	ShippingAddress string                `json:"shipping_address"` // JSON
	BillingAddress  string                `json:"billing_address"`  // JSON
	Notes           string                `json:"notes,omitempty"`
	Items           []CheckoutSessionItem `json:"items,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	ExpiresAt       time.Time             `json:"expires_at"`
}

// Expired dérive l'expiration de l'horloge, jamais du statut stocké.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CheckoutSessionItem est un instantané immuable d'une ligne de panier.
// Le workflow de complétion ne relit jamais le prix catalogue courant.
type CheckoutSessionItem struct {
	ID           gocql.UUID `json:"id"`
	SessionID    gocql.UUID `json:"session_id"`
	ProductID    gocql.UUID `json:"product_id"`
	Quantity     int        `json:"quantity"`
	UnitPrice    float64    `json:"unit_price"`
	TotalPrice   float64    `json:"total_price"`
	Size         string     `json:"size,omitempty"`
	Color        string     `json:"color,omitempty"`
	ProductName  string     `json:"product_name"`
	ProductImage string     `json:"product_image,omitempty"`
}
