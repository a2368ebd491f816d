package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Order struct {
	ID              gocql.UUID   `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          string       `json:"user_id"`
	SessionID       gocql.UUID   `json:"session_id"`
	Status          OrderStatus  `json:"status"`
	PaymentStatus   PaymentState `json:"payment_status"`
	PaymentMethod   string       `json:"payment_method"`
	Subtotal        float64      `json:"subtotal"`
	ShippingFee     float64      `json:"shipping_fee"`
	Tax             float64      `json:"tax"`
	DiscountAmount  float64      `json:"discount_amount"`
	TotalAmount     float64      `json:"total_amount"`
	CouponCode      string       `json:"coupon_code,omitempty"`
	ShippingAddress string       `json:"shipping_address"` // JSON
	BillingAddress  string       `json:"billing_address"`  // JSON
	Email           string       `json:"email"`
	Notes           string       `json:"notes,omitempty"`
	Items           []OrderItem  `json:"items,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem est copié tel quel depuis l'instantané de session.
type OrderItem struct {
	ID           gocql.UUID `json:"id"`
	OrderID      gocql.UUID `json:"order_id"`
	ProductID    gocql.UUID `json:"product_id"`
	Quantity     int        `json:"quantity"`
	UnitPrice    float64    `json:"unit_price"`
	TotalPrice   float64    `json:"total_price"`
	Size         string     `json:"size,omitempty"`
	Color        string     `json:"color,omitempty"`
	ProductName  string     `json:"product_name"`
	ProductImage string     `json:"product_image,omitempty"`
}

// OrderStatusHistory : journal en append-only, jamais modifié après insertion.
type OrderStatusHistory struct {
	ID        gocql.UUID  `json:"id"`
	OrderID   gocql.UUID  `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Payment : une tentative de paiement. Plusieurs lignes possibles par
// commande (retries), une seule peut être "completed".
type Payment struct {
	ID              gocql.UUID `json:"id"`
	OrderID         gocql.UUID `json:"order_id"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"` // "pending", "completed", "failed"
	Amount          float64    `json:"amount"`
	TransactionID   string     `json:"transaction_id,omitempty"`
	GatewayResponse string     `json:"gateway_response,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
