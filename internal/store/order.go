package store

import (
	"context"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

type ScyllaOrderStore struct {
	session *gocql.Session
}

func NewScyllaOrderStore(session *gocql.Session) *ScyllaOrderStore {
	return &ScyllaOrderStore{session: session}
}

// CreateFromSession : l'insertion dans orders_by_session avec IF NOT EXISTS
// est le verrou — au plus une commande par session, quel que soit le nombre
// d'appelants concurrents. Le perdant récupère l'identifiant gagnant depuis
// la ligne existante.
func (s *ScyllaOrderStore) CreateFromSession(ctx context.Context, o *models.Order, items []models.OrderItem) (bool, gocql.UUID, error) {
	var existing gocql.UUID
	applied, err := s.session.Query(
		`INSERT INTO orders_by_session (session_id, order_id) VALUES (?, ?) IF NOT EXISTS`,
		o.SessionID, o.ID).WithContext(ctx).ScanCAS(&existing)
	if err != nil {
		return false, gocql.UUID{}, err
	}
	if !applied {
		return false, existing, nil
	}

	if err := s.session.Query(`INSERT INTO orders
		(order_id, order_number, user_id, session_id, status, payment_status, payment_method,
		 subtotal, shipping_fee, tax, discount_amount, total_amount, coupon_code,
		 shipping_address, billing_address, email, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.UserID, o.SessionID, string(o.Status), string(o.PaymentStatus),
		o.PaymentMethod, o.Subtotal, o.ShippingFee, o.Tax, o.DiscountAmount, o.TotalAmount,
		o.CouponCode, o.ShippingAddress, o.BillingAddress, o.Email, o.Notes,
		o.CreatedAt, o.UpdatedAt).WithContext(ctx).Exec(); err != nil {
		return false, gocql.UUID{}, err
	}

	for _, item := range items {
		if err := s.session.Query(`INSERT INTO order_items
			(order_id, item_id, product_id, quantity, unit_price, total_price, size, color, product_name, product_image)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ID, item.ProductID, item.Quantity, item.UnitPrice,
			item.TotalPrice, item.Size, item.Color, item.ProductName, item.ProductImage).
			WithContext(ctx).Exec(); err != nil {
			return false, gocql.UUID{}, err
		}
	}
	return true, gocql.UUID{}, nil
}

func (s *ScyllaOrderStore) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	o := &models.Order{ID: id}
	var status, paymentStatus string
	err := s.session.Query(`SELECT order_number, user_id, session_id, status, payment_status,
		payment_method, subtotal, shipping_fee, tax, discount_amount, total_amount, coupon_code,
		shipping_address, billing_address, email, notes, created_at, updated_at
		FROM orders WHERE order_id = ?`, id).WithContext(ctx).
		Scan(&o.OrderNumber, &o.UserID, &o.SessionID, &status, &paymentStatus, &o.PaymentMethod,
			&o.Subtotal, &o.ShippingFee, &o.Tax, &o.DiscountAmount, &o.TotalAmount, &o.CouponCode,
			&o.ShippingAddress, &o.BillingAddress, &o.Email, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentState(paymentStatus)

	iter := s.session.Query(`SELECT item_id, product_id, quantity, unit_price, total_price, size, color,
		product_name, product_image
		FROM order_items WHERE order_id = ?`, id).WithContext(ctx).Iter()
	var item models.OrderItem
	for iter.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
		&item.Size, &item.Color, &item.ProductName, &item.ProductImage) {
		item.OrderID = id
		o.Items = append(o.Items, item)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid : CAS pending→paid. Le premier webhook ou retour navigateur
// l'emporte, tous les autres voient applied=false.
func (s *ScyllaOrderStore) MarkPaid(ctx context.Context, id gocql.UUID) (bool, error) {
	var current string
	applied, err := s.session.Query(
		`UPDATE orders SET payment_status = ?, status = ? WHERE order_id = ? IF payment_status = ?`,
		string(models.PaymentPaid), string(models.OrderProcessing), id, string(models.PaymentPending)).
		WithContext(ctx).ScanCAS(&current)
	if err != nil && err != gocql.ErrNotFound {
		return false, err
	}
	return applied, nil
}

// MarkProcessing : CAS pending→processing sur le statut de commande, le
// paiement reste inchangé (contre-remboursement).
func (s *ScyllaOrderStore) MarkProcessing(ctx context.Context, id gocql.UUID) (bool, error) {
	var current string
	applied, err := s.session.Query(
		`UPDATE orders SET status = ? WHERE order_id = ? IF status = ?`,
		string(models.OrderProcessing), id, string(models.OrderPending)).
		WithContext(ctx).ScanCAS(&current)
	if err != nil && err != gocql.ErrNotFound {
		return false, err
	}
	return applied, nil
}

// MarkFailed : la ligne est conservée pour l'audit, jamais supprimée.
func (s *ScyllaOrderStore) MarkFailed(ctx context.Context, id gocql.UUID) error {
	return s.session.Query(
		`UPDATE orders SET payment_status = ?, status = ? WHERE order_id = ?`,
		string(models.PaymentFailed), string(models.OrderCancelled), id).WithContext(ctx).Exec()
}

func (s *ScyllaOrderStore) AppendStatusHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	return s.session.Query(`INSERT INTO order_status_history
		(order_id, history_id, status, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.OrderID, h.ID, string(h.Status), h.Notes, h.CreatedAt).WithContext(ctx).Exec()
}

func (s *ScyllaOrderStore) InsertPayment(ctx context.Context, p *models.Payment) error {
	return s.session.Query(`INSERT INTO payments
		(order_id, payment_id, payment_method, status, amount, transaction_id, gateway_response, processed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.ID, p.PaymentMethod, p.Status, p.Amount, p.TransactionID,
		p.GatewayResponse, p.ProcessedAt, p.CreatedAt).WithContext(ctx).Exec()
}
