// Package store : implémentations ScyllaDB des collaborateurs persistants du
// checkout. Les gardes de concurrence reposent sur les écritures
// conditionnelles (LWT) de Scylla, jamais sur des verrous applicatifs.
package store

import (
	"context"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

type ScyllaSessionStore struct {
	session *gocql.Session
}

func NewScyllaSessionStore(session *gocql.Session) *ScyllaSessionStore {
	return &ScyllaSessionStore{session: session}
}

func (s *ScyllaSessionStore) Insert(ctx context.Context, sess *models.CheckoutSession) error {
	if err := s.session.Query(`INSERT INTO checkout_sessions
		(session_id, user_id, email, status, subtotal, shipping_fee, tax, discount_amount, total_amount,
		 shipping_method, payment_method, coupon_code, shipping_address, billing_address, notes, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Email, string(sess.Status), sess.Subtotal, sess.ShippingFee,
		sess.Tax, sess.DiscountAmount, sess.TotalAmount, sess.ShippingMethod, sess.PaymentMethod,
		sess.CouponCode, sess.ShippingAddress, sess.BillingAddress, sess.Notes,
		sess.CreatedAt, sess.ExpiresAt).WithContext(ctx).Exec(); err != nil {
		return err
	}

	for _, item := range sess.Items {
		if err := s.session.Query(`INSERT INTO checkout_session_items
			(session_id, item_id, product_id, quantity, unit_price, total_price, size, color, product_name, product_image)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.SessionID, item.ID, item.ProductID, item.Quantity, item.UnitPrice,
			item.TotalPrice, item.Size, item.Color, item.ProductName, item.ProductImage).
			WithContext(ctx).Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ScyllaSessionStore) Get(ctx context.Context, id gocql.UUID) (*models.CheckoutSession, error) {
	sess := &models.CheckoutSession{ID: id}
	var status string
	err := s.session.Query(`SELECT user_id, email, status, subtotal, shipping_fee, tax, discount_amount,
		total_amount, shipping_method, payment_method, coupon_code, shipping_address, billing_address,
		notes, created_at, expires_at
		FROM checkout_sessions WHERE session_id = ?`, id).WithContext(ctx).
		Scan(&sess.UserID, &sess.Email, &status, &sess.Subtotal, &sess.ShippingFee, &sess.Tax,
			&sess.DiscountAmount, &sess.TotalAmount, &sess.ShippingMethod, &sess.PaymentMethod,
			&sess.CouponCode, &sess.ShippingAddress, &sess.BillingAddress, &sess.Notes,
			&sess.CreatedAt, &sess.ExpiresAt)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionStatus(status)

	iter := s.session.Query(`SELECT item_id, product_id, quantity, unit_price, total_price, size, color,
		product_name, product_image
		FROM checkout_session_items WHERE session_id = ?`, id).WithContext(ctx).Iter()
	var item models.CheckoutSessionItem
	for iter.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice,
		&item.Size, &item.Color, &item.ProductName, &item.ProductImage) {
		item.SessionID = id
		sess.Items = append(sess.Items, item)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateStatus : transition conditionnelle (LWT). Deux paiements concurrents
// sur la même session ne peuvent pas tous deux gagner le IF.
func (s *ScyllaSessionStore) UpdateStatus(ctx context.Context, id gocql.UUID, from, to models.SessionStatus) (bool, error) {
	var current string
	applied, err := s.session.Query(
		`UPDATE checkout_sessions SET status = ? WHERE session_id = ? IF status = ?`,
		string(to), id, string(from)).WithContext(ctx).ScanCAS(&current)
	if err != nil && err != gocql.ErrNotFound {
		return false, err
	}
	return applied, nil
}
