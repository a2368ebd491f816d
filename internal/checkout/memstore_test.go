package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

// Doublures mémoire des stores, protégées par mutex pour les tests de
// concurrence. Elles reproduisent la sémantique CAS des implémentations
// ScyllaDB.

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[gocql.UUID]*models.CheckoutSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[gocql.UUID]*models.CheckoutSession)}
}

func (s *memSessionStore) Insert(_ context.Context, sess *models.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *memSessionStore) Get(_ context.Context, id gocql.UUID) (*models.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) UpdateStatus(_ context.Context, id gocql.UUID, from, to models.SessionStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Status != from {
		return false, nil
	}
	sess.Status = to
	return true, nil
}

type memOrderStore struct {
	mu        sync.Mutex
	orders    map[gocql.UUID]*models.Order
	bySession map[gocql.UUID]gocql.UUID
	history   []*models.OrderStatusHistory
	payments  []*models.Payment
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders:    make(map[gocql.UUID]*models.Order),
		bySession: make(map[gocql.UUID]gocql.UUID),
	}
}

func (s *memOrderStore) CreateFromSession(_ context.Context, o *models.Order, items []models.OrderItem) (bool, gocql.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bySession[o.SessionID]; ok {
		return false, existing, nil
	}
	cp := *o
	cp.Items = append([]models.OrderItem(nil), items...)
	s.orders[o.ID] = &cp
	s.bySession[o.SessionID] = o.ID
	return true, gocql.UUID{}, nil
}

func (s *memOrderStore) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *memOrderStore) MarkPaid(_ context.Context, id gocql.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	o.PaymentStatus = models.PaymentPaid
	o.Status = models.OrderProcessing
	return true, nil
}

func (s *memOrderStore) MarkProcessing(_ context.Context, id gocql.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != models.OrderPending {
		return false, nil
	}
	o.Status = models.OrderProcessing
	return true, nil
}

func (s *memOrderStore) MarkFailed(_ context.Context, id gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.PaymentStatus = models.PaymentFailed
		o.Status = models.OrderCancelled
	}
	return nil
}

func (s *memOrderStore) AppendStatusHistory(_ context.Context, h *models.OrderStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	s.history = append(s.history, &cp)
	return nil
}

func (s *memOrderStore) InsertPayment(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

type memProductStore struct {
	mu       sync.Mutex
	products map[gocql.UUID]*models.Product
}

func newMemProductStore(products ...*models.Product) *memProductStore {
	s := &memProductStore{products: make(map[gocql.UUID]*models.Product)}
	for _, p := range products {
		cp := *p
		s.products[p.ID] = &cp
	}
	return s
}

func (s *memProductStore) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memProductStore) DecrementStock(_ context.Context, id gocql.UUID, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return 0, &InsufficientStockError{ProductID: id, Requested: qty}
	}
	if p.StockQuantity < qty {
		return p.StockQuantity, &InsufficientStockError{
			ProductID:   id,
			ProductName: p.Name,
			Available:   p.StockQuantity,
			Requested:   qty,
		}
	}
	p.StockQuantity -= qty
	if p.StockQuantity == 0 {
		p.InStock = false
		p.Status = "out_of_stock"
	}
	return p.StockQuantity, nil
}

type memCouponStore struct {
	mu      sync.Mutex
	coupons map[gocql.UUID]*models.Coupon
	usages  []*models.CouponUsage
}

func newMemCouponStore(coupons ...*models.Coupon) *memCouponStore {
	s := &memCouponStore{coupons: make(map[gocql.UUID]*models.Coupon)}
	for _, c := range coupons {
		cp := *c
		s.coupons[c.ID] = &cp
	}
	return s
}

func (s *memCouponStore) FindValidCoupon(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range s.coupons {
		if c.Code != code || !c.IsActive {
			continue
		}
		if c.StartDate != nil && now.Before(*c.StartDate) {
			continue
		}
		if c.EndDate != nil && now.After(*c.EndDate) {
			continue
		}
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *memCouponStore) IncrementUsage(_ context.Context, id gocql.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok {
		return false, nil
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false, nil
	}
	c.UsageCount++
	return true, nil
}

func (s *memCouponStore) RecordUsage(_ context.Context, u *models.CouponUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usages = append(s.usages, &cp)
	return nil
}

type memMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *memMailer) SendOrderConfirmation(to string, _ *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
