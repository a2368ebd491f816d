package checkout

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"johnhenry_back_end/internal/models"
)

func testProduct(stock int) *models.Product {
	return &models.Product{
		ID:            gocql.UUID(uuid.New()),
		Name:          "Áo sơ mi trắng",
		Price:         400_000,
		StockQuantity: stock,
		InStock:       stock > 0,
		Status:        "active",
		IsActive:      true,
	}
}

func testCoupon(limit int) *models.Coupon {
	return &models.Coupon{
		ID:         gocql.UUID(uuid.New()),
		Code:       "SAVE10",
		Type:       "percentage",
		Value:      10,
		UsageLimit: &limit,
		IsActive:   true,
	}
}

func testSession(product *models.Product, couponCode string) *models.CheckoutSession {
	now := time.Now()
	s := &models.CheckoutSession{
		ID:              gocql.UUID(uuid.New()),
		UserID:          "user-1",
		Email:           "an@example.com",
		Status:          models.SessionProcessing,
		Subtotal:        800_000,
		ShippingFee:     0,
		Tax:             80_000,
		DiscountAmount:  80_000,
		TotalAmount:     800_000,
		ShippingMethod:  "STANDARD",
		PaymentMethod:   "stripe",
		CouponCode:      couponCode,
		ShippingAddress: `{"full_name":"Nguyễn Văn An"}`,
		BillingAddress:  `{"full_name":"Nguyễn Văn An"}`,
		CreatedAt:       now,
		ExpiresAt:       now.Add(SessionTTL),
	}
	s.Items = []models.CheckoutSessionItem{{
		ID:          gocql.UUID(uuid.New()),
		SessionID:   s.ID,
		ProductID:   product.ID,
		Quantity:    2,
		UnitPrice:   400_000,
		TotalPrice:  800_000,
		ProductName: product.Name,
	}}
	return s
}

type completionFixture struct {
	completion *Completion
	sessions   *memSessionStore
	orders     *memOrderStore
	products   *memProductStore
	coupons    *memCouponStore
	mailer     *memMailer
}

func newCompletionFixture(product *models.Product, coupons ...*models.Coupon) *completionFixture {
	f := &completionFixture{
		sessions: newMemSessionStore(),
		orders:   newMemOrderStore(),
		products: newMemProductStore(product),
		coupons:  newMemCouponStore(coupons...),
		mailer:   &memMailer{},
	}
	f.completion = NewCompletion(f.sessions, f.orders, f.products, f.coupons, f.mailer)
	return f
}

func TestCreateOrderFromSessionCopiesFrozenTotals(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(order.OrderNumber, "JH"))
	assert.Len(t, order.OrderNumber, 20)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, session.Subtotal, order.Subtotal)
	assert.Equal(t, session.TotalAmount, order.TotalAmount)
	assert.Equal(t, session.DiscountAmount, order.DiscountAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 400_000.0, order.Items[0].UnitPrice)
	assert.Equal(t, product.ID, order.Items[0].ProductID)
}

func TestCreateOrderFromSessionRejectsExpired(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := f.completion.CreateOrderFromSession(context.Background(), session)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestCreateOrderFromSessionIsIdempotent(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	first, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)
	second, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)

	// Au plus une commande par session : le second appel retourne la
	// commande existante.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
}

func TestCompleteOrderSideEffects(t *testing.T) {
	product := testProduct(10)
	coupon := testCoupon(5)
	f := newCompletionFixture(product, coupon)
	session := testSession(product, "SAVE10")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)
	require.NoError(t, f.completion.CompleteOrder(context.Background(), order, "txn_123", `{"status":"succeeded"}`))

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, stored.Status)

	// Stock décrémenté de la quantité commandée.
	p, err := f.products.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)

	// Coupon consommé une fois, trace d'usage enregistrée.
	c, err := f.coupons.FindValidCoupon(context.Background(), "SAVE10", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)
	require.Len(t, f.coupons.usages, 1)
	assert.Equal(t, order.ID, f.coupons.usages[0].OrderID)
	assert.Equal(t, order.DiscountAmount, f.coupons.usages[0].DiscountAmount)

	// Session clôturée, historique et trace de paiement écrits.
	sess, err := f.sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	require.Len(t, f.orders.payments, 1)
	assert.Equal(t, "completed", f.orders.payments[0].Status)
	assert.Equal(t, "txn_123", f.orders.payments[0].TransactionID)
	require.Len(t, f.orders.history, 1)

	// Confirmation envoyée en arrière-plan.
	assert.Eventually(t, func() bool { return f.mailer.count() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestCompleteOrderReplayIsNoOp(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)
	require.NoError(t, f.completion.CompleteOrder(context.Background(), order, "txn_1", ""))
	// Webhook rejoué : même commande, aucun effet de bord dupliqué.
	require.NoError(t, f.completion.CompleteOrder(context.Background(), order, "txn_1", ""))

	p, err := f.products.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)
	assert.Len(t, f.orders.payments, 1)
	assert.Len(t, f.orders.history, 1)
}

func TestCompleteOrderConcurrent(t *testing.T) {
	product := testProduct(20)
	coupon := testCoupon(100)
	f := newCompletionFixture(product, coupon)
	session := testSession(product, "SAVE10")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)

	// Retour navigateur et webhook arrivent en même temps : un seul gagnant.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := *order
			_ = f.completion.CompleteOrder(context.Background(), &o, "txn_race", "")
		}()
	}
	wg.Wait()

	p, err := f.products.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, p.StockQuantity, "le stock ne doit être décrémenté qu'une fois")

	c, err := f.coupons.FindValidCoupon(context.Background(), "SAVE10", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount, "le coupon ne doit être consommé qu'une fois")

	assert.Len(t, f.orders.payments, 1)
	assert.Len(t, f.orders.history, 1)
}

func TestConfirmCashOnDeliveryKeepsPaymentPending(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	session.PaymentMethod = "cod"
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)
	require.NoError(t, f.completion.ConfirmCashOnDelivery(context.Background(), order, "COD-1"))

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, stored.Status)
	// Le paiement attend la livraison.
	assert.Equal(t, models.PaymentPending, stored.PaymentStatus)

	// Stock quand même réservé, trace de paiement "pending".
	p, err := f.products.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)
	require.Len(t, f.orders.payments, 1)
	assert.Equal(t, "pending", f.orders.payments[0].Status)

	// Rejeu : no-op.
	require.NoError(t, f.completion.ConfirmCashOnDelivery(context.Background(), order, "COD-1"))
	assert.Len(t, f.orders.payments, 1)
}

func TestFailOrderKeepsRowForAudit(t *testing.T) {
	product := testProduct(10)
	f := newCompletionFixture(product)
	session := testSession(product, "")
	require.NoError(t, f.sessions.Insert(context.Background(), session))

	order, err := f.completion.CreateOrderFromSession(context.Background(), session)
	require.NoError(t, err)
	require.NoError(t, f.completion.FailOrder(context.Background(), order, "carte refusée"))

	stored, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.OrderCancelled, stored.Status)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)

	// Aucun stock consommé : le client peut retenter.
	p, err := f.products.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity)

	sess, err := f.sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, sess.Status)
}

func TestCheckStock(t *testing.T) {
	product := testProduct(1)
	f := newCompletionFixture(product)

	items := []models.OrderItem{{ProductID: product.ID, Quantity: 2}}
	err := f.completion.CheckStock(context.Background(), items)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	items[0].Quantity = 1
	assert.NoError(t, f.completion.CheckStock(context.Background(), items))
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	n := GenerateOrderNumber(now)
	assert.Len(t, n, 20)
	assert.True(t, strings.HasPrefix(n, "JH20250314150926"))
}
