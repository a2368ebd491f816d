package pricing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"johnhenry_back_end/internal/models"
)

type fakeShippingLookup struct {
	methods map[string]*models.ShippingMethod
}

func (f *fakeShippingLookup) FindActiveMethod(_ context.Context, code string) (*models.ShippingMethod, error) {
	return f.methods[code], nil
}

type fakeCouponLookup struct {
	coupons map[string]*models.Coupon
}

func (f *fakeCouponLookup) FindValidCoupon(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	c := f.coupons[strings.ToUpper(code)]
	if c == nil || !c.IsActive {
		return nil, nil
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return nil, nil
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return nil, nil
	}
	return c, nil
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func testEngine() *Engine {
	shipping := &fakeShippingLookup{methods: map[string]*models.ShippingMethod{
		"STANDARD": {Code: "STANDARD", Cost: 30_000, IsActive: true},
		"EXPRESS":  {Code: "EXPRESS", Cost: 50_000, IsActive: true},
		"SUPER_EXPRESS": {
			Code: "SUPER_EXPRESS", Cost: 100_000, IsActive: true,
			MinOrderAmount: f64(500_000),
		},
	}}
	coupons := &fakeCouponLookup{coupons: map[string]*models.Coupon{
		"SAVE10": {
			Code: "SAVE10", Type: "percentage", Value: 10,
			MinOrderAmount: f64(500_000), IsActive: true,
		},
		"FLAT50K": {
			Code: "FLAT50K", Type: "fixed_amount", Value: 50_000, IsActive: true,
		},
		"BIGFIXED": {
			Code: "BIGFIXED", Type: "fixed_amount", Value: 900_000, IsActive: true,
		},
		"USEDUP": {
			Code: "USEDUP", Type: "percentage", Value: 20, IsActive: true,
			UsageLimit: intp(5), UsageCount: 5,
		},
	}}
	return NewEngine(shipping, coupons)
}

func lines(subtotal float64) []models.CartItem {
	return []models.CartItem{{ProductID: "p1", Name: "Áo sơ mi", Price: subtotal, Quantity: 1}}
}

func TestSubtotal(t *testing.T) {
	items := []models.CartItem{
		{Price: 150_000, Quantity: 2},
		{Price: 99_000, Quantity: 3},
	}
	assert.Equal(t, 597_000.0, Subtotal(items))
	assert.Equal(t, 0.0, Subtotal(nil))
}

func TestExpressFeeTiers(t *testing.T) {
	const cost = 50_000.0

	// Plein tarif sous le premier palier.
	for _, subtotal := range []float64{0, 1, 100_000, 499_999} {
		assert.Equal(t, cost, ExpressFee(cost, subtotal), "subtotal=%v", subtotal)
	}
	// Demi-tarif entre les deux paliers.
	for _, subtotal := range []float64{500_000, 750_000, 999_999} {
		assert.Equal(t, cost*0.5, ExpressFee(cost, subtotal), "subtotal=%v", subtotal)
	}
	// Offerte à partir du second palier.
	for _, subtotal := range []float64{1_000_000, 2_500_000, 10_000_000} {
		assert.Equal(t, 0.0, ExpressFee(cost, subtotal), "subtotal=%v", subtotal)
	}
}

func TestQuoteShippingFee(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	tests := []struct {
		name     string
		method   string
		subtotal float64
		wantFee  float64
	}{
		{"standard sous le seuil", "STANDARD", 300_000, 30_000},
		{"standard au seuil gratuit", "STANDARD", 500_000, 0},
		{"express palier 1", "EXPRESS", 300_000, 50_000},
		{"express palier 2", "EXPRESS", 600_000, 25_000},
		{"express offert", "EXPRESS", 1_200_000, 0},
		{"min commande de la méthode atteint", "SUPER_EXPRESS", 500_000, 0},
		{"méthode inconnue", "DRONE", 300_000, 0},
		{"pas de méthode", "", 300_000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := e.Quote(ctx, lines(tt.subtotal), tt.method, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFee, q.ShippingFee)
		})
	}
}

func TestCouponMinOrderAmount(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	// Sous le minimum la remise vaut toujours zéro, quel que soit le type.
	for _, subtotal := range []float64{0, 100_000, 499_999} {
		v, err := e.ValidateCoupon(ctx, "SAVE10", subtotal)
		require.NoError(t, err)
		assert.False(t, v.IsValid)
		assert.Zero(t, v.Discount)
	}

	v, err := e.ValidateCoupon(ctx, "SAVE10", 500_000)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Equal(t, 50_000.0, v.Discount)
}

func TestFixedAmountNeverExceedsSubtotal(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	v, err := e.ValidateCoupon(ctx, "BIGFIXED", 200_000)
	require.NoError(t, err)
	require.True(t, v.IsValid)
	assert.Equal(t, 200_000.0, v.Discount)

	v, err = e.ValidateCoupon(ctx, "BIGFIXED", 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, 900_000.0, v.Discount)
}

func TestExhaustedCouponYieldsZero(t *testing.T) {
	e := testEngine()

	v, err := e.ValidateCoupon(context.Background(), "USEDUP", 1_000_000)
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	assert.Zero(t, v.Discount)
	assert.NotEmpty(t, v.ErrorMessage)
}

func TestCouponCodeCaseInsensitive(t *testing.T) {
	e := testEngine()

	v, err := e.ValidateCoupon(context.Background(), "save10", 600_000)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Equal(t, "SAVE10", v.Code)
}

func TestAutoDiscountCap(t *testing.T) {
	assert.Equal(t, 0.0, AutoDiscount(499_999))
	assert.Equal(t, 25_000.0, AutoDiscount(500_000))
	// 5% plafonné à 200 000 quel que soit le sous-total.
	assert.Equal(t, 200_000.0, AutoDiscount(4_000_000))
	assert.Equal(t, 200_000.0, AutoDiscount(100_000_000))
}

func TestDiscountsStack(t *testing.T) {
	e := testEngine()

	q, err := e.Quote(context.Background(), lines(600_000), "STANDARD", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 60_000.0, q.CouponDiscount)
	assert.Equal(t, 30_000.0, q.AutoDiscount)
	assert.Equal(t, 90_000.0, q.TotalDiscount)
}

// Scénario de bout en bout A : panier 600 000, coupon SAVE10 (10%, min
// 500 000), livraison standard, TVA 10%.
func TestQuoteScenarioA(t *testing.T) {
	e := testEngine()

	q, err := e.Quote(context.Background(), lines(600_000), "STANDARD", "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, 600_000.0, q.Subtotal)
	assert.Equal(t, 0.0, q.ShippingFee)
	assert.Equal(t, 60_000.0, q.Tax)
	assert.Equal(t, 60_000.0, q.CouponDiscount)
	assert.Equal(t, 30_000.0, q.AutoDiscount)
	assert.Equal(t, 570_000.0, q.GrandTotal)
	assert.Equal(t, "SAVE10", q.CouponCode)
}

// Scénario B : panier 300 000, sans coupon, livraison standard payante.
func TestQuoteScenarioB(t *testing.T) {
	e := testEngine()

	q, err := e.Quote(context.Background(), lines(300_000), "STANDARD", "")
	require.NoError(t, err)

	assert.Equal(t, 300_000.0, q.Subtotal)
	assert.Equal(t, 30_000.0, q.ShippingFee)
	assert.Equal(t, 30_000.0, q.Tax)
	assert.Equal(t, 0.0, q.TotalDiscount)
	assert.Equal(t, 360_000.0, q.GrandTotal)
}

func TestGrandTotalNeverNegative(t *testing.T) {
	e := testEngine()

	// Coupon fixe supérieur au sous-total : la remise est bornée au
	// sous-total, le total reste positif ou nul.
	q, err := e.Quote(context.Background(), lines(10_000), "STANDARD", "FLAT50K")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, q.GrandTotal, 0.0)
}

func TestQuoteDeterministic(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	first, err := e.Quote(ctx, lines(750_000), "EXPRESS", "SAVE10")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Quote(ctx, lines(750_000), "EXPRESS", "SAVE10")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
