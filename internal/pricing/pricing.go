package pricing

import (
	"context"
	"time"

	"johnhenry_back_end/internal/models"
)

// Barème de tarification. Montants en VND.
const (
	// Livraison offerte (méthodes hors express) dès ce sous-total.
	FreeShippingThreshold = 500_000

	// La méthode EXPRESS suit un barème à paliers sur le sous-total :
	// plein tarif sous Tier1, demi-tarif entre Tier1 et Tier2, offerte au-delà.
	ExpressCode  = "EXPRESS"
	ExpressTier1 = 500_000
	ExpressTier2 = 1_000_000

	// TVA 10%, taux unique sur le sous-total.
	TaxRate = 0.10

	// Remise automatique : 5% dès AutoDiscountThreshold, plafonnée à
	// AutoDiscountMax. Elle se CUMULE avec la remise coupon.
	AutoDiscountThreshold = 500_000
	AutoDiscountRate      = 0.05
	AutoDiscountMax       = 200_000
)

// ShippingLookup résout une méthode de livraison active par code.
// Retourne (nil, nil) si elle n'existe pas.
type ShippingLookup interface {
	FindActiveMethod(ctx context.Context, code string) (*models.ShippingMethod, error)
}

// CouponLookup résout un coupon actif et dans sa fenêtre de validité par code
// (insensible à la casse). Retourne (nil, nil) si aucun ne correspond.
type CouponLookup interface {
	FindValidCoupon(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
}

// Quote est le résultat du moteur : mêmes entrées, mêmes sorties, toujours.
type Quote struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingFee    float64 `json:"shipping_fee"`
	Tax            float64 `json:"tax"`
	CouponDiscount float64 `json:"coupon_discount"`
	AutoDiscount   float64 `json:"auto_discount"`
	TotalDiscount  float64 `json:"total_discount"`
	GrandTotal     float64 `json:"grand_total"`
	CouponCode     string  `json:"coupon_code,omitempty"`
}

type Engine struct {
	shipping ShippingLookup
	coupons  CouponLookup
}

func NewEngine(shipping ShippingLookup, coupons CouponLookup) *Engine {
	return &Engine{shipping: shipping, coupons: coupons}
}

// Quote calcule sous-total, frais de port, TVA et remises pour un instantané
// de panier. Chaque règle est calculée indépendamment sur le sous-total ;
// seul le total final les combine. Un coupon invalide donne une remise de
// zéro, jamais une erreur : le message revient à l'appelant via Validate.
func (e *Engine) Quote(ctx context.Context, lines []models.CartItem, shippingMethod, couponCode string) (*Quote, error) {
	subtotal := Subtotal(lines)

	shippingFee, err := e.shippingFee(ctx, shippingMethod, subtotal)
	if err != nil {
		return nil, err
	}

	tax := Tax(subtotal)

	couponDiscount := 0.0
	appliedCode := ""
	if couponCode != "" {
		v, err := e.ValidateCoupon(ctx, couponCode, subtotal)
		if err != nil {
			return nil, err
		}
		if v.IsValid {
			couponDiscount = v.Discount
			appliedCode = v.Code
		}
	}

	autoDiscount := AutoDiscount(subtotal)
	totalDiscount := couponDiscount + autoDiscount

	grandTotal := subtotal + shippingFee + tax - totalDiscount
	// Jamais de total négatif.
	if grandTotal < 0 {
		grandTotal = 0
	}

	return &Quote{
		Subtotal:       subtotal,
		ShippingFee:    shippingFee,
		Tax:            tax,
		CouponDiscount: couponDiscount,
		AutoDiscount:   autoDiscount,
		TotalDiscount:  totalDiscount,
		GrandTotal:     grandTotal,
		CouponCode:     appliedCode,
	}, nil
}

// Subtotal calcule le montant total des lignes du panier.
func Subtotal(lines []models.CartItem) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// Tax applique la TVA sur le sous-total.
func Tax(subtotal float64) float64 {
	return subtotal * TaxRate
}

// AutoDiscount : remise promotionnelle automatique, plafonnée.
func AutoDiscount(subtotal float64) float64 {
	if subtotal < AutoDiscountThreshold {
		return 0
	}
	d := subtotal * AutoDiscountRate
	if d > AutoDiscountMax {
		return AutoDiscountMax
	}
	return d
}

// ExpressFee applique le barème à paliers de la méthode express.
func ExpressFee(cost, subtotal float64) float64 {
	switch {
	case subtotal >= ExpressTier2:
		return 0
	case subtotal >= ExpressTier1:
		return cost * 0.5
	default:
		return cost
	}
}

func (e *Engine) shippingFee(ctx context.Context, code string, subtotal float64) (float64, error) {
	if code == "" {
		return 0, nil
	}

	method, err := e.shipping.FindActiveMethod(ctx, code)
	if err != nil {
		return 0, err
	}
	if method == nil {
		return 0, nil
	}

	if method.Code == ExpressCode {
		return ExpressFee(method.Cost, subtotal), nil
	}

	if subtotal >= FreeShippingThreshold {
		return 0, nil
	}
	if method.MinOrderAmount != nil && subtotal >= *method.MinOrderAmount {
		return 0, nil
	}
	return method.Cost, nil
}

// ValidateCoupon vérifie un code promo contre un sous-total et calcule la
// remise. Toutes les causes de refus produisent une validation invalide avec
// message, pas une erreur.
func (e *Engine) ValidateCoupon(ctx context.Context, code string, subtotal float64) (*models.CouponValidation, error) {
	coupon, err := e.coupons.FindValidCoupon(ctx, code, time.Now())
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return &models.CouponValidation{IsValid: false, ErrorMessage: "Code coupon invalide ou expiré"}, nil
	}

	if coupon.Exhausted() {
		return &models.CouponValidation{IsValid: false, ErrorMessage: "Ce coupon a atteint sa limite d'utilisation"}, nil
	}

	if coupon.MinOrderAmount != nil && subtotal < *coupon.MinOrderAmount {
		return &models.CouponValidation{
			IsValid:      false,
			ErrorMessage: "Montant minimum de commande non atteint pour ce coupon",
		}, nil
	}

	return &models.CouponValidation{
		IsValid:  true,
		Discount: CouponDiscount(coupon, subtotal),
		Type:     coupon.Type,
		Code:     coupon.Code,
	}, nil
}

// CouponDiscount calcule la remise d'un coupon déjà validé. La remise ne
// dépasse jamais le sous-total auquel elle s'applique.
func CouponDiscount(coupon *models.Coupon, subtotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case "percentage":
		discount = subtotal * (coupon.Value / 100)
	case "fixed_amount":
		discount = coupon.Value
	default:
		return 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}
