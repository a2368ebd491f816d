package payment

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"

	"johnhenry_back_end/internal/models"
)

// Stripe : page de paiement hébergée (Stripe Checkout). Le client est
// redirigé vers Stripe, puis revient sur nos URLs de retour ; la confirmation
// fait foi via le webhook checkout.session.completed. Les URLs embarquent
// l'identifiant de commande pour que le retour soit auto-suffisant.
type Stripe struct {
	baseURL string
}

// NewStripe attend la clé secrète et l'URL publique du site (base des URLs de
// retour).
func NewStripe(secretKey, baseURL string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{baseURL: baseURL}
}

func (m *Stripe) Code() string { return "stripe" }

func (m *Stripe) Initiate(ctx context.Context, order *models.Order) (*Result, error) {
	// Le VND est une devise sans décimales chez Stripe : montant tel quel.
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("vnd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Đơn hàng " + order.OrderNumber),
				},
				UnitAmount: stripe.Int64(int64(order.TotalAmount)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(fmt.Sprintf(
			"%s/payment/stripe/return?order_id=%s&session_id={CHECKOUT_SESSION_ID}", m.baseURL, order.ID)),
		CancelURL: stripe.String(fmt.Sprintf(
			"%s/payment/stripe/return?order_id=%s&cancelled=1", m.baseURL, order.ID)),
		CustomerEmail: stripe.String(order.Email),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		log.Println("❌ Erreur Stripe:", err)
		return nil, &GatewayError{Method: m.Code(), Message: err.Error()}
	}

	log.Printf("💳 Session Stripe créée : %s (%.0f₫) pour %s", s.ID, order.TotalAmount, order.OrderNumber)
	return &Result{
		Method:        m.Code(),
		TransactionID: s.ID,
		RedirectURL:   s.URL,
		Pending:       true,
	}, nil
}
