package payment

import (
	"context"
	"log"

	"johnhenry_back_end/internal/models"
)

// CashOnDelivery : paiement à la livraison. L'initiation réussit toujours en
// synchrone, la commande part en préparation et le paiement reste en attente
// jusqu'à la remise au client.
type CashOnDelivery struct{}

func NewCashOnDelivery() *CashOnDelivery { return &CashOnDelivery{} }

func (m *CashOnDelivery) Code() string { return "cod" }

func (m *CashOnDelivery) Initiate(_ context.Context, order *models.Order) (*Result, error) {
	log.Printf("💵 Paiement à la livraison accepté pour %s (%.0f₫)", order.OrderNumber, order.TotalAmount)
	return &Result{
		Method:        m.Code(),
		TransactionID: "COD-" + order.OrderNumber,
		Pending:       true,
	}, nil
}
