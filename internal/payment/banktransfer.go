package payment

import (
	"context"
	"fmt"
	"log"

	"johnhenry_back_end/internal/models"
)

// BankTransfer : virement bancaire manuel. Les coordonnées du compte et la
// référence à rappeler sont retournées au client ; un opérateur confirmera le
// paiement à réception du virement.
type BankTransfer struct {
	BankName      string
	AccountName   string
	AccountNumber string
}

func NewBankTransfer(bankName, accountName, accountNumber string) *BankTransfer {
	return &BankTransfer{
		BankName:      bankName,
		AccountName:   accountName,
		AccountNumber: accountNumber,
	}
}

func (m *BankTransfer) Code() string { return "bank_transfer" }

func (m *BankTransfer) Initiate(_ context.Context, order *models.Order) (*Result, error) {
	instructions := fmt.Sprintf(
		"Vui lòng chuyển khoản %.0f₫ đến %s, %s (%s). Nội dung chuyển khoản: %s",
		order.TotalAmount, m.BankName, m.AccountNumber, m.AccountName, order.OrderNumber)

	log.Printf("🏦 Virement bancaire initié pour %s", order.OrderNumber)
	return &Result{
		Method:        m.Code(),
		TransactionID: "BT-" + order.OrderNumber,
		Instructions:  instructions,
		Pending:       true,
	}, nil
}
