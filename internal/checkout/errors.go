package checkout

import (
	"errors"
	"fmt"

	"github.com/gocql/gocql"
)

var (
	// ErrSessionNotFound : la session n'existe pas.
	ErrSessionNotFound = errors.New("session de paiement introuvable")

	// ErrSessionExpired : la session a dépassé son TTL ou n'est plus active.
	// Distinct de NotFound pour que l'appelant propose de repartir du panier.
	ErrSessionExpired = errors.New("session de paiement expirée")

	// ErrOrderNotFound : la commande n'existe pas.
	ErrOrderNotFound = errors.New("commande introuvable")
)

// ValidationError : champ manquant ou mal formé, toujours récupérable côté
// client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientStockError nomme le produit fautif et la quantité disponible :
// l'utilisateur doit savoir pourquoi son paiement a échoué.
type InsufficientStockError struct {
	ProductID   gocql.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %q : %d demandé, %d disponible",
		e.ProductName, e.Requested, e.Available)
}

// PaymentDeclinedError : la passerelle a refusé. La commande est annulée mais
// conservée pour l'audit.
type PaymentDeclinedError struct {
	Method string
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return fmt.Sprintf("paiement %s refusé : %s", e.Method, e.Reason)
}
