package payment

import (
	"context"
	"fmt"
	"sort"

	"johnhenry_back_end/internal/models"
)

// Result décrit ce que le client doit faire ensuite après l'initiation d'un
// paiement : rien (méthodes synchrones), suivre une redirection, ou scanner
// un QR code.
type Result struct {
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id,omitempty"`
	// RedirectURL : page de paiement hébergée par la passerelle.
	RedirectURL string `json:"redirect_url,omitempty"`
	// QRCodeBase64 : PNG encodé en base64, affiché au client pour le
	// paiement par portefeuille mobile.
	QRCodeBase64 string `json:"qr_code,omitempty"`
	Deeplink     string `json:"deeplink,omitempty"`
	// Instructions : consignes affichées au client (virement bancaire).
	Instructions string `json:"instructions,omitempty"`
	// Pending : la confirmation arrivera plus tard (webhook, retour
	// passerelle ou livraison). false = payé immédiatement.
	Pending bool `json:"pending"`
	// Raw : réponse brute de la passerelle, conservée pour l'audit.
	Raw string `json:"-"`
}

// Method est une capacité de paiement. Chaque implémentation sait initier un
// paiement pour une commande déjà créée ; elle ne touche jamais au stock ni
// aux coupons.
type Method interface {
	Code() string
	Initiate(ctx context.Context, order *models.Order) (*Result, error)
}

// UnknownMethodError : code de méthode non enregistré.
type UnknownMethodError struct {
	Code string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("méthode de paiement inconnue : %q", e.Code)
}

// GatewayError : la passerelle est injoignable ou a répondu en erreur. La
// commande fraîche doit être annulée par l'appelant.
type GatewayError struct {
	Method  string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("passerelle %s indisponible : %s", e.Method, e.Message)
}

// Registry résout une méthode de paiement par code. Ajouter une méthode =
// l'enregistrer, aucun switch à modifier.
type Registry struct {
	methods map[string]Method
}

func NewRegistry(methods ...Method) *Registry {
	r := &Registry{methods: make(map[string]Method)}
	for _, m := range methods {
		r.Register(m)
	}
	return r
}

func (r *Registry) Register(m Method) {
	r.methods[m.Code()] = m
}

// Resolve retourne la méthode enregistrée pour ce code.
func (r *Registry) Resolve(code string) (Method, error) {
	m, ok := r.methods[code]
	if !ok {
		return nil, &UnknownMethodError{Code: code}
	}
	return m, nil
}

// Codes liste les méthodes disponibles, triées.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.methods))
	for code := range r.methods {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
