package checkout

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"johnhenry_back_end/internal/models"
	"johnhenry_back_end/internal/pricing"
)

// SessionTTL : durée de vie d'une session de paiement. Au-delà, la session
// est morte pour toutes les opérations, que son statut stocké le dise ou non.
const SessionTTL = time.Hour

type CreateSessionInput struct {
	UserID          string
	Email           string
	Lines           []models.CartItem
	ShippingAddress models.Address
	BillingAddress  models.Address
	ShippingMethod  string
	CouponCode      string
	Notes           string
}

// SessionManager crée et relit les sessions de paiement. Les totaux sont
// calculés une seule fois à la création puis figés.
type SessionManager struct {
	sessions SessionStore
	pricer   *pricing.Engine
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(sessions SessionStore, pricer *pricing.Engine) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		pricer:   pricer,
		ttl:      SessionTTL,
		now:      time.Now,
	}
}

// CreateSession valide le panier et l'adresse, calcule les totaux via le
// moteur de tarification et persiste la session avec un instantané de chaque
// ligne.
func (m *SessionManager) CreateSession(ctx context.Context, in CreateSessionInput) (*models.CheckoutSession, error) {
	if len(in.Lines) == 0 {
		return nil, &ValidationError{Field: "cart", Message: "le panier est vide"}
	}
	if err := validateAddress(&in.ShippingAddress); err != nil {
		return nil, err
	}

	quote, err := m.pricer.Quote(ctx, in.Lines, in.ShippingMethod, in.CouponCode)
	if err != nil {
		return nil, err
	}

	shippingJSON, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billing := in.BillingAddress
	if billing == (models.Address{}) {
		billing = in.ShippingAddress
	}
	billingJSON, err := json.Marshal(billing)
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &models.CheckoutSession{
		ID:              gocql.UUID(uuid.New()),
		UserID:          in.UserID,
		Email:           in.Email,
		Status:          models.SessionActive,
		Subtotal:        quote.Subtotal,
		ShippingFee:     quote.ShippingFee,
		Tax:             quote.Tax,
		DiscountAmount:  quote.TotalDiscount,
		TotalAmount:     quote.GrandTotal,
		ShippingMethod:  in.ShippingMethod,
		CouponCode:      quote.CouponCode,
		ShippingAddress: string(shippingJSON),
		BillingAddress:  string(billingJSON),
		Notes:           in.Notes,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.ttl),
	}

	for _, line := range in.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, &ValidationError{Field: "cart", Message: "identifiant produit invalide : " + line.ProductID}
		}
		session.Items = append(session.Items, models.CheckoutSessionItem{
			ID:           gocql.UUID(uuid.New()),
			SessionID:    session.ID,
			ProductID:    gocql.UUID(productID),
			Quantity:     line.Quantity,
			UnitPrice:    line.Price,
			TotalPrice:   line.Price * float64(line.Quantity),
			Size:         line.Size,
			Color:        line.Color,
			ProductName:  line.Name,
			ProductImage: line.ImageURL,
		})
	}

	if err := m.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("🧾 Session de paiement créée : %s (%.0f₫, %d articles)",
		session.ID, session.TotalAmount, len(session.Items))
	return session, nil
}

// Now expose l'horloge du manager, la même qui tranche l'expiration.
func (m *SessionManager) Now() time.Time {
	return m.now()
}

// GetActiveSession retourne une session utilisable pour un paiement.
// L'expiration est dérivée de l'horloge à chaque lecture : une session dont
// le statut stocké dit encore "active" mais dont le TTL est dépassé est
// expirée, aucun balayage en arrière-plan n'est nécessaire.
func (m *SessionManager) GetActiveSession(ctx context.Context, id gocql.UUID) (*models.CheckoutSession, error) {
	session, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Expired(m.now()) || session.Status != models.SessionActive {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// GetSession relit une session sans condition d'utilisabilité (suivi de
// statut côté client).
func (m *SessionManager) GetSession(ctx context.Context, id gocql.UUID) (*models.CheckoutSession, error) {
	session, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// MarkProcessing fige la session au démarrage d'une tentative de paiement.
// CAS active→processing : si un autre paiement a déjà pris la session, la
// tentative est refusée.
func (m *SessionManager) MarkProcessing(ctx context.Context, id gocql.UUID) error {
	applied, err := m.sessions.UpdateStatus(ctx, id, models.SessionActive, models.SessionProcessing)
	if err != nil {
		return err
	}
	if !applied {
		return ErrSessionExpired
	}
	return nil
}

func validateAddress(a *models.Address) error {
	required := []struct {
		field, value string
	}{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"street", a.Street},
		{"ward", a.Ward},
		{"district", a.District},
		{"city", a.City},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "champ d'adresse obligatoire"}
		}
	}
	return nil
}
