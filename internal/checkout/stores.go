package checkout

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

// Interfaces des collaborateurs persistants. Les implémentations ScyllaDB
// vivent dans internal/store ; les tests utilisent des doublures mémoire.

type SessionStore interface {
	Insert(ctx context.Context, s *models.CheckoutSession) error
	// Get retourne (nil, nil) si la session n'existe pas. Les items sont
	// chargés.
	Get(ctx context.Context, id gocql.UUID) (*models.CheckoutSession, error)
	// UpdateStatus est un compare-and-swap : la transition n'est appliquée
	// que si le statut courant vaut from.
	UpdateStatus(ctx context.Context, id gocql.UUID, from, to models.SessionStatus) (bool, error)
}

type OrderStore interface {
	// CreateFromSession insère la commande et ses lignes, en garantissant au
	// plus une commande par session. Si la session a déjà produit une
	// commande, retourne created=false et l'identifiant existant.
	CreateFromSession(ctx context.Context, o *models.Order, items []models.OrderItem) (created bool, existing gocql.UUID, err error)
	// Get retourne (nil, nil) si la commande n'existe pas. Les items sont
	// chargés.
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	// MarkPaid : CAS payment_status pending→paid (et status pending→
	// processing). applied=false si un autre appelant est passé avant.
	MarkPaid(ctx context.Context, id gocql.UUID) (applied bool, err error)
	// MarkProcessing : CAS status pending→processing, paiement inchangé
	// (contre-remboursement).
	MarkProcessing(ctx context.Context, id gocql.UUID) (applied bool, err error)
	// MarkFailed passe le paiement en failed et annule la commande. La ligne
	// est conservée pour l'audit, jamais supprimée.
	MarkFailed(ctx context.Context, id gocql.UUID) error
	AppendStatusHistory(ctx context.Context, h *models.OrderStatusHistory) error
	InsertPayment(ctx context.Context, p *models.Payment) error
}

type ProductStore interface {
	// GetProduct retourne (nil, nil) si le produit n'existe pas.
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	// DecrementStock décrémente le stock en une seule écriture
	// conditionnelle (pas de lecture-puis-écriture séparées) et retourne le
	// stock restant. *InsufficientStockError si la quantité manque. Le
	// produit est marqué out_of_stock quand le stock tombe à zéro.
	DecrementStock(ctx context.Context, id gocql.UUID, qty int) (remaining int, err error)
}

type CouponStore interface {
	// FindValidCoupon résout un coupon actif et dans sa fenêtre de validité.
	// (nil, nil) si aucun ne correspond.
	FindValidCoupon(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	// IncrementUsage incrémente le compteur d'utilisation de façon atomique,
	// en refusant de dépasser la limite. applied=false si la limite est
	// atteinte.
	IncrementUsage(ctx context.Context, id gocql.UUID) (applied bool, err error)
	RecordUsage(ctx context.Context, u *models.CouponUsage) error
}

// Mailer envoie la confirmation de commande. Best-effort : un échec d'envoi
// ne fait jamais échouer la commande.
type Mailer interface {
	SendOrderConfirmation(to string, order *models.Order) error
}
