package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"johnhenry_back_end/internal/models"
)

// Completion est l'entonnoir unique par lequel une session payée devient une
// commande durable. Toutes les voies de paiement (COD, virement, passerelles)
// passent par ici ; les effets de bord (stock, coupon, historique, e-mail) ne
// s'exécutent qu'une seule fois par commande, quel que soit le nombre
// d'appels concurrents ou rejoués.
type Completion struct {
	sessions SessionStore
	orders   OrderStore
	products ProductStore
	coupons  CouponStore
	mailer   Mailer
	now      func() time.Time
}

func NewCompletion(sessions SessionStore, orders OrderStore, products ProductStore, coupons CouponStore, mailer Mailer) *Completion {
	return &Completion{
		sessions: sessions,
		orders:   orders,
		products: products,
		coupons:  coupons,
		mailer:   mailer,
		now:      time.Now,
	}
}

// CreateOrderFromSession copie les totaux figés et les instantanés d'articles
// de la session, tels quels : aucun prix catalogue courant n'est relu, les
// modifications du catalogue entre création de session et paiement sont sans
// effet. Au plus une commande par session : un second appel retourne la
// commande existante.
func (c *Completion) CreateOrderFromSession(ctx context.Context, session *models.CheckoutSession) (*models.Order, error) {
	if session.Expired(c.now()) {
		return nil, ErrSessionExpired
	}

	now := c.now()
	order := &models.Order{
		ID:              gocql.UUID(uuid.New()),
		OrderNumber:     GenerateOrderNumber(now),
		UserID:          session.UserID,
		SessionID:       session.ID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   session.PaymentMethod,
		Subtotal:        session.Subtotal,
		ShippingFee:     session.ShippingFee,
		Tax:             session.Tax,
		DiscountAmount:  session.DiscountAmount,
		TotalAmount:     session.TotalAmount,
		CouponCode:      session.CouponCode,
		ShippingAddress: session.ShippingAddress,
		BillingAddress:  session.BillingAddress,
		Email:           session.Email,
		Notes:           session.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderItem, 0, len(session.Items))
	for _, it := range session.Items {
		items = append(items, models.OrderItem{
			ID:           gocql.UUID(uuid.New()),
			OrderID:      order.ID,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.TotalPrice,
			Size:         it.Size,
			Color:        it.Color,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
		})
	}
	order.Items = items

	created, existing, err := c.orders.CreateFromSession(ctx, order, items)
	if err != nil {
		return nil, err
	}
	if !created {
		// La session a déjà produit une commande (relance après crash,
		// double clic). On la retourne telle quelle.
		log.Printf("🔁 Session %s déjà convertie en commande %s", session.ID, existing)
		return c.orders.Get(ctx, existing)
	}

	log.Printf("📦 Commande %s créée depuis la session %s (%.0f₫)",
		order.OrderNumber, session.ID, order.TotalAmount)
	return order, nil
}

// CompleteOrder enregistre un paiement confirmé par une passerelle. Le garde
// d'idempotence est le CAS pending→paid sur le statut de paiement : le
// premier appelant l'emporte et déroule les effets de bord, tout appel
// concurrent ou rejoué constate le CAS perdu et devient un no-op — jamais de
// double décrément de stock ni de double usage de coupon.
func (c *Completion) CompleteOrder(ctx context.Context, order *models.Order, transactionID, gatewayResponse string) error {
	applied, err := c.orders.MarkPaid(ctx, order.ID)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("🔁 Commande %s déjà payée, complétion ignorée", order.OrderNumber)
		return nil
	}

	order.PaymentStatus = models.PaymentPaid
	order.Status = models.OrderProcessing

	// La session source est close, au mieux (elle a pu expirer entre-temps).
	if order.SessionID != (gocql.UUID{}) {
		if _, err := c.sessions.UpdateStatus(ctx, order.SessionID, models.SessionProcessing, models.SessionCompleted); err != nil {
			log.Printf("⚠️ Session %s non clôturée : %v", order.SessionID, err)
		}
	}

	c.applySideEffects(ctx, order, &models.Payment{
		ID:            gocql.UUID(uuid.New()),
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		Status:        "completed",
		Amount:        order.TotalAmount,
		TransactionID: transactionID,
	}, gatewayResponse)

	log.Printf("✅ Commande %s payée (transaction %s)", order.OrderNumber, transactionID)
	return nil
}

// ConfirmCashOnDelivery valide une commande contre-remboursement : la
// commande part en préparation, le paiement reste pending jusqu'à la
// livraison. Même discipline d'idempotence que CompleteOrder, via le CAS sur
// le statut de commande.
func (c *Completion) ConfirmCashOnDelivery(ctx context.Context, order *models.Order, transactionID string) error {
	applied, err := c.orders.MarkProcessing(ctx, order.ID)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("🔁 Commande %s déjà confirmée, appel ignoré", order.OrderNumber)
		return nil
	}

	order.Status = models.OrderProcessing

	if order.SessionID != (gocql.UUID{}) {
		if _, err := c.sessions.UpdateStatus(ctx, order.SessionID, models.SessionProcessing, models.SessionCompleted); err != nil {
			log.Printf("⚠️ Session %s non clôturée : %v", order.SessionID, err)
		}
	}

	c.applySideEffects(ctx, order, &models.Payment{
		ID:            gocql.UUID(uuid.New()),
		OrderID:       order.ID,
		PaymentMethod: order.PaymentMethod,
		Status:        "pending",
		Amount:        order.TotalAmount,
		TransactionID: transactionID,
	}, "")

	log.Printf("✅ Commande %s confirmée (contre-remboursement)", order.OrderNumber)
	return nil
}

// FailOrder marque le paiement refusé et annule la commande. La ligne est
// conservée pour l'audit, jamais supprimée. Aucun stock ni coupon n'a été
// consommé : le client peut retenter sans compensation.
func (c *Completion) FailOrder(ctx context.Context, order *models.Order, reason string) error {
	if !order.Status.CanTransitionTo(models.OrderCancelled) {
		return fmt.Errorf("commande %s non annulable depuis l'état %q", order.OrderNumber, order.Status)
	}
	if err := c.orders.MarkFailed(ctx, order.ID); err != nil {
		return err
	}
	order.PaymentStatus = models.PaymentFailed
	order.Status = models.OrderCancelled

	if order.SessionID != (gocql.UUID{}) {
		if _, err := c.sessions.UpdateStatus(ctx, order.SessionID, models.SessionProcessing, models.SessionCancelled); err != nil {
			log.Printf("⚠️ Session %s non annulée : %v", order.SessionID, err)
		}
	}

	if err := c.orders.AppendStatusHistory(ctx, &models.OrderStatusHistory{
		ID:        gocql.UUID(uuid.New()),
		OrderID:   order.ID,
		Status:    models.OrderCancelled,
		Notes:     reason,
		CreatedAt: c.now(),
	}); err != nil {
		log.Printf("⚠️ Historique non enregistré pour %s : %v", order.OrderNumber, err)
	}

	log.Printf("❌ Commande %s annulée : %s", order.OrderNumber, reason)
	return nil
}

// CheckStock vérifie la disponibilité de chaque ligne avant d'initier le
// paiement. Le décrément réel n'a lieu qu'après confirmation.
func (c *Completion) CheckStock(ctx context.Context, items []models.OrderItem) error {
	for _, it := range items {
		product, err := c.products.GetProduct(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("produit introuvable : %s", it.ProductID)
		}
		if product.StockQuantity < it.Quantity {
			return &InsufficientStockError{
				ProductID:   it.ProductID,
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   it.Quantity,
			}
		}
	}
	return nil
}

// applySideEffects déroule les effets de bord d'une complétion gagnée :
// historique, coupon, stock, trace de paiement, e-mail. L'appelant détient
// déjà le CAS — cette fonction ne doit jamais être appelée deux fois pour la
// même commande.
func (c *Completion) applySideEffects(ctx context.Context, order *models.Order, payment *models.Payment, gatewayResponse string) {
	now := c.now()

	if err := c.orders.AppendStatusHistory(ctx, &models.OrderStatusHistory{
		ID:        gocql.UUID(uuid.New()),
		OrderID:   order.ID,
		Status:    models.OrderProcessing,
		Notes:     "Commande confirmée et transmise à la préparation",
		CreatedAt: now,
	}); err != nil {
		log.Printf("⚠️ Historique non enregistré pour %s : %v", order.OrderNumber, err)
	}

	if order.CouponCode != "" {
		c.consumeCoupon(ctx, order, now)
	}

	c.decrementStock(ctx, order)

	payment.GatewayResponse = gatewayResponse
	payment.ProcessedAt = &now
	payment.CreatedAt = now
	if err := c.orders.InsertPayment(ctx, payment); err != nil {
		log.Printf("⚠️ Trace de paiement non enregistrée pour %s : %v", order.OrderNumber, err)
	}

	// Confirmation par e-mail, best-effort : un échec d'envoi ne doit jamais
	// faire échouer la commande.
	if c.mailer != nil && order.Email != "" {
		go func(to string, o models.Order) {
			if err := c.mailer.SendOrderConfirmation(to, &o); err != nil {
				log.Printf("❌ Envoi e-mail de confirmation échoué pour %s : %v", o.OrderNumber, err)
			} else {
				log.Printf("📧 Confirmation envoyée à %s pour %s", to, o.OrderNumber)
			}
		}(order.Email, *order)
	}
}

func (c *Completion) consumeCoupon(ctx context.Context, order *models.Order, now time.Time) {
	coupon, err := c.coupons.FindValidCoupon(ctx, order.CouponCode, now)
	if err != nil || coupon == nil {
		log.Printf("⚠️ Coupon %q introuvable à la complétion de %s", order.CouponCode, order.OrderNumber)
		return
	}

	applied, err := c.coupons.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		log.Printf("⚠️ Incrément d'usage du coupon %s échoué : %v", coupon.Code, err)
		return
	}
	if !applied {
		log.Printf("⚠️ Coupon %s épuisé à la complétion de %s", coupon.Code, order.OrderNumber)
		return
	}

	if err := c.coupons.RecordUsage(ctx, &models.CouponUsage{
		ID:             gocql.UUID(uuid.New()),
		CouponID:       coupon.ID,
		UserID:         order.UserID,
		OrderID:        order.ID,
		DiscountAmount: order.DiscountAmount,
		UsedAt:         now,
	}); err != nil {
		log.Printf("⚠️ Trace d'usage du coupon %s non enregistrée : %v", coupon.Code, err)
	}
}

func (c *Completion) decrementStock(ctx context.Context, order *models.Order) {
	for _, it := range order.Items {
		remaining, err := c.products.DecrementStock(ctx, it.ProductID, it.Quantity)
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			// Le paiement est déjà encaissé : on signale, la préparation
			// arbitrera.
			log.Printf("⚠️ %v (commande %s)", stockErr, order.OrderNumber)
			continue
		}
		if err != nil {
			log.Printf("⚠️ Décrément de stock échoué pour %s : %v", it.ProductID, err)
			continue
		}
		if remaining <= 0 {
			log.Printf("📉 Produit %s en rupture de stock", it.ProductID)
		}
	}
}

// GenerateOrderNumber produit un numéro lisible : JH + horodatage + 4
// chiffres aléatoires.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("JH%s%04d", now.Format("20060102150405"), rand.Intn(9000)+1000)
}
