package payement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	checkoutsession "github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"

	"johnhenry_back_end/internal/checkout"
	"johnhenry_back_end/internal/models"
	"johnhenry_back_end/internal/payment"
)

// ProcessPayment initie un paiement sur une session active : vérification du
// stock, verrouillage de la session, création de la commande puis dispatch
// vers la méthode choisie. Si la passerelle refuse, la commande fraîche est
// annulée — aucun stock ni coupon n'a encore bougé.
func ProcessPayment(c *gin.Context) {
	var req struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID session invalide"})
		return
	}

	method, err := registry.Resolve(req.PaymentMethod)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Phương thức thanh toán không được hỗ trợ",
			"methods": registry.Codes(),
		})
		return
	}

	ctx := context.Background()
	session, err := sessionManager.GetActiveSession(ctx, gocql.UUID(id))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	// Vérification du stock avant de toucher à quoi que ce soit.
	items := make([]models.OrderItem, 0, len(session.Items))
	for _, it := range session.Items {
		items = append(items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if err := completion.CheckStock(ctx, items); err != nil {
		var stockErr *checkout.InsufficientStockError
		if errors.As(err, &stockErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Stock insuffisant",
				"product":   stockErr.ProductName,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			})
			return
		}
		log.Println("❌ Vérification stock échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	// La session ne peut être prise que par un seul paiement à la fois.
	if err := sessionManager.MarkProcessing(ctx, session.ID); err != nil {
		respondSessionError(c, err)
		return
	}
	session.PaymentMethod = method.Code()

	order, err := completion.CreateOrderFromSession(ctx, session)
	if err != nil {
		log.Println("❌ Création de commande échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	result, err := method.Initiate(ctx, order)
	if err != nil {
		// Compensation : la commande est annulée, le client peut retenter.
		_ = completion.FailOrder(ctx, order, err.Error())
		var gatewayErr *payment.GatewayError
		if errors.As(err, &gatewayErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Cổng thanh toán tạm thời không khả dụng, vui lòng thử lại"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur initiation paiement"})
		return
	}

	if method.Code() == "cod" {
		if err := completion.ConfirmCashOnDelivery(ctx, order, result.TransactionID); err != nil {
			log.Println("❌ Confirmation COD échouée:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur confirmation commande"})
			return
		}
	}

	// Le panier a rempli son office.
	if key := cartKey(c); key != "" {
		if err := carts.Clear(ctx, key); err != nil {
			log.Printf("⚠️ Panier %s non vidé: %v", key, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"payment":      result,
	})
}

// StripeWebhook : la source de vérité pour les paiements Stripe. Rejouable
// sans risque, la complétion est idempotente.
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	if event.Type != "checkout.session.completed" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		c.Status(http.StatusOK)
		return
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		log.Println("❌ Erreur décodage CheckoutSession:", err)
		c.Status(http.StatusOK)
		return
	}

	if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Printf("ℹ️ Session Stripe %s non payée (%s)", cs.ID, cs.PaymentStatus)
		c.Status(http.StatusOK)
		return
	}

	if err := completeStripeOrder(cs.Metadata["order_id"], cs.ID, string(event.Data.Raw)); err != nil {
		log.Println("❌ Complétion via webhook échouée:", err)
		// 500 pour que Stripe rejoue l'événement.
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

// StripeReturn : retour navigateur après la page Stripe. On ne croit jamais
// le navigateur sur parole : le statut est relu chez Stripe avant complétion.
func StripeReturn(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id manquant"})
		return
	}

	if c.Query("cancelled") == "1" {
		order, err := findOrder(orderID)
		if err != nil || order == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		if order.PaymentStatus == models.PaymentPending {
			_ = completion.FailOrder(context.Background(), order, "Paiement annulé par le client")
		}
		c.JSON(http.StatusOK, gin.H{"status": "cancelled", "order_number": order.OrderNumber})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id manquant"})
		return
	}

	cs, err := checkoutsession.Get(sessionID, nil)
	if err != nil {
		log.Println("❌ Relecture session Stripe échouée:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Vérification du paiement impossible"})
		return
	}

	if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
		return
	}

	if err := completeStripeOrder(orderID, cs.ID, ""); err != nil {
		log.Println("❌ Complétion via retour échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	order, err := findOrder(orderID)
	if err != nil || order == nil {
		c.JSON(http.StatusOK, gin.H{"status": "paid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid", "order_number": order.OrderNumber})
}

// MoMoReturn : retour navigateur après paiement MoMo. Signature vérifiée,
// resultCode arbitré.
func MoMoReturn(c *gin.Context) {
	handleMoMoCallback(c, c.Request.URL.Query(), true)
}

// MoMoNotify : IPN serveur-à-serveur, format JSON. Même arbitrage que le
// retour navigateur.
func MoMoNotify(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
		return
	}

	v := url.Values{}
	for key, value := range payload {
		switch t := value.(type) {
		case string:
			v.Set(key, t)
		case float64:
			v.Set(key, formatNumber(t))
		case bool:
			v.Set(key, fmt.Sprintf("%t", t))
		}
	}

	handleMoMoCallback(c, v, false)
}

func handleMoMoCallback(c *gin.Context, v url.Values, browser bool) {
	if !momoGateway.VerifyCallback(v) {
		log.Println("❌ Signature MoMo invalide")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	order, err := findOrder(v.Get("orderId"))
	if err != nil || order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	ctx := context.Background()
	if payment.Succeeded(v) {
		if err := completion.CompleteOrder(ctx, order, v.Get("transId"), v.Encode()); err != nil {
			log.Println("❌ Complétion MoMo échouée:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}
		if browser {
			c.JSON(http.StatusOK, gin.H{"status": "paid", "order_number": order.OrderNumber})
		} else {
			c.Status(http.StatusNoContent)
		}
		return
	}

	if order.PaymentStatus == models.PaymentPending {
		_ = completion.FailOrder(ctx, order, "MoMo: "+v.Get("message"))
	}
	if browser {
		c.JSON(http.StatusOK, gin.H{"status": "failed", "message": v.Get("message")})
	} else {
		c.Status(http.StatusNoContent)
	}
}

// OrderConfirmation : récapitulatif d'une commande (page de remerciement).
func OrderConfirmation(c *gin.Context) {
	order, err := findOrder(c.Param("id"))
	if err != nil {
		log.Println("❌ Lecture commande échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	// Un utilisateur authentifié ne voit que ses commandes.
	if userID := c.GetString("user_id"); userID != "" && order.UserID != "" && order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Commande non autorisée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func completeStripeOrder(orderID, transactionID, gatewayResponse string) error {
	order, err := findOrder(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("commande %q introuvable", orderID)
	}
	return completion.CompleteOrder(context.Background(), order, transactionID, gatewayResponse)
}

func findOrder(id string) (*models.Order, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	return orders.Get(context.Background(), gocql.UUID(parsed))
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
