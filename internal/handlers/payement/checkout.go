package payement

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"johnhenry_back_end/internal/checkout"
	"johnhenry_back_end/internal/models"
)

// CreateCheckoutSession fige le panier courant en une session de paiement
// avec totaux calculés. Invités et utilisateurs authentifiés passent par le
// même endpoint.
func CreateCheckoutSession(c *gin.Context) {
	var req struct {
		Email           string         `json:"email"`
		ShippingAddress models.Address `json:"shipping_address" binding:"required"`
		BillingAddress  models.Address `json:"billing_address"`
		ShippingMethod  string         `json:"shipping_method" binding:"required"`
		CouponCode      string         `json:"coupon_code"` // Optionnel
		Notes           string         `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	email := req.Email
	if email == "" {
		email = c.GetString("email")
	}
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse e-mail requise"})
		return
	}

	key := cartKey(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier introuvable"})
		return
	}

	ctx := context.Background()
	lines, err := carts.Get(ctx, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	session, err := sessionManager.CreateSession(ctx, checkout.CreateSessionInput{
		UserID:          userID,
		Email:           email,
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		ShippingMethod:  req.ShippingMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	})
	if err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
			return
		}
		log.Println("❌ Création de session échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":    session,
		"expires_at": session.ExpiresAt,
	})
}

// GetCheckoutSession relit une session pour affichage (page de paiement).
func GetCheckoutSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID session invalide"})
		return
	}

	session, err := sessionManager.GetActiveSession(context.Background(), gocql.UUID(id))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SessionStatus : endpoint de suivi pour le client (polling pendant un
// paiement par QR ou une redirection). Toujours accessible, même sur une
// session expirée.
func SessionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID session invalide"})
		return
	}

	session, err := sessionManager.GetSession(context.Background(), gocql.UUID(id))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	status := "pending"
	switch {
	case session.Status == models.SessionCompleted:
		status = "paid"
	case session.Status == models.SessionCancelled:
		status = "cancelled"
	case session.Expired(sessionManager.Now()) && session.Status != models.SessionCompleted:
		status = "expired"
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"status":     status,
		"expires_at": session.ExpiresAt,
	})
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session introuvable"})
	case errors.Is(err, checkout.ErrSessionExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Session expirée, veuillez repasser par le panier"})
	default:
		log.Println("❌ Erreur session:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}
