package payement

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateCoupon vérifie un code et retourne la remise qu'il produirait sur
// le panier courant. Un code invalide n'est jamais une erreur serveur : la
// réponse explique pourquoi il ne s'applique pas.
func ValidateCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
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

	subtotal := calcSubtotal(lines)
	validation, err := pricer.ValidateCoupon(ctx, req.Code, subtotal)
	if err != nil {
		log.Println("❌ Validation coupon échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, validation)
}
