package payement

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"johnhenry_back_end/internal/pricing"
)

// GetShippingMethods retourne les méthodes de livraison actives avec le tarif
// effectif pour le sous-total courant (paliers express et livraison offerte
// inclus).
func GetShippingMethods(c *gin.Context) {
	var subtotal float64
	if raw := c.Query("subtotal"); raw != "" {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			subtotal = n
		}
	}

	methods, err := shipping.ListActiveMethods(context.Background())
	if err != nil {
		log.Println("❌ Lecture méthodes de livraison échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	type option struct {
		Code          string  `json:"code"`
		Name          string  `json:"name"`
		Description   string  `json:"description,omitempty"`
		Cost          float64 `json:"cost"`
		EffectiveCost float64 `json:"effective_cost"`
		EstimatedDays int     `json:"estimated_days"`
	}

	options := make([]option, 0, len(methods))
	for _, m := range methods {
		effective := m.Cost
		switch {
		case m.Code == "EXPRESS":
			effective = pricing.ExpressFee(m.Cost, subtotal)
		case subtotal >= pricing.FreeShippingThreshold:
			effective = 0
		case m.MinOrderAmount != nil && subtotal >= *m.MinOrderAmount:
			effective = 0
		}
		options = append(options, option{
			Code:          m.Code,
			Name:          m.Name,
			Description:   m.Description,
			Cost:          m.Cost,
			EffectiveCost: effective,
			EstimatedDays: m.EstimatedDays,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"methods":                 options,
		"free_shipping_threshold": pricing.FreeShippingThreshold,
		"subtotal":                subtotal,
	})
}

// GetPaymentMethods liste les méthodes de paiement disponibles.
func GetPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": registry.Codes()})
}
