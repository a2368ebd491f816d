package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"johnhenry_back_end/internal/database"
)

const (
	// Limites par endpoint
	PaymentMaxAttempts  = 10 // tentatives de paiement par fenêtre
	CheckoutMaxAttempts = 30 // créations de session par fenêtre

	// Durées de fenêtre
	PaymentWindow  = 10 * time.Minute
	CheckoutWindow = 10 * time.Minute
)

// PaymentRateLimit limite les initiations de paiement par utilisateur (ou par
// IP pour les invités). Fenêtre fixe dans Redis : INCR + EXPIRE à la première
// tentative.
func PaymentRateLimit() gin.HandlerFunc {
	return rateLimit("payment_attempts", PaymentMaxAttempts, PaymentWindow)
}

// CheckoutRateLimit limite la création de sessions de paiement.
func CheckoutRateLimit() gin.HandlerFunc {
	return rateLimit("checkout_attempts", CheckoutMaxAttempts, CheckoutWindow)
}

func rateLimit(prefix string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetString("user_id")
		if caller == "" {
			caller = c.ClientIP()
		}
		key := fmt.Sprintf("%s:%s", prefix, caller)

		ctx := context.Background()
		count, err := database.Redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis indisponible : on laisse passer plutôt que de bloquer
			// tous les paiements.
			c.Next()
			return
		}
		if count == 1 {
			database.Redis.Expire(ctx, key, window)
		}

		if count > int64(max) {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Quá nhiều yêu cầu, vui lòng thử lại sau",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
