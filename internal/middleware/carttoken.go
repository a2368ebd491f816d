package middleware

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cartSessionName = "jh_cart"
	cartTokenKey    = "cart_token"
)

var cartCookies = sessions.NewCookieStore([]byte(os.Getenv("SESSION_SECRET")))

func init() {
	cartCookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
	}
}

// CartToken garantit un token de panier invité dans un cookie signé. Le token
// est opaque : il ne sert que de clé Redis, un cookie forgé sans la signature
// du serveur est rejeté par gorilla/sessions.
func CartToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := cartCookies.Get(c.Request, cartSessionName)

		token, ok := session.Values[cartTokenKey].(string)
		if !ok || token == "" {
			token = uuid.NewString()
			session.Values[cartTokenKey] = token
			if err := session.Save(c.Request, c.Writer); err != nil {
				c.Next()
				return
			}
		}

		c.Set("cart_token", token)
		c.Next()
	}
}
