package payement

import (
	"johnhenry_back_end/internal/cart"
	"johnhenry_back_end/internal/checkout"
	"johnhenry_back_end/internal/models"
	"johnhenry_back_end/internal/payment"
	"johnhenry_back_end/internal/pricing"
	"johnhenry_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// Dépendances du package, câblées une fois au démarrage par routes.Setup.
var (
	sessionManager *checkout.SessionManager
	completion     *checkout.Completion
	registry       *payment.Registry
	pricer         *pricing.Engine
	carts          *cart.Store
	orders         checkout.OrderStore
	shipping       *store.ScyllaShippingStore
	momoGateway    *payment.MoMo
)

// Deps regroupe tout ce dont les handlers de paiement ont besoin.
type Deps struct {
	Sessions   *checkout.SessionManager
	Completion *checkout.Completion
	Registry   *payment.Registry
	Pricer     *pricing.Engine
	Carts      *cart.Store
	Orders     checkout.OrderStore
	Shipping   *store.ScyllaShippingStore
	MoMo       *payment.MoMo
}

// Init câble les dépendances du package.
func Init(d Deps) {
	sessionManager = d.Sessions
	completion = d.Completion
	registry = d.Registry
	pricer = d.Pricer
	carts = d.Carts
	orders = d.Orders
	shipping = d.Shipping
	momoGateway = d.MoMo
}

// cartKey résout la clé Redis du panier : utilisateur authentifié d'abord,
// token invité sinon.
func cartKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return cart.KeyForUser(userID)
	}
	if token := c.GetString("cart_token"); token != "" {
		return cart.KeyForGuest(token)
	}
	return ""
}

// calcSubtotal calcule le sous-total d'un panier
func calcSubtotal(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
