package routes

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"johnhenry_back_end/internal/cart"
	"johnhenry_back_end/internal/checkout"
	"johnhenry_back_end/internal/database"
	"johnhenry_back_end/internal/handlers/payement"
	"johnhenry_back_end/internal/handlers/user"
	"johnhenry_back_end/internal/mailer"
	"johnhenry_back_end/internal/middleware"
	"johnhenry_back_end/internal/payment"
	"johnhenry_back_end/internal/pricing"
	"johnhenry_back_end/internal/store"
)

// Setup câble stores, services et handlers puis enregistre les routes.
func Setup(r *gin.Engine) error {
	origins := strings.Split(os.Getenv("CORS_ORIGINS"), ",")
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	productsSession, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	sessionStore := store.NewScyllaSessionStore(ordersSession)
	orderStore := store.NewScyllaOrderStore(ordersSession)
	productStore := store.NewScyllaProductStore(productsSession)
	couponStore := store.NewScyllaCouponStore(ordersSession)
	shippingStore := store.NewScyllaShippingStore(ordersSession)
	cartStore := cart.NewStore(database.Redis)

	pricer := pricing.NewEngine(shippingStore, couponStore)
	sessions := checkout.NewSessionManager(sessionStore, pricer)
	completion := checkout.NewCompletion(sessionStore, orderStore, productStore, couponStore, mailer.NewFromEnv())

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	momo := payment.NewMoMo(payment.MoMoConfig{
		Endpoint:    os.Getenv("MOMO_ENDPOINT"),
		PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
		AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
		SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
		ReturnURL:   baseURL + "/api/payment/momo/return",
		NotifyURL:   baseURL + "/api/payment/momo/notify",
	})
	registry := payment.NewRegistry(
		payment.NewCashOnDelivery(),
		payment.NewBankTransfer(os.Getenv("BANK_NAME"), os.Getenv("BANK_ACCOUNT_NAME"), os.Getenv("BANK_ACCOUNT_NUMBER")),
		payment.NewStripe(os.Getenv("STRIPE_SECRET_KEY"), baseURL),
		momo,
	)
	log.Printf("✅ Méthodes de paiement actives : %v", registry.Codes())

	payement.Init(payement.Deps{
		Sessions:   sessions,
		Completion: completion,
		Registry:   registry,
		Pricer:     pricer,
		Carts:      cartStore,
		Orders:     orderStore,
		Shipping:   shippingStore,
		MoMo:       momo,
	})
	user.Init(cartStore, productStore)

	api := r.Group("/api")
	api.Use(middleware.AuthOptional(), middleware.CartToken())

	// Panier
	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", user.GetCart)
		cartGroup.POST("/add", user.AddToCart)
		cartGroup.PUT("/update", user.UpdateCartItem)
		cartGroup.DELETE("/remove", user.RemoveFromCart)
		cartGroup.DELETE("", user.ClearCart)
		cartGroup.POST("/merge", middleware.AuthRequired(), user.MergeGuestCart)
	}

	// Checkout
	checkoutGroup := api.Group("/checkout")
	{
		checkoutGroup.GET("/shipping-methods", payement.GetShippingMethods)
		checkoutGroup.GET("/payment-methods", payement.GetPaymentMethods)
		checkoutGroup.POST("/coupon/validate", payement.ValidateCoupon)
		checkoutGroup.POST("/session", middleware.CheckoutRateLimit(), payement.CreateCheckoutSession)
		checkoutGroup.GET("/session/:id", payement.GetCheckoutSession)
		checkoutGroup.GET("/session/:id/status", payement.SessionStatus)
		checkoutGroup.POST("/session/:id/pay", middleware.PaymentRateLimit(), payement.ProcessPayment)
	}

	// Retours et notifications des passerelles
	paymentGroup := api.Group("/payment")
	{
		paymentGroup.POST("/stripe/webhook", payement.StripeWebhook)
		paymentGroup.GET("/stripe/return", payement.StripeReturn)
		paymentGroup.GET("/momo/return", payement.MoMoReturn)
		paymentGroup.POST("/momo/notify", payement.MoMoNotify)
	}

	// Commandes
	api.GET("/orders/:id", payement.OrderConfirmation)

	return nil
}
