package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"johnhenry_back_end/internal/cart"
	"johnhenry_back_end/internal/models"
	"johnhenry_back_end/internal/store"
)

var (
	carts    *cart.Store
	products *store.ScyllaProductStore
)

// Init câble les dépendances du package.
func Init(cartStore *cart.Store, productStore *store.ScyllaProductStore) {
	carts = cartStore
	products = productStore
}

// cartKey : utilisateur authentifié d'abord, token invité sinon.
func cartKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return cart.KeyForUser(userID)
	}
	if token := c.GetString("cart_token"); token != "" {
		return cart.KeyForGuest(token)
	}
	return ""
}

func GetCart(c *gin.Context) {
	key := cartKey(c)
	if key == "" {
		c.JSON(http.StatusOK, gin.H{"items": []models.CartItem{}})
		return
	}

	items, err := carts.Get(context.Background(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(c *gin.Context) {
	key := cartKey(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier introuvable"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx := context.Background()
	product, err := products.GetProduct(ctx, gocql.UUID(productID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}
	if product == nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if product.StockQuantity < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"product":   product.Name,
			"available": product.StockQuantity,
			"requested": input.Quantity,
		})
		return
	}

	// Prix, nom et image figés à l'ajout.
	items, err := carts.AddItem(ctx, key, models.CartItem{
		ProductID: input.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  input.Quantity,
		Size:      input.Size,
		Color:     input.Color,
		ImageURL:  product.FeaturedImageURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

//
// 🟡 PUT /api/cart/update
//
func UpdateCartItem(c *gin.Context) {
	key := cartKey(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier introuvable"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	items, err := carts.UpdateQuantity(context.Background(), key,
		input.ProductID, input.Size, input.Color, input.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

//
// 🔴 DELETE /api/cart/remove
//
func RemoveFromCart(c *gin.Context) {
	key := cartKey(c)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier introuvable"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	items, err := carts.UpdateQuantity(context.Background(), key,
		input.ProductID, input.Size, input.Color, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func ClearCart(c *gin.Context) {
	key := cartKey(c)
	if key == "" {
		c.Status(http.StatusNoContent)
		return
	}

	if err := carts.Clear(context.Background(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vidage panier"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MergeGuestCart déverse le panier invité dans celui de l'utilisateur qui
// vient de se connecter.
func MergeGuestCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}
	token := c.GetString("cart_token")
	if token == "" {
		GetCart(c)
		return
	}

	items, err := carts.Merge(context.Background(), cart.KeyForGuest(token), cart.KeyForUser(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur fusion panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
