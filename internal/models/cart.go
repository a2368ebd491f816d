package models

// CartItem vit dans Redis (clé par utilisateur ou par token invité) jusqu'au
// checkout. Prix, nom et image sont figés au moment de l'ajout.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
}
