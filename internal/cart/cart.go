package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"johnhenry_back_end/internal/models"
)

// GuestCartTTL : durée de vie d'un panier invité dans Redis. Les paniers
// authentifiés ne expirent pas.
const GuestCartTTL = 7 * 24 * time.Hour

// Store : paniers dans Redis, une clé par utilisateur ou par token invité,
// sérialisés en JSON. Prix, nom et image sont figés à l'ajout.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// KeyForUser : panier d'un utilisateur authentifié.
func KeyForUser(userID string) string {
	return "cart:" + userID
}

// KeyForGuest : panier invité, identifié par le token du cookie signé.
func KeyForGuest(token string) string {
	return "cart:guest:" + token
}

// Get retourne le panier, vide si la clé n'existe pas.
func (s *Store) Get(ctx context.Context, key string) ([]models.CartItem, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Save(ctx context.Context, key string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if isGuestKey(key) {
		ttl = GuestCartTTL
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// AddItem fusionne avec la ligne existante (même produit, taille et couleur)
// ou en ajoute une nouvelle.
func (s *Store) AddItem(ctx context.Context, key string, item models.CartItem) ([]models.CartItem, error) {
	items, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	merged := false
	for i, existing := range items {
		if sameLine(existing, item) {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.Save(ctx, key, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity fixe la quantité d'une ligne. Quantité ≤ 0 = suppression.
func (s *Store) UpdateQuantity(ctx context.Context, key, productID, size, color string, quantity int) ([]models.CartItem, error) {
	items, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	out := items[:0]
	for _, existing := range items {
		if existing.ProductID == productID && existing.Size == size && existing.Color == color {
			if quantity <= 0 {
				continue
			}
			existing.Quantity = quantity
		}
		out = append(out, existing)
	}

	if err := s.Save(ctx, key, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Merge déverse un panier invité dans le panier de l'utilisateur qui vient de
// se connecter, puis supprime la clé invité.
func (s *Store) Merge(ctx context.Context, guestKey, userKey string) ([]models.CartItem, error) {
	guestItems, err := s.Get(ctx, guestKey)
	if err != nil {
		return nil, err
	}
	if len(guestItems) == 0 {
		return s.Get(ctx, userKey)
	}

	items, err := s.Get(ctx, userKey)
	if err != nil {
		return nil, err
	}
	for _, gi := range guestItems {
		merged := false
		for i, existing := range items {
			if sameLine(existing, gi) {
				items[i].Quantity += gi.Quantity
				merged = true
				break
			}
		}
		if !merged {
			items = append(items, gi)
		}
	}

	if err := s.Save(ctx, userKey, items); err != nil {
		return nil, err
	}
	if err := s.Clear(ctx, guestKey); err != nil {
		return nil, err
	}
	return items, nil
}

func sameLine(a, b models.CartItem) bool {
	return a.ProductID == b.ProductID && a.Size == b.Size && a.Color == b.Color
}

func isGuestKey(key string) bool {
	return len(key) > len("cart:guest:") && key[:len("cart:guest:")] == "cart:guest:"
}
