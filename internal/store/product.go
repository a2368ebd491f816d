package store

import (
	"context"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/checkout"
	"johnhenry_back_end/internal/models"
)

type ScyllaProductStore struct {
	session *gocql.Session
}

func NewScyllaProductStore(session *gocql.Session) *ScyllaProductStore {
	return &ScyllaProductStore{session: session}
}

func (s *ScyllaProductStore) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	p := &models.Product{ID: id}
	err := s.session.Query(`SELECT name, sku, price, stock, in_stock, status, featured_image_url, is_active
		FROM products WHERE product_id = ?`, id).WithContext(ctx).
		Scan(&p.Name, &p.SKU, &p.Price, &p.StockQuantity, &p.InStock, &p.Status,
			&p.FeaturedImageURL, &p.IsActive)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DecrementStock : boucle lecture puis écriture conditionnelle. Le IF stock =
// ? garantit qu'aucun décrément concurrent ne passe inaperçu ; en cas de
// course perdue on relit et on retente.
func (s *ScyllaProductStore) DecrementStock(ctx context.Context, id gocql.UUID, qty int) (int, error) {
	for {
		var stock int
		var name string
		err := s.session.Query(`SELECT stock, name FROM products WHERE product_id = ?`, id).
			WithContext(ctx).Scan(&stock, &name)
		if err == gocql.ErrNotFound {
			return 0, &checkout.InsufficientStockError{ProductID: id, Requested: qty}
		}
		if err != nil {
			return 0, err
		}
		if stock < qty {
			return stock, &checkout.InsufficientStockError{
				ProductID:   id,
				ProductName: name,
				Available:   stock,
				Requested:   qty,
			}
		}

		remaining := stock - qty
		inStock := remaining > 0
		status := "active"
		if !inStock {
			status = "out_of_stock"
		}

		var current int
		applied, err := s.session.Query(
			`UPDATE products SET stock = ?, in_stock = ?, status = ? WHERE product_id = ? IF stock = ?`,
			remaining, inStock, status, id, stock).WithContext(ctx).ScanCAS(&current)
		if err != nil && err != gocql.ErrNotFound {
			return 0, err
		}
		if applied {
			return remaining, nil
		}
		// Un autre décrément est passé entre la lecture et l'écriture.
	}
}
