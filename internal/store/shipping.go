package store

import (
	"context"
	"sort"
	"strings"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

type ScyllaShippingStore struct {
	session *gocql.Session
}

func NewScyllaShippingStore(session *gocql.Session) *ScyllaShippingStore {
	return &ScyllaShippingStore{session: session}
}

// FindActiveMethod résout une méthode de livraison active par code.
// (nil, nil) si le code est inconnu ou la méthode désactivée.
func (s *ScyllaShippingStore) FindActiveMethod(ctx context.Context, code string) (*models.ShippingMethod, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	m := &models.ShippingMethod{Code: code}
	err := s.session.Query(`SELECT method_id, name, description, cost, min_order_amount,
		estimated_days, is_active, sort_order
		FROM shipping_methods WHERE code = ?`, code).WithContext(ctx).
		Scan(&m.ID, &m.Name, &m.Description, &m.Cost, &m.MinOrderAmount,
			&m.EstimatedDays, &m.IsActive, &m.SortOrder)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, nil
	}
	return m, nil
}

// ListActiveMethods retourne toutes les méthodes actives, triées par
// sort_order (affichage au checkout).
func (s *ScyllaShippingStore) ListActiveMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	iter := s.session.Query(`SELECT method_id, code, name, description, cost, min_order_amount,
		estimated_days, is_active, sort_order FROM shipping_methods`).WithContext(ctx).Iter()

	var methods []models.ShippingMethod
	var m models.ShippingMethod
	for iter.Scan(&m.ID, &m.Code, &m.Name, &m.Description, &m.Cost, &m.MinOrderAmount,
		&m.EstimatedDays, &m.IsActive, &m.SortOrder) {
		if m.IsActive {
			methods = append(methods, m)
		}
		m = models.ShippingMethod{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.Slice(methods, func(i, j int) bool { return methods[i].SortOrder < methods[j].SortOrder })
	return methods, nil
}
