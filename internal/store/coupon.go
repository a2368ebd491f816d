package store

import (
	"context"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"johnhenry_back_end/internal/models"
)

type ScyllaCouponStore struct {
	session *gocql.Session
}

func NewScyllaCouponStore(session *gocql.Session) *ScyllaCouponStore {
	return &ScyllaCouponStore{session: session}
}

// FindValidCoupon : la casse du code est ignorée, les coupons inactifs ou
// hors fenêtre de validité sont invisibles. (nil, nil) si rien ne correspond.
func (s *ScyllaCouponStore) FindValidCoupon(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var couponID gocql.UUID
	err := s.session.Query(`SELECT coupon_id FROM coupons_by_code WHERE code = ?`, code).
		WithContext(ctx).Scan(&couponID)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c := &models.Coupon{ID: couponID}
	err = s.session.Query(`SELECT code, name, type, value, min_order_amount, usage_limit, usage_count,
		start_date, end_date, is_active
		FROM coupons WHERE coupon_id = ?`, couponID).WithContext(ctx).
		Scan(&c.Code, &c.Name, &c.Type, &c.Value, &c.MinOrderAmount, &c.UsageLimit, &c.UsageCount,
			&c.StartDate, &c.EndDate, &c.IsActive)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !c.IsActive {
		return nil, nil
	}
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return nil, nil
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return nil, nil
	}
	return c, nil
}

// IncrementUsage : le compteur ne dépasse jamais la limite, même sous
// concurrence — le IF usage_count = ? rejoue la lecture si un autre
// incrément est passé entre-temps.
func (s *ScyllaCouponStore) IncrementUsage(ctx context.Context, id gocql.UUID) (bool, error) {
	for {
		var count int
		var limit *int
		err := s.session.Query(`SELECT usage_count, usage_limit FROM coupons WHERE coupon_id = ?`, id).
			WithContext(ctx).Scan(&count, &limit)
		if err == gocql.ErrNotFound {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if limit != nil && count >= *limit {
			return false, nil
		}

		var current int
		applied, err := s.session.Query(
			`UPDATE coupons SET usage_count = ? WHERE coupon_id = ? IF usage_count = ?`,
			count+1, id, count).WithContext(ctx).ScanCAS(&current)
		if err != nil && err != gocql.ErrNotFound {
			return false, err
		}
		if applied {
			return true, nil
		}
	}
}

func (s *ScyllaCouponStore) RecordUsage(ctx context.Context, u *models.CouponUsage) error {
	return s.session.Query(`INSERT INTO coupon_usages
		(coupon_id, usage_id, user_id, order_id, discount_amount, used_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.CouponID, u.ID, u.UserID, u.OrderID, u.DiscountAmount, u.UsedAt).WithContext(ctx).Exec()
}
