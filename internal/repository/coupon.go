package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
)

type couponRepo struct{}

// NewCouponRepository returns a pgx-backed CouponRepository.
func NewCouponRepository() CouponRepository {
	return &couponRepo{}
}

func (r *couponRepo) CountUnclaimed(ctx context.Context, db DBTX, slotID uuid.UUID) (int64, error) {
	var count int64
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM coupons WHERE slot_id = $1 AND NOT claimed`, slotID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unclaimed coupons: %w", err)
	}
	return count, nil
}

// ClaimBatch is the conditional unclaimed->claimed transition. FOR UPDATE
// SKIP LOCKED keeps two racing purchases off the same rows, and the outer
// NOT claimed predicate rejects rows a committed rival claimed first. The
// caller must verify len(result) == quantity.
func (r *couponRepo) ClaimBatch(ctx context.Context, db DBTX, slotID, userID, purchaseID uuid.UUID, quantity int64) ([]domain.AllocatedUnit, error) {
	rows, err := db.Query(ctx, `
		UPDATE coupons SET
			claimed = true,
			user_id = $2,
			purchase_id = $3,
			claimed_at = now()
		WHERE id IN (
			SELECT id FROM coupons
			WHERE slot_id = $1 AND NOT claimed
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		) AND NOT claimed
		RETURNING id, code`,
		slotID, userID, purchaseID, quantity)
	if err != nil {
		return nil, fmt.Errorf("claim coupons: %w", err)
	}
	defer rows.Close()

	var units []domain.AllocatedUnit
	for rows.Next() {
		var u domain.AllocatedUnit
		if err := rows.Scan(&u.ID, &u.Code); err != nil {
			return nil, fmt.Errorf("scan claimed coupon: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *couponRepo) BulkInsert(ctx context.Context, db DBTX, slotID uuid.UUID, codes []string) (int64, error) {
	var inserted int64
	for _, code := range codes {
		tag, err := db.Exec(ctx, `
			INSERT INTO coupons (id, slot_id, code, claimed)
			VALUES ($1, $2, $3, false)`,
			uuid.New(), slotID, code)
		if err != nil {
			return inserted, fmt.Errorf("insert coupon: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	// Keep the cached aggregate in step with the new rows.
	if inserted > 0 {
		_, err := db.Exec(ctx, `
			UPDATE slots SET available_stock = available_stock + $2, updated_at = now()
			WHERE id = $1`, slotID, inserted)
		if err != nil {
			return inserted, fmt.Errorf("bump slot stock: %w", err)
		}
	}
	return inserted, nil
}

func (r *couponRepo) ListByPurchase(ctx context.Context, db DBTX, purchaseID uuid.UUID) ([]domain.Coupon, error) {
	rows, err := db.Query(ctx, `
		SELECT id, slot_id, code, claimed, user_id, purchase_id, claimed_at, created_at
		FROM coupons WHERE purchase_id = $1 ORDER BY claimed_at ASC`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("query purchase coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(&c.ID, &c.SlotID, &c.Code, &c.Claimed, &c.UserID, &c.PurchaseID, &c.ClaimedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}
