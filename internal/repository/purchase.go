package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/infra"
)

type purchaseRepo struct{}

// NewPurchaseRepository returns a pgx-backed PurchaseRepository.
func NewPurchaseRepository() PurchaseRepository {
	return &purchaseRepo{}
}

func (r *purchaseRepo) Insert(ctx context.Context, db DBTX, p *domain.Purchase) error {
	_, err := db.Exec(ctx, `
		INSERT INTO purchases (id, user_id, slot_id, quantity, unit_price, total_price, order_no, status, platform)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.SlotID, p.Quantity,
		infra.Int64ToNumeric(p.UnitPrice),
		infra.Int64ToNumeric(p.TotalPrice),
		p.OrderNo, string(p.Status), p.Platform)
	return err
}

func (r *purchaseRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT id, user_id, slot_id, quantity, unit_price, total_price, order_no, status, platform, created_at
		FROM purchases WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		var unitNum, totalNum pgtype.Numeric
		if err := rows.Scan(&p.ID, &p.UserID, &p.SlotID, &p.Quantity, &unitNum, &totalNum, &p.OrderNo, &p.Status, &p.Platform, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		var convErr error
		p.UnitPrice, convErr = infra.NumericToInt64(unitNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert unit_price: %w", convErr)
		}
		p.TotalPrice, convErr = infra.NumericToInt64(totalNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert total_price: %w", convErr)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *purchaseRepo) RevenueSummary(ctx context.Context, db DBTX) (int64, error) {
	var totalNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(sum(total_price), 0) FROM purchases WHERE status = 'completed'`).Scan(&totalNum)
	if err != nil {
		return 0, fmt.Errorf("sum purchases: %w", err)
	}
	return infra.NumericToInt64(totalNum)
}
