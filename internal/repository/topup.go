package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/infra"
)

type topupRepo struct{}

// NewTopupRepository returns a pgx-backed TopupRepository.
func NewTopupRepository() TopupRepository {
	return &topupRepo{}
}

const topupColumns = `id, user_id, amount, order_id, status, gateway_order_id, utr, pay_method, verified_at, created_at, updated_at`

func (r *topupRepo) Insert(ctx context.Context, db DBTX, t *domain.Topup) error {
	_, err := db.Exec(ctx, `
		INSERT INTO topups (id, user_id, amount, order_id, status, pay_method)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, infra.Int64ToNumeric(t.Amount), t.OrderID, string(t.Status), string(t.PayMethod))
	if err != nil {
		return fmt.Errorf("insert topup: %w", err)
	}
	return nil
}

func (r *topupRepo) FindByOrderID(ctx context.Context, db DBTX, orderID string) (*domain.Topup, error) {
	row := db.QueryRow(ctx, `
		SELECT `+topupColumns+`
		FROM topups WHERE order_id = $1`, orderID)
	return scanTopup(row)
}

// TransitionStatus is the single conditional write that makes reconciliation
// idempotent: a row already in success is never matched, so a duplicate
// callback can neither flip a terminal state nor trigger a second credit.
// verified_at is stamped only on the first transition into success.
func (r *topupRepo) TransitionStatus(ctx context.Context, db DBTX, orderID string, status domain.TopupStatus, gatewayOrderID, utr *string, method domain.PayMethod) (*domain.Topup, error) {
	row := db.QueryRow(ctx, `
		UPDATE topups SET
			status = $2,
			gateway_order_id = COALESCE($3, gateway_order_id),
			utr = COALESCE($4, utr),
			pay_method = $5,
			verified_at = CASE WHEN $2 = 'success' THEN now() ELSE verified_at END,
			updated_at = now()
		WHERE order_id = $1 AND status <> 'success'
		RETURNING `+topupColumns,
		orderID, string(status), gatewayOrderID, utr, string(method))

	t, err := scanTopup(row)
	if err != nil {
		return nil, fmt.Errorf("transition topup status: %w", err)
	}
	return t, nil
}

func (r *topupRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Topup, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+topupColumns+`
		FROM topups WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query topups: %w", err)
	}
	defer rows.Close()

	var topups []domain.Topup
	for rows.Next() {
		t, err := scanTopupRow(rows)
		if err != nil {
			return nil, err
		}
		topups = append(topups, *t)
	}
	return topups, rows.Err()
}

func (r *topupRepo) CreditedSum(ctx context.Context, db DBTX) (int64, error) {
	var totalNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(sum(amount), 0) FROM topups WHERE status = 'success'`).Scan(&totalNum)
	if err != nil {
		return 0, fmt.Errorf("sum topups: %w", err)
	}
	return infra.NumericToInt64(totalNum)
}

func scanTopup(row pgx.Row) (*domain.Topup, error) {
	var t domain.Topup
	var amountNum pgtype.Numeric
	err := row.Scan(&t.ID, &t.UserID, &amountNum, &t.OrderID, &t.Status,
		&t.GatewayOrderID, &t.UTR, &t.PayMethod, &t.VerifiedAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan topup: %w", err)
	}
	var convErr error
	t.Amount, convErr = infra.NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert topup amount: %w", convErr)
	}
	return &t, nil
}

func scanTopupRow(rows pgx.Rows) (*domain.Topup, error) {
	var t domain.Topup
	var amountNum pgtype.Numeric
	err := rows.Scan(&t.ID, &t.UserID, &amountNum, &t.OrderID, &t.Status,
		&t.GatewayOrderID, &t.UTR, &t.PayMethod, &t.VerifiedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan topup row: %w", err)
	}
	var convErr error
	t.Amount, convErr = infra.NumericToInt64(amountNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert topup amount: %w", convErr)
	}
	return &t, nil
}
