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

type userRepo struct{}

// NewUserRepository returns a pgx-backed UserRepository.
func NewUserRepository() UserRepository {
	return &userRepo{}
}

const userColumns = `id, email, mobile, password_hash, role, balance, total_spent, total_purchased, blocked, created_at, updated_at`

func (r *userRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *userRepo) LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, db DBTX, u *domain.User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, email, mobile, password_hash, role, balance, total_spent, total_purchased, blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Mobile, u.PasswordHash, string(u.Role),
		infra.Int64ToNumeric(u.Balance),
		infra.Int64ToNumeric(u.TotalSpent),
		u.TotalPurchased,
		u.Blocked,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ApplyWalletDelta uses server-side arithmetic. Debits carry SQL guards so a
// concurrent debit can never push the balance negative or touch a blocked
// account; zero rows updated maps to nil.
func (r *userRepo) ApplyWalletDelta(ctx context.Context, db DBTX, id uuid.UUID, delta domain.WalletDelta) (*domain.User, error) {
	query := `
		UPDATE users SET
			balance = balance + $2,
			total_spent = total_spent + $3,
			total_purchased = total_purchased + $4,
			updated_at = now()
		WHERE id = $1`
	if delta.Balance < 0 {
		query += ` AND NOT blocked AND balance >= -$2::numeric`
	}
	query += `
		RETURNING ` + userColumns

	row := db.QueryRow(ctx, query, id,
		infra.Int64ToNumeric(delta.Balance),
		infra.Int64ToNumeric(delta.TotalSpent),
		delta.TotalPurchased,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var balNum, spentNum pgtype.Numeric
	err := row.Scan(&u.ID, &u.Email, &u.Mobile, &u.PasswordHash, &u.Role,
		&balNum, &spentNum, &u.TotalPurchased, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	var convErr error
	u.Balance, convErr = infra.NumericToInt64(balNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert balance: %w", convErr)
	}
	u.TotalSpent, convErr = infra.NumericToInt64(spentNum)
	if convErr != nil {
		return nil, fmt.Errorf("convert total_spent: %w", convErr)
	}
	return &u, nil
}
