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

type slotRepo struct{}

// NewSlotRepository returns a pgx-backed SlotRepository.
func NewSlotRepository() SlotRepository {
	return &slotRepo{}
}

func (r *slotRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Slot, error) {
	row := db.QueryRow(ctx, `
		SELECT id, store_id, title, available_stock, total_sold, active, created_at, updated_at
		FROM slots WHERE id = $1`, id)

	var s domain.Slot
	err := row.Scan(&s.ID, &s.StoreID, &s.Title, &s.AvailableStock, &s.TotalSold, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan slot: %w", err)
	}

	tiers, err := r.loadTiers(ctx, db, s.ID)
	if err != nil {
		return nil, err
	}
	s.Tiers = tiers
	return &s, nil
}

func (r *slotRepo) Create(ctx context.Context, db DBTX, s *domain.Slot) error {
	_, err := db.Exec(ctx, `
		INSERT INTO slots (id, store_id, title, available_stock, total_sold, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.StoreID, s.Title, s.AvailableStock, s.TotalSold, s.Active)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *slotRepo) AddTier(ctx context.Context, db DBTX, t *domain.PricingTier) error {
	_, err := db.Exec(ctx, `
		INSERT INTO pricing_tiers (id, slot_id, min_qty, max_qty, unit_price)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SlotID, t.MinQty, t.MaxQty, infra.Int64ToNumeric(t.UnitPrice))
	if err != nil {
		return fmt.Errorf("insert pricing tier: %w", err)
	}
	return nil
}

func (r *slotRepo) List(ctx context.Context, db DBTX, limit int) ([]domain.Slot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
		SELECT id, store_id, title, available_stock, total_sold, active, created_at, updated_at
		FROM slots WHERE active ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var s domain.Slot
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Title, &s.AvailableStock, &s.TotalSold, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range slots {
		tiers, err := r.loadTiers(ctx, db, slots[i].ID)
		if err != nil {
			return nil, err
		}
		slots[i].Tiers = tiers
	}
	return slots, nil
}

// AdjustCounters keeps the cached stock aggregate in lockstep with the unit
// claims. The predicate guards against the counter going negative under a
// concurrent purchase.
func (r *slotRepo) AdjustCounters(ctx context.Context, db DBTX, id uuid.UUID, quantity int64) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE slots SET
			available_stock = available_stock - $2,
			total_sold = total_sold + $2,
			updated_at = now()
		WHERE id = $1 AND available_stock >= $2`,
		id, quantity)
	if err != nil {
		return 0, fmt.Errorf("adjust slot counters: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *slotRepo) loadTiers(ctx context.Context, db DBTX, slotID uuid.UUID) ([]domain.PricingTier, error) {
	rows, err := db.Query(ctx, `
		SELECT id, slot_id, min_qty, max_qty, unit_price
		FROM pricing_tiers WHERE slot_id = $1 ORDER BY min_qty ASC`, slotID)
	if err != nil {
		return nil, fmt.Errorf("query pricing tiers: %w", err)
	}
	defer rows.Close()

	var tiers []domain.PricingTier
	for rows.Next() {
		var t domain.PricingTier
		var priceNum pgtype.Numeric
		if err := rows.Scan(&t.ID, &t.SlotID, &t.MinQty, &t.MaxQty, &priceNum); err != nil {
			return nil, fmt.Errorf("scan pricing tier: %w", err)
		}
		t.UnitPrice, err = infra.NumericToInt64(priceNum)
		if err != nil {
			return nil, fmt.Errorf("convert unit_price: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
