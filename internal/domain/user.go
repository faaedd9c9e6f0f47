package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the account realm a user belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a wallet-holding account. Balance and the running totals are in
// minor currency units (paise) and are mutated only through server-side
// arithmetic in the repository layer.
type User struct {
	ID             uuid.UUID
	Email          string
	Mobile         string
	PasswordHash   string
	Role           Role
	Balance        int64
	TotalSpent     int64
	TotalPurchased int64
	Blocked        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WalletDelta describes which wallet columns to update and by how much.
// Positive values credit, negative values debit.
type WalletDelta struct {
	Balance        int64
	TotalSpent     int64
	TotalPurchased int64
}
