package settlement

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// orderNoPrefix heads every human-readable purchase order number.
const orderNoPrefix = "CPN"

// GenerateOrderNo builds a human-readable order number: prefix, two-digit
// year, month and day, and a 4-digit random suffix. The suffix can collide
// within a day; the engine retries on the unique constraint.
func GenerateOrderNo(now time.Time) string {
	return fmt.Sprintf("%s%02d%02d%02d%04d",
		orderNoPrefix, now.Year()%100, int(now.Month()), now.Day(), rand.Intn(10000))
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
