package repositories

import (
	"github.com/jackc/pgx/v5/pgconn"

	"reelgen/internal/pkg/errors"
)

// SQLSTATE codes the video repository maps to coded errors.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateUndefinedTable  = "42P01"
)

// sqlState returns the PostgreSQL error code carried by err, or "".
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
