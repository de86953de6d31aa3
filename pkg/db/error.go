package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	mysqlDuplicateEntry   = 1062
)

// IsDuplicateKeyErr reports whether err is a unique-constraint violation on
// any supported backend. The default-member services treat this as the retry
// signal for the per-owner partial unique index.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}

	// SQLite drivers do not expose a typed error across cgo/pure builds.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsForeignKeyErr reports whether err is a foreign-key violation.
func IsForeignKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return true
	}

	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsConstraintErr reports whether err is any store-side constraint
// rejection; Save converts these into failure results instead of faults.
func IsConstraintErr(err error) bool {
	return IsDuplicateKeyErr(err) || IsForeignKeyErr(err) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated)
}
