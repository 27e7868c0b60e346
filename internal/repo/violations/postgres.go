package violations

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes, see https://www.postgresql.org/docs/14/errcodes-appendix.html
const (
	pgUniqueViolationErrCode       = "23505"
	pgInsufficientPrivilegeErrCode = "42501"
	pgDuplicateDatabaseErrCode     = "42P04"
	pgInvalidCatalogNameErrCode    = "3D000"
)

func hasCode(err error, code string) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == code
}

// IsUniqueConstraint checks if the error is a PostgreSQL unique constraint violation
func IsUniqueConstraint(err error) bool {
	return hasCode(err, pgUniqueViolationErrCode)
}

// IsInsufficientPrivilege checks if the error reports missing privileges,
// e.g. a credential without CREATEDB issuing CREATE DATABASE.
func IsInsufficientPrivilege(err error) bool {
	return hasCode(err, pgInsufficientPrivilegeErrCode)
}

// IsDuplicateDatabase checks if the error reports an already existing database.
func IsDuplicateDatabase(err error) bool {
	return hasCode(err, pgDuplicateDatabaseErrCode)
}

// IsInvalidCatalogName checks if the error reports a connection attempt to a
// database that does not exist.
func IsInvalidCatalogName(err error) bool {
	return hasCode(err, pgInvalidCatalogNameErrCode)
}
