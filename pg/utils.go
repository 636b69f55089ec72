package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE of a unique constraint violation.
const codeUniqueViolation = "23505"

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	ok := errors.As(err, &pgErr)
	return pgErr, ok
}

// IsConflict reports whether err is a unique constraint violation.
func IsConflict(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.Code == codeUniqueViolation
}

// ConstraintName returns the constraint err violated, or "".
func ConstraintName(err error) string {
	if pgErr, ok := asPgError(err); ok {
		return pgErr.ConstraintName
	}
	return ""
}

// IsNotFound reports whether err is sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// GetPgErrorDetails collects the query text and the server-side fields of err
// for attaching to an errx error. query may be nil.
func GetPgErrorDetails(err error, query fmt.Stringer) errx.D {
	details := errx.D{}
	if q := queryText(query); q != "" {
		details["query"] = strings.ReplaceAll(q, `"`, ``)
	}

	pgErr, ok := asPgError(err)
	if !ok {
		return details
	}
	for k, v := range map[string]string{
		"pg.code":       pgErr.Code,
		"pg.severity":   pgErr.Severity,
		"pg.message":    pgErr.Message,
		"pg.detail":     pgErr.Detail,
		"pg.hint":       pgErr.Hint,
		"pg.schema":     pgErr.SchemaName,
		"pg.table":      pgErr.TableName,
		"pg.column":     pgErr.ColumnName,
		"pg.data_type":  pgErr.DataTypeName,
		"pg.constraint": pgErr.ConstraintName,
	} {
		if v != "" {
			details[k] = v
		}
	}
	return details
}

// queryText renders query, returning "" for nil or when String panics
// (bun queries without a model do).
func queryText(query fmt.Stringer) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	if query == nil {
		return ""
	}
	return query.String()
}
