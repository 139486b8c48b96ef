// Package sqlxrepos implements the domain repositories on PostgreSQL.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const uniqueViolation = "23505"

type base struct {
	db *sqlx.DB
}

// ex picks the transaction override when a service runs the call atomically,
// the pooled handle otherwise.
func (r base) ex(exec ...core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return r.db
}

func wrapNotFound(err error, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// in expands a slice argument and rebinds the query to PostgreSQL bindvars.
func in(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query")
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), a, nil
}
