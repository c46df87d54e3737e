// internal/repository/postgres/db.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	xerrors "insurance-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 20

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var errNoRows = pgx.ErrNoRows

type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// WithTx runs fn in a transaction, committing only when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError turns "no rows" and constraint violations into xerrors sentinels.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, xerrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s already exists: %w", what, xerrors.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s references a missing or dependent row (%s): %w", what, pgErr.ConstraintName, xerrors.ErrInUse)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// page normalises pagination and returns limit and offset.
func page(p, size *int) (int, int) {
	if *p < 1 {
		*p = 1
	}
	if *size < 1 {
		*size = defaultPageSize
	}
	return *size, (*p - 1) * *size
}

// where collects numbered SQL conditions.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

// search adds one ILIKE pattern matched against every column.
func (w *where) search(term string, columns ...string) {
	w.args = append(w.args, "%"+term+"%")
	n := len(w.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) next() int {
	return len(w.args) + 1
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conds, " AND ")
}
