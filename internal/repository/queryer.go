// Package repository persists the service's entities in PostgreSQL through pgx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/planopia/leave_service/internal/entity"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
	foreignKeyCode      = "23503"
)

// Queryer is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func translateError(err error, what string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %s already exists", entity.ErrConflict, what)
		case checkViolationCode:
			return fmt.Errorf("%w: %s violates %s", entity.ErrValidation, what, pgErr.ConstraintName)
		case foreignKeyCode:
			return fmt.Errorf("%w: %s references a missing record", entity.ErrNotFound, what)
		}
	}

	return err
}
