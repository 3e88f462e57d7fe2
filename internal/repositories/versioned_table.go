package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const patchAttempts = 3

// versionedTable bundles the by-id read and row scanner shared by the
// order and route repositories.
type versionedTable[T Versioned] struct {
	db         DB
	selectByID string
	scan       func(row pgx.Row) (T, error)
}

func newVersionedTable[T Versioned](db DB, selectByID string, scan func(pgx.Row) (T, error)) *versionedTable[T] {
	return &versionedTable[T]{db: db, selectByID: selectByID, scan: scan}
}

// GetByID returns the zero T (nil) when no row matches.
func (v *versionedTable[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	got, err := v.scan(v.db.QueryRow(ctx, v.selectByID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, nil
	}
	return got, err
}

func (v *versionedTable[T]) patch(ctx context.Context, id uuid.UUID, mutate func(T) error, write VersionedUpdate[T]) error {
	return WithRetry(ctx, patchAttempts, id, v.GetByID, write, mutate)
}

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
