package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingStore loses the first `losses` writes as if another writer bumped
// row_version in between.
type racingStore struct {
	route  *models.Route
	losses int
	writes int
}

func (s *racingStore) load(_ context.Context, id uuid.UUID) (*models.Route, error) {
	if s.route == nil || s.route.ID != id {
		return nil, nil
	}
	cp := *s.route
	return &cp, nil
}

func (s *racingStore) write(_ context.Context, rt *models.Route, expected int64) (pgconn.CommandTag, error) {
	s.writes++
	if s.losses > 0 {
		s.losses--
		s.route.RowVersion++
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	if s.route.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *rt
	cp.RowVersion = expected + 1
	s.route = &cp
	return pgconn.CommandTag("UPDATE 1"), nil
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	rename := func(rt *models.Route) error { rt.Name = "North"; return nil }

	t.Run("retries after a lost race", func(t *testing.T) {
		id := uuid.New()
		s := &racingStore{route: &models.Route{ID: id, Versioned: models.Versioned{RowVersion: 4}}, losses: 1}

		require.NoError(t, WithRetry(ctx, 3, id, s.load, s.write, rename))
		assert.Equal(t, 2, s.writes)
		assert.Equal(t, "North", s.route.Name)
		assert.EqualValues(t, 6, s.route.RowVersion)
	})

	t.Run("gives up", func(t *testing.T) {
		id := uuid.New()
		s := &racingStore{route: &models.Route{ID: id}, losses: 5}

		err := WithRetry(ctx, 2, id, s.load, s.write, rename)
		assert.ErrorIs(t, err, ErrTooMuchContention)
		assert.Equal(t, 2, s.writes)
	})

	t.Run("missing row", func(t *testing.T) {
		s := &racingStore{}
		assert.ErrorIs(t, WithRetry(ctx, 3, uuid.New(), s.load, s.write, rename), pgx.ErrNoRows)
	})

	t.Run("mutate error aborts", func(t *testing.T) {
		id := uuid.New()
		s := &racingStore{route: &models.Route{ID: id}}
		boom := errors.New("boom")

		err := WithRetry(ctx, 3, id, s.load, s.write, func(*models.Route) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, s.writes)
	})
}
