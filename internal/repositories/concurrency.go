package repositories

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

// Versioned is satisfied by *models.Order and *models.Route.
type Versioned interface {
	comparable
	GetID() uuid.UUID
	GetRowVersion() int64
	SetRowVersion(int64)
}

// VersionedUpdate writes entity only if its stored row_version still equals
// expected. Zero rows affected means another writer won.
type VersionedUpdate[T Versioned] func(ctx context.Context, entity T, expected int64) (pgconn.CommandTag, error)

// Loader returns the zero T when nothing matches.
type Loader[T Versioned] func(ctx context.Context, id uuid.UUID) (T, error)

// ErrTooMuchContention means every attempt lost the row_version race.
var ErrTooMuchContention = errors.New("too much contention")

const (
	contentionBaseDelay = 20 * time.Millisecond
	contentionMaxDelay  = 250 * time.Millisecond
)

// contentionDelay doubles per attempt with up to 50% jitter.
func contentionDelay(attempt int) time.Duration {
	d := contentionBaseDelay << attempt
	if d > contentionMaxDelay {
		d = contentionMaxDelay
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

// WithRetry loads id, applies mutate and attempts a versioned write, reloading
// after every lost race. A mutate error aborts without writing.
func WithRetry[T Versioned](
	ctx context.Context,
	attempts int,
	id uuid.UUID,
	load Loader[T],
	write VersionedUpdate[T],
	mutate func(T) error,
) error {
	var zero T
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(contentionDelay(attempt)):
			}
		}

		current, err := load(ctx, id)
		if err != nil {
			return err
		}
		if current == zero {
			return pgx.ErrNoRows
		}

		expected := current.GetRowVersion()
		if err := mutate(current); err != nil {
			return err
		}

		tag, err := write(ctx, current, expected)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(expected + 1)
			return nil
		}
		utils.Logger.WithFields(logrus.Fields{
			"id":       id,
			"attempt":  attempt + 1,
			"expected": expected,
		}).Debug("row_version conflict, reloading")
	}
	return fmt.Errorf("updating %s: %w", id, ErrTooMuchContention)
}
