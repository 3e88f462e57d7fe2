package repositories

import (
	"context"
	"errors"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type RouteRepository interface {
	// Create fails with a 23505 unique violation when a non-completed
	// route already carries the same name.
	Create(ctx context.Context, rt *models.Route) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Route, error)
	GetOpenByName(ctx context.Context, name string) (*models.Route, error)
	List(ctx context.Context) ([]*models.Route, error)
	ListByStatus(ctx context.Context, status models.RouteStatus) ([]*models.Route, error)

	UpdateIfVersion(ctx context.Context, rt *models.Route, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Route) error) error

	Delete(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type routeRepo struct {
	table *versionedTable[*models.Route]
	db    DB
}

func NewRouteRepository(db DB) RouteRepository {
	r := &routeRepo{db: db}
	selectStmt := baseSelectRoute() + " WHERE id=$1"
	r.table = newVersionedTable(db, selectStmt, r.scanRoute)
	return r
}

/* ---------- Create ---------- */

func (r *routeRepo) Create(ctx context.Context, rt *models.Route) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
        INSERT INTO routes (
            id, name, service_day, cadence,
            service_start_date, last_service_date,
            target_units, status, operator_id,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,
            $5,$6,
            $7,$8,$9,
            NOW(),NOW(),1
        )
        RETURNING row_version, created_at, updated_at
    `,
		rt.ID, rt.Name, int16(rt.ServiceDay), string(rt.Cadence),
		dateArg(rt.ServiceStartDate), dateArg(rt.LastServiceDate),
		rt.TargetUnits, string(rt.Status), rt.OperatorID,
	).Scan(&rt.RowVersion, &rt.CreatedAt, &rt.UpdatedAt)
}

/* ---------- Reads ---------- */

func (r *routeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	return r.table.GetByID(ctx, id)
}

func (r *routeRepo) GetOpenByName(ctx context.Context, name string) (*models.Route, error) {
	row := r.db.QueryRow(ctx, baseSelectRoute()+" WHERE name=$1 AND status<>$2 ORDER BY created_at LIMIT 1",
		name, string(models.RouteStatusCompleted))
	rt, err := r.scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rt, err
}

func (r *routeRepo) List(ctx context.Context) ([]*models.Route, error) {
	rows, err := r.db.Query(ctx, baseSelectRoute()+" ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scanRoute)
}

func (r *routeRepo) ListByStatus(ctx context.Context, status models.RouteStatus) ([]*models.Route, error) {
	rows, err := r.db.Query(ctx, baseSelectRoute()+" WHERE LOWER(status)=$1 ORDER BY created_at, id", string(status))
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scanRoute)
}

/* ---------- Updates ---------- */

func (r *routeRepo) UpdateIfVersion(ctx context.Context, rt *models.Route, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE routes SET
            name=$1, service_day=$2, cadence=$3,
            service_start_date=$4, last_service_date=$5,
            target_units=$6, status=$7, operator_id=$8,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$9 AND row_version=$10
    `,
		rt.Name, int16(rt.ServiceDay), string(rt.Cadence),
		dateArg(rt.ServiceStartDate), dateArg(rt.LastServiceDate),
		rt.TargetUnits, string(rt.Status), rt.OperatorID,
		rt.ID, expected,
	)
}

func (r *routeRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Route) error) error {
	return r.table.patch(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *routeRepo) Delete(ctx context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `DELETE FROM routes WHERE id=$1`, id)
}

/* ---------- internals ---------- */

func baseSelectRoute() string {
	return `
        SELECT
            id, name, service_day, COALESCE(cadence, ''),
            service_start_date, last_service_date,
            target_units, COALESCE(status, 'draft'), operator_id,
            row_version, created_at, updated_at
        FROM routes
    `
}

func (r *routeRepo) scanRoute(row pgx.Row) (*models.Route, error) {
	var rt models.Route
	var serviceDay int16
	var cadence, status string
	var start, last pgtype.Date

	err := row.Scan(
		&rt.ID, &rt.Name, &serviceDay, &cadence,
		&start, &last,
		&rt.TargetUnits, &status, &rt.OperatorID,
		&rt.RowVersion, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rt.ServiceDay = normalizeServiceDay(serviceDay)
	rt.Cadence = models.NormalizeCadence(cadence)
	if st, ok := models.ParseRouteStatus(status); ok {
		rt.Status = st
	} else {
		rt.Status = models.RouteStatus(status)
	}
	rt.ServiceStartDate = dateOrNil(start)
	rt.LastServiceDate = dateOrNil(last)
	return &rt, nil
}
