package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

// OrderFilter narrows List by equality. The zero value lists every
// non-deleted order.
type OrderFilter struct {
	RouteID        *uuid.UUID
	Unrouted       bool
	MissingCoords  bool
	IncludeDeleted bool
	Limit          int
}

type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, f OrderFilter) ([]*models.Order, error)

	UpdateIfVersion(ctx context.Context, o *models.Order, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Order) error) error

	// AssignRouteIfUnrouted links the order only while it has no route.
	AssignRouteIfUnrouted(ctx context.Context, orderID, routeID uuid.UUID) (pgconn.CommandTag, error)
	ClearRouteFromOrders(ctx context.Context, routeID uuid.UUID) (int64, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type orderRepo struct {
	table *versionedTable[*models.Order]
	db    DB
}

func NewOrderRepository(db DB) OrderRepository {
	r := &orderRepo{db: db}
	selectStmt := baseSelectOrder() + " WHERE id=$1"
	r.table = newVersionedTable(db, selectStmt, r.scanOrder)
	return r
}

/* ---------- Reads ---------- */

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.table.GetByID(ctx, id)
}

func (r *orderRepo) List(ctx context.Context, f OrderFilter) ([]*models.Order, error) {
	var where []string
	var args []any

	if !f.IncludeDeleted {
		where = append(where, "NOT is_deleted")
	}
	if f.RouteID != nil {
		args = append(args, *f.RouteID)
		where = append(where, fmt.Sprintf("route_id=$%d", len(args)))
	}
	if f.Unrouted {
		where = append(where, "route_id IS NULL")
	}
	if f.MissingCoords {
		where = append(where, "(lat IS NULL OR lng IS NULL)")
	}

	q := baseSelectOrder()
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, r.scanOrder)
}

/* ---------- Updates ---------- */

func (r *orderRepo) UpdateIfVersion(ctx context.Context, o *models.Order, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE orders SET
            postal_code=$1, lat=$2, lng=$3,
            cadence=$4, preferred_service_day=$5,
            route_id=$6, route_start_date=$7,
            service_start_date=$8, last_service_date=$9,
            status=$10, is_deleted=$11, deleted_at=$12,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$13 AND row_version=$14
    `,
		o.PostalCode, o.Lat, o.Lng,
		o.Cadence, o.PreferredServiceDay,
		o.RouteID, dateArg(o.RouteStartDate),
		dateArg(o.ServiceStartDate), dateArg(o.LastServiceDate),
		o.Status, o.IsDeleted, o.DeletedAt,
		o.ID, expected,
	)
}

func (r *orderRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Order) error) error {
	return r.table.patch(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *orderRepo) AssignRouteIfUnrouted(ctx context.Context, orderID, routeID uuid.UUID) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE orders
        SET route_id=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2 AND route_id IS NULL AND NOT is_deleted
    `, routeID, orderID)
}

func (r *orderRepo) ClearRouteFromOrders(ctx context.Context, routeID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE orders
        SET route_id=NULL, row_version=row_version+1, updated_at=NOW()
        WHERE route_id=$1
    `, routeID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

/* ---------- internals ---------- */

func baseSelectOrder() string {
	return `
        SELECT
            id, business_name, address, postal_code, lat, lng,
            COALESCE(cans::text, ''), monthly_total, due_today, billing_status,
            COALESCE(cadence, ''), COALESCE(status, ''), payment_status,
            is_deposit, billing_type,
            preferred_service_day, route_id,
            route_start_date, service_start_date, last_service_date,
            is_deleted, deleted_at,
            row_version, created_at, updated_at
        FROM orders
    `
}

// scanOrder folds the legacy deposit/payment aliases into the model's
// single PaymentStatus and IsDeposit fields.
func (r *orderRepo) scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var isDeposit *bool
	var billingType *string
	var routeStart, serviceStart, lastService pgtype.Date
	var deletedAt pgtype.Timestamptz

	err := row.Scan(
		&o.ID, &o.BusinessName, &o.Address, &o.PostalCode, &o.Lat, &o.Lng,
		&o.Cans, &o.MonthlyTotal, &o.DueToday, &o.BillingStatus,
		&o.Cadence, &o.Status, &o.PaymentStatus,
		&isDeposit, &billingType,
		&o.PreferredServiceDay, &o.RouteID,
		&routeStart, &serviceStart, &lastService,
		&o.IsDeleted, &deletedAt,
		&o.RowVersion, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var signals []string
	if isDeposit != nil && *isDeposit {
		signals = append(signals, "true")
	}
	if billingType != nil {
		signals = append(signals, *billingType)
	}
	o.IsDeposit = models.NormalizeDepositFlag(signals...)

	if (o.PaymentStatus == nil || *o.PaymentStatus == "") && models.IsPaidStatus(o.Status) {
		s := o.Status
		o.PaymentStatus = &s
	}

	o.RouteStartDate = dateOrNil(routeStart)
	o.ServiceStartDate = dateOrNil(serviceStart)
	o.LastServiceDate = dateOrNil(lastService)
	o.DeletedAt = timestampOrNil(deletedAt)

	return &o, nil
}
