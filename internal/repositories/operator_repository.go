package repositories

import (
	"context"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

type OperatorRepository interface {
	Create(ctx context.Context, op *models.Operator) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)
	ListActive(ctx context.Context) ([]*models.Operator, error)

	UpdateIfVersion(ctx context.Context, op *models.Operator, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Operator) error) error

	// Delete removes the operator and detaches it from every route in one
	// statement; the returned count is the routes left unstaffed.
	Delete(ctx context.Context, id uuid.UUID) (deleted bool, routesCleared int64, err error)
}

type operatorRepo struct {
	table *versionedTable[*models.Operator]
	db    DB
}

func NewOperatorRepository(db DB) OperatorRepository {
	return &operatorRepo{
		table: newVersionedTable(db, baseSelectOperator()+" WHERE id=$1", scanOperator),
		db:    db,
	}
}

func (r *operatorRepo) Create(ctx context.Context, op *models.Operator) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
        INSERT INTO operators (id, name, email, phone, active, payout_rate, created_at, updated_at, row_version)
        VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW(),1)
        RETURNING row_version, created_at, updated_at
    `,
		op.ID, op.Name, op.Email, op.Phone, op.Active, models.NormalizePayoutRate(op.PayoutRate),
	).Scan(&op.RowVersion, &op.CreatedAt, &op.UpdatedAt)
}

func (r *operatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return r.table.GetByID(ctx, id)
}

func (r *operatorRepo) List(ctx context.Context) ([]*models.Operator, error) {
	rows, err := r.db.Query(ctx, baseSelectOperator()+" ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOperator)
}

func (r *operatorRepo) ListActive(ctx context.Context) ([]*models.Operator, error) {
	rows, err := r.db.Query(ctx, baseSelectOperator()+" WHERE active ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOperator)
}

func (r *operatorRepo) UpdateIfVersion(ctx context.Context, op *models.Operator, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE operators SET
            name=$1, email=$2, phone=$3, active=$4, payout_rate=$5,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$6 AND row_version=$7
    `,
		op.Name, op.Email, op.Phone, op.Active, models.NormalizePayoutRate(op.PayoutRate),
		op.ID, expected,
	)
}

func (r *operatorRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Operator) error) error {
	return r.table.patch(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *operatorRepo) Delete(ctx context.Context, id uuid.UUID) (bool, int64, error) {
	var deleted bool
	var cleared int64
	err := r.db.QueryRow(ctx, `
        WITH unstaffed AS (
            UPDATE routes
            SET operator_id=NULL, row_version=row_version+1, updated_at=NOW()
            WHERE operator_id=$1
            RETURNING id
        ), gone AS (
            DELETE FROM operators WHERE id=$1 RETURNING id
        )
        SELECT EXISTS (SELECT 1 FROM gone), (SELECT COUNT(*) FROM unstaffed)
    `, id).Scan(&deleted, &cleared)
	return deleted, cleared, err
}

func baseSelectOperator() string {
	return `
        SELECT id, name, email, phone, active, payout_rate,
               row_version, created_at, updated_at
        FROM operators
    `
}

// scanOperator stores payout_rate as a fraction even when the row holds a
// legacy percentage. A NULL rate takes the default split.
func scanOperator(row pgx.Row) (*models.Operator, error) {
	var op models.Operator
	var rate *float64
	if err := row.Scan(
		&op.ID, &op.Name, &op.Email, &op.Phone, &op.Active, &rate,
		&op.RowVersion, &op.CreatedAt, &op.UpdatedAt,
	); err != nil {
		return nil, err
	}
	op.PayoutRate = constants.DefaultPayoutFraction
	if rate != nil {
		op.PayoutRate = models.NormalizePayoutRate(*rate)
	}
	return &op, nil
}
