package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
)

func tagRows(n int) pgconn.CommandTag {
	return pgconn.CommandTag(fmt.Sprintf("UPDATE %d", n))
}

/* ---------- orders ---------- */

type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   []*models.Order
	assignFn func(orderID uuid.UUID) error
}

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	return &fakeOrderRepo{orders: orders}
}

func (f *fakeOrderRepo) find(id uuid.UUID) *models.Order {
	for _, o := range f.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o := f.find(id); o != nil {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeOrderRepo) List(_ context.Context, flt repositories.OrderFilter) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if !flt.IncludeDeleted && o.IsDeleted {
			continue
		}
		if flt.RouteID != nil && (o.RouteID == nil || *o.RouteID != *flt.RouteID) {
			continue
		}
		if flt.Unrouted && o.RouteID != nil {
			continue
		}
		if flt.MissingCoords && o.HasCoordinates() {
			continue
		}
		cp := *o
		out = append(out, &cp)
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateIfVersion(_ context.Context, o *models.Order, expected int64) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.find(o.ID)
	if cur == nil || cur.RowVersion != expected {
		return tagRows(0), nil
	}
	cp := *o
	cp.RowVersion = expected + 1
	*cur = cp
	return tagRows(1), nil
}

func (f *fakeOrderRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Order) error) error {
	return repositories.WithRetry(ctx, 3, id, f.GetByID, f.UpdateIfVersion, mutate)
}

func (f *fakeOrderRepo) AssignRouteIfUnrouted(_ context.Context, orderID, routeID uuid.UUID) (pgconn.CommandTag, error) {
	if f.assignFn != nil {
		if err := f.assignFn(orderID); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.find(orderID)
	if o == nil || o.RouteID != nil || o.IsDeleted {
		return tagRows(0), nil
	}
	rid := routeID
	o.RouteID = &rid
	o.RowVersion++
	return tagRows(1), nil
}

func (f *fakeOrderRepo) ClearRouteFromOrders(_ context.Context, routeID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.orders {
		if o.RouteID != nil && *o.RouteID == routeID {
			o.RouteID = nil
			n++
		}
	}
	return n, nil
}

/* ---------- routes ---------- */

type fakeRouteRepo struct {
	mu        sync.Mutex
	routes    []*models.Route
	createErr error
	creates   int
}

func newFakeRouteRepo(routes ...*models.Route) *fakeRouteRepo {
	return &fakeRouteRepo{routes: routes}
}

func (f *fakeRouteRepo) Create(_ context.Context, rt *models.Route) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.routes {
		if r.Name == rt.Name && !r.IsCompleted() {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.RowVersion = 1
	cp := *rt
	f.routes = append(f.routes, &cp)
	f.creates++
	return nil
}

func (f *fakeRouteRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.routes {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRouteRepo) GetOpenByName(_ context.Context, name string) (*models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.routes {
		if r.Name == name && !r.IsCompleted() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRouteRepo) List(_ context.Context) ([]*models.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Route, 0, len(f.routes))
	for _, r := range f.routes {
		cp := *r
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRouteRepo) ListByStatus(ctx context.Context, status models.RouteStatus) ([]*models.Route, error) {
	all, _ := f.List(ctx)
	var out []*models.Route
	for _, r := range all {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRouteRepo) UpdateIfVersion(_ context.Context, rt *models.Route, expected int64) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.routes {
		if r.ID == rt.ID {
			if r.RowVersion != expected {
				return tagRows(0), nil
			}
			cp := *rt
			cp.RowVersion = expected + 1
			*r = cp
			return tagRows(1), nil
		}
	}
	return tagRows(0), nil
}

func (f *fakeRouteRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Route) error) error {
	return repositories.WithRetry(ctx, 3, id, f.GetByID, f.UpdateIfVersion, mutate)
}

func (f *fakeRouteRepo) Delete(_ context.Context, id uuid.UUID) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.routes {
		if r.ID == id {
			f.routes = append(f.routes[:i], f.routes[i+1:]...)
			return pgconn.CommandTag("DELETE 1"), nil
		}
	}
	return pgconn.CommandTag("DELETE 0"), nil
}

/* ---------- operators ---------- */

type fakeOperatorRepo struct {
	mu        sync.Mutex
	operators []*models.Operator
	// routes, when set, has its operator links cleared by Delete.
	routes *fakeRouteRepo
}

func (f *fakeOperatorRepo) Create(_ context.Context, op *models.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	op.PayoutRate = models.NormalizePayoutRate(op.PayoutRate)
	op.RowVersion = 1
	cp := *op
	f.operators = append(f.operators, &cp)
	return nil
}

func (f *fakeOperatorRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range f.operators {
		if op.ID == id {
			cp := *op
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOperatorRepo) List(_ context.Context) ([]*models.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Operator, 0, len(f.operators))
	for _, op := range f.operators {
		cp := *op
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeOperatorRepo) ListActive(ctx context.Context) ([]*models.Operator, error) {
	all, _ := f.List(ctx)
	var out []*models.Operator
	for _, op := range all {
		if op.Active {
			out = append(out, op)
		}
	}
	return out, nil
}

func (f *fakeOperatorRepo) UpdateIfVersion(_ context.Context, op *models.Operator, expected int64) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cur := range f.operators {
		if cur.ID == op.ID {
			if cur.RowVersion != expected {
				return tagRows(0), nil
			}
			cp := *op
			cp.PayoutRate = models.NormalizePayoutRate(cp.PayoutRate)
			cp.RowVersion = expected + 1
			*cur = cp
			return tagRows(1), nil
		}
	}
	return tagRows(0), nil
}

func (f *fakeOperatorRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Operator) error) error {
	return repositories.WithRetry(ctx, 3, id, f.GetByID, f.UpdateIfVersion, mutate)
}

func (f *fakeOperatorRepo) Delete(_ context.Context, id uuid.UUID) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := -1
	for i, op := range f.operators {
		if op.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return false, 0, nil
	}
	f.operators = append(f.operators[:idx], f.operators[idx+1:]...)

	var cleared int64
	if f.routes != nil {
		f.routes.mu.Lock()
		for _, r := range f.routes.routes {
			if r.OperatorID != nil && *r.OperatorID == id {
				r.OperatorID = nil
				r.RowVersion++
				cleared++
			}
		}
		f.routes.mu.Unlock()
	}
	return true, cleared, nil
}

var errStorage = errors.New("storage unavailable")
