package services

import (
	"context"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/google/uuid"
)

// scheduleSnapshot is one consistent read of active routes, their live orders
// and the operators assigned to them. Run sheets, openings and KPIs evaluate
// many dates against the same snapshot.
type scheduleSnapshot struct {
	routes    []*models.Route
	orders    map[uuid.UUID][]*models.Order
	operators map[uuid.UUID]*models.Operator
}

type routeDue struct {
	route  *models.Route
	orders []*models.Order
}

func loadScheduleSnapshot(
	ctx context.Context,
	routeRepo repositories.RouteRepository,
	orderRepo repositories.OrderRepository,
	operatorRepo repositories.OperatorRepository,
) (*scheduleSnapshot, error) {
	routes, err := routeRepo.ListByStatus(ctx, models.RouteStatusActive)
	if err != nil {
		return nil, err
	}
	orders, err := orderRepo.List(ctx, repositories.OrderFilter{})
	if err != nil {
		return nil, err
	}
	ops, err := operatorRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	snap := &scheduleSnapshot{
		routes:    routes,
		orders:    make(map[uuid.UUID][]*models.Order),
		operators: make(map[uuid.UUID]*models.Operator, len(ops)),
	}
	for _, o := range orders {
		if o.RouteID == nil || o.IsDeleted || o.IsCancelled() {
			continue
		}
		snap.orders[*o.RouteID] = append(snap.orders[*o.RouteID], o)
	}
	for _, op := range ops {
		snap.operators[op.ID] = op
	}
	return snap, nil
}

// dueOn lists, per active route, the orders due on day. Routes with nothing
// due are left out.
func (s *scheduleSnapshot) dueOn(day time.Time) []routeDue {
	var out []routeDue
	for _, rt := range s.routes {
		if rt.ServiceDay != day.Weekday() {
			continue
		}
		var due []*models.Order
		for _, o := range s.orders[rt.ID] {
			if IsOrderDueOn(o, rt, day) {
				due = append(due, o)
			}
		}
		if len(due) > 0 {
			out = append(out, routeDue{route: rt, orders: due})
		}
	}
	return out
}

func (s *scheduleSnapshot) dueCount(day time.Time) int {
	n := 0
	for _, rd := range s.dueOn(day) {
		n += len(rd.orders)
	}
	return n
}

// weekStops counts, per route, the stops due in the seven days from start.
func (s *scheduleSnapshot) weekStops(start time.Time) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.routes))
	for i := 0; i < 7; i++ {
		for _, rd := range s.dueOn(start.AddDate(0, 0, i)) {
			out[rd.route.ID] += len(rd.orders)
		}
	}
	return out
}

func (s *scheduleSnapshot) operatorFor(rt *models.Route) *models.Operator {
	if rt.OperatorID == nil {
		return nil
	}
	return s.operators[*rt.OperatorID]
}
