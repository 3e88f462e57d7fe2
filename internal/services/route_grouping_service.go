package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const unknownCadenceLabel = "unspecified"

// GroupKey identifies one auto-route bucket.
type GroupKey struct {
	Cadence models.Cadence `json:"cadence"`
	Postal  string         `json:"postal"`
}

// RouteName is the deterministic name the bucket's draft route carries.
func (k GroupKey) RouteName() string {
	cad := string(k.Cadence)
	if cad == "" {
		cad = unknownCadenceLabel
	}
	return strings.Join([]string{constants.AutoRouteNamePrefix, cad, k.Postal}, constants.AutoRouteNameSep)
}

type GroupOutcome struct {
	Key          GroupKey   `json:"key"`
	RouteID      *uuid.UUID `json:"route_id,omitempty"`
	RouteName    string     `json:"route_name"`
	RouteCreated bool       `json:"route_created"`
	Assigned     int        `json:"assigned"`
	Skipped      int        `json:"skipped"`
	Error        string     `json:"error,omitempty"`
}

type GroupingResult struct {
	Eligible       int            `json:"eligible"`
	RoutesCreated  int            `json:"routes_created"`
	OrdersAssigned int            `json:"orders_assigned"`
	Groups         []GroupOutcome `json:"groups"`
	Failed         int            `json:"failed_groups"`
}

type RouteGroupingService struct {
	orderRepo repositories.OrderRepository
	routeRepo repositories.RouteRepository
}

func NewRouteGroupingService(
	orderRepo repositories.OrderRepository,
	routeRepo repositories.RouteRepository,
) *RouteGroupingService {
	return &RouteGroupingService{
		orderRepo: orderRepo,
		routeRepo: routeRepo,
	}
}

type orderGroup struct {
	key    GroupKey
	orders []*models.Order
}

// AutoGroup links every deposited, unrouted order to the draft route for its
// (cadence, postal zone) bucket. A failing bucket is recorded and the run
// moves on to the next one.
func (s *RouteGroupingService) AutoGroup(ctx context.Context) (*GroupingResult, error) {
	unrouted, err := s.orderRepo.List(ctx, repositories.OrderFilter{Unrouted: true})
	if err != nil {
		return nil, fmt.Errorf("listing unrouted orders: %w", err)
	}

	groups := groupEligibleOrders(unrouted)
	res := &GroupingResult{Groups: make([]GroupOutcome, 0, len(groups))}
	for _, g := range groups {
		res.Eligible += len(g.orders)
	}

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.processGroup(ctx, g)
		if out.RouteCreated {
			res.RoutesCreated++
		}
		if out.Error != "" {
			res.Failed++
			utils.Logger.WithField("route_name", out.RouteName).
				Warnf("Auto-group stopped for bucket: %s", out.Error)
		}
		res.OrdersAssigned += out.Assigned
		res.Groups = append(res.Groups, out)
	}

	utils.Logger.WithFields(logrus.Fields{
		"eligible":       res.Eligible,
		"routes_created": res.RoutesCreated,
		"assigned":       res.OrdersAssigned,
		"failed_groups":  res.Failed,
	}).Info("Auto-group finished")
	return res, nil
}

// groupEligibleOrders buckets deposited, unrouted orders by cadence and postal
// zone, keeping first-seen bucket order.
func groupEligibleOrders(orders []*models.Order) []*orderGroup {
	var groups []*orderGroup
	index := map[GroupKey]*orderGroup{}

	for _, o := range orders {
		if o.RouteID != nil || ClassifyOrderStage(o, nil) != models.StageDeposited {
			continue
		}
		key := GroupKey{
			Cadence: models.NormalizeCadence(o.Cadence),
			Postal:  utils.PostalZone(o.PostalCode, o.Address),
		}
		g, ok := index[key]
		if !ok {
			g = &orderGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.orders = append(g.orders, o)
	}
	return groups
}

func (s *RouteGroupingService) processGroup(ctx context.Context, g *orderGroup) GroupOutcome {
	out := GroupOutcome{Key: g.key, RouteName: g.key.RouteName()}

	rt, created, err := s.resolveRoute(ctx, g)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.RouteID = &rt.ID
	out.RouteCreated = created

	for _, o := range g.orders {
		tag, err := s.orderRepo.AssignRouteIfUnrouted(ctx, o.ID, rt.ID)
		if err != nil {
			out.Error = fmt.Sprintf("assigning order %s: %v", o.ID, err)
			return out
		}
		if tag.RowsAffected() == 0 {
			// routed or deleted since we listed it
			out.Skipped++
			continue
		}
		out.Assigned++
	}
	return out
}

// resolveRoute reuses the open route carrying the bucket's name, or creates
// a draft. A concurrent creator losing the unique-name race re-reads.
func (s *RouteGroupingService) resolveRoute(ctx context.Context, g *orderGroup) (*models.Route, bool, error) {
	name := g.key.RouteName()

	existing, err := s.routeRepo.GetOpenByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("looking up route %q: %w", name, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	target := len(g.orders)
	rt := &models.Route{
		ID:          uuid.New(),
		Name:        name,
		ServiceDay:  MostCommonServiceDay(g.orders),
		Cadence:     g.key.Cadence,
		TargetUnits: &target,
		Status:      models.RouteStatusDraft,
	}
	if err := s.routeRepo.Create(ctx, rt); err != nil {
		if !repositories.IsUniqueViolation(err) {
			return nil, false, fmt.Errorf("creating route %q: %w", name, err)
		}
		existing, rerr := s.routeRepo.GetOpenByName(ctx, name)
		if rerr != nil || existing == nil {
			return nil, false, fmt.Errorf("creating route %q: %w", name, err)
		}
		return existing, false, nil
	}
	utils.Logger.WithField("route_id", rt.ID).Infof("Created draft route %q", name)
	return rt, true, nil
}

// MostCommonServiceDay picks the most requested weekday; ties go to the day
// seen first. Monday when no order states one.
func MostCommonServiceDay(orders []*models.Order) time.Weekday {
	counts := map[time.Weekday]int{}
	var seen []time.Weekday
	for _, o := range orders {
		if o.PreferredServiceDay == nil {
			continue
		}
		wd, ok := utils.NormalizeWeekday(*o.PreferredServiceDay)
		if !ok {
			continue
		}
		if counts[wd] == 0 {
			seen = append(seen, wd)
		}
		counts[wd]++
	}
	if len(seen) == 0 {
		return constants.DefaultServiceDay
	}
	best := seen[0]
	for _, wd := range seen[1:] {
		if counts[wd] > counts[best] {
			best = wd
		}
	}
	return best
}
