package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

type RouteService struct {
	cfg          *config.Config
	routeRepo    repositories.RouteRepository
	orderRepo    repositories.OrderRepository
	operatorRepo repositories.OperatorRepository
	now          func() time.Time
}

func NewRouteService(
	cfg *config.Config,
	routeRepo repositories.RouteRepository,
	orderRepo repositories.OrderRepository,
	operatorRepo repositories.OperatorRepository,
) *RouteService {
	return &RouteService{
		cfg:          cfg,
		routeRepo:    routeRepo,
		orderRepo:    orderRepo,
		operatorRepo: operatorRepo,
		now:          time.Now,
	}
}

func (s *RouteService) today() time.Time {
	return utils.LocalToday(s.now(), s.cfg.TimeZone)
}

/* ---------- Reads ---------- */

// ListRoutes returns every route with its readiness, linked order count and
// next projected service date.
func (s *RouteService) ListRoutes(ctx context.Context) ([]dtos.RouteDTO, error) {
	routes, err := s.routeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{})
	if err != nil {
		return nil, err
	}

	byRoute := make(map[uuid.UUID][]*models.Order)
	for _, o := range orders {
		if o.RouteID != nil {
			byRoute[*o.RouteID] = append(byRoute[*o.RouteID], o)
		}
	}

	today := s.today()
	out := make([]dtos.RouteDTO, 0, len(routes))
	for _, rt := range routes {
		out = append(out, s.routeDTO(rt, byRoute[rt.ID], today))
	}
	return out, nil
}

func (s *RouteService) GetRoute(ctx context.Context, id uuid.UUID) (*dtos.RouteDTO, error) {
	rt, err := s.mustGetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{RouteID: &rt.ID})
	if err != nil {
		return nil, err
	}
	dto := s.routeDTO(rt, orders, s.today())
	return &dto, nil
}

func (s *RouteService) Readiness(ctx context.Context, id uuid.UUID) (*dtos.ReadinessDTO, error) {
	rt, err := s.mustGetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{RouteID: &rt.ID})
	if err != nil {
		return nil, err
	}
	r := readinessDTO(ScoreReadiness(rt, orders))
	return &r, nil
}

// Schedule projects the route's next two visits. Computable is false when the
// route has no start date or a cadence without a fixed interval.
func (s *RouteService) Schedule(ctx context.Context, id uuid.UUID) (*dtos.RouteScheduleDTO, error) {
	rt, err := s.mustGetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &dtos.RouteScheduleDTO{RouteID: rt.ID}
	next, following, ok := NextServiceDates(rt, s.today())
	if !ok {
		return out, nil
	}
	out.Computable = true
	out.NextServiceDate = utils.ISODate{Time: next}
	out.FollowingServiceDate = utils.ISODate{Time: following}
	out.NextIsHoliday = utils.IsUSFedHoliday(next)
	return out, nil
}

// Stops returns the route's live orders in visiting order. Cancelled orders
// stay linked but are not visited.
func (s *RouteService) Stops(ctx context.Context, id uuid.UUID) ([]Stop, error) {
	rt, err := s.mustGetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{RouteID: &rt.ID})
	if err != nil {
		return nil, err
	}
	stops := make([]Stop, 0, len(orders))
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		stops = append(stops, StopFromOrder(o))
	}
	return SequenceStops(stops), nil
}

/* ---------- Writes ---------- */

func (s *RouteService) CreateRoute(ctx context.Context, req dtos.CreateRouteRequest) (*dtos.RouteDTO, error) {
	if req.OperatorID != nil {
		if err := s.ensureOperator(ctx, *req.OperatorID); err != nil {
			return nil, err
		}
	}

	rt := &models.Route{
		Name:             strings.TrimSpace(req.Name),
		ServiceDay:       time.Weekday(req.ServiceDay),
		Cadence:          models.NormalizeCadence(req.Cadence),
		ServiceStartDate: req.ServiceStartDate.Ptr(),
		TargetUnits:      req.TargetUnits,
		Status:           models.RouteStatusDraft,
		OperatorID:       req.OperatorID,
	}
	if err := s.routeRepo.Create(ctx, rt); err != nil {
		return nil, mapRouteWriteErr(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"route_id": rt.ID,
		"name":     rt.Name,
	}).Info("Route created")

	dto := s.routeDTO(rt, nil, s.today())
	return &dto, nil
}

func (s *RouteService) UpdateRoute(ctx context.Context, id uuid.UUID, req dtos.UpdateRouteRequest) (*dtos.RouteDTO, error) {
	if req.OperatorID != nil && !req.ClearOperator {
		if err := s.ensureOperator(ctx, *req.OperatorID); err != nil {
			return nil, err
		}
	}

	err := s.routeRepo.UpdateWithRetry(ctx, id, func(rt *models.Route) error {
		if req.Name != nil {
			rt.Name = strings.TrimSpace(*req.Name)
		}
		if req.ServiceDay != nil {
			rt.ServiceDay = time.Weekday(*req.ServiceDay)
		}
		if req.Cadence != nil {
			rt.Cadence = models.NormalizeCadence(*req.Cadence)
		}
		if req.ServiceStartDate != nil {
			rt.ServiceStartDate = req.ServiceStartDate.Ptr()
		}
		if req.LastServiceDate != nil {
			rt.LastServiceDate = req.LastServiceDate.Ptr()
		}
		if req.TargetUnits != nil {
			rt.TargetUnits = req.TargetUnits
		}
		switch {
		case req.ClearOperator:
			rt.OperatorID = nil
		case req.OperatorID != nil:
			rt.OperatorID = req.OperatorID
		}
		return nil
	})
	if err != nil {
		return nil, mapRouteWriteErr(err)
	}
	return s.GetRoute(ctx, id)
}

// DeleteRoute unlinks every order first so no order is left pointing at a
// missing route.
func (s *RouteService) DeleteRoute(ctx context.Context, id uuid.UUID) (*dtos.DeleteRouteResponse, error) {
	rt, err := s.mustGetRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	unlinked, err := s.orderRepo.ClearRouteFromOrders(ctx, rt.ID)
	if err != nil {
		return nil, fmt.Errorf("unlinking orders from route %s: %w", rt.ID, err)
	}
	tag, err := s.routeRepo.Delete(ctx, rt.ID)
	if err != nil {
		return nil, fmt.Errorf("deleting route %s: %w", rt.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, utils.ErrRouteNotFound
	}

	utils.Logger.WithFields(logrus.Fields{
		"route_id":        rt.ID,
		"orders_unlinked": unlinked,
	}).Info("Route deleted")
	return &dtos.DeleteRouteResponse{RouteID: rt.ID, OrdersUnlinked: unlinked}, nil
}

// SetStatus moves a route through draft/ready/active/completed. When the
// readiness gate is enforced a route must be full before it can go active.
// Activating a route without a start date anchors it on the first service
// weekday on or after today.
func (s *RouteService) SetStatus(ctx context.Context, id uuid.UUID, raw string) (*dtos.RouteDTO, error) {
	status, ok := models.ParseRouteStatus(raw)
	if !ok {
		return nil, utils.ErrInvalidStatus
	}

	if status == models.RouteStatusActive && s.cfg.LDFlag_EnforceReadinessGate {
		r, err := s.Readiness(ctx, id)
		if err != nil {
			return nil, err
		}
		if r.TargetUnits <= 0 || r.Percent < 100 {
			return nil, utils.ErrRouteNotReady
		}
	}

	today := s.today()
	err := s.routeRepo.UpdateWithRetry(ctx, id, func(rt *models.Route) error {
		rt.Status = status
		if status == models.RouteStatusActive && rt.ServiceStartDate == nil {
			start := today
			if start.Weekday() != rt.ServiceDay {
				start = utils.NextDateForWeekday(rt.ServiceDay, today)
			}
			rt.ServiceStartDate = &start
		}
		return nil
	})
	if err != nil {
		return nil, mapRouteWriteErr(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"route_id": id,
		"status":   status,
	}).Info("Route status changed")
	return s.GetRoute(ctx, id)
}

/* ---------- internals ---------- */

func (s *RouteService) mustGetRoute(ctx context.Context, id uuid.UUID) (*models.Route, error) {
	rt, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, utils.ErrRouteNotFound
	}
	return rt, nil
}

func (s *RouteService) ensureOperator(ctx context.Context, id uuid.UUID) error {
	op, err := s.operatorRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if op == nil {
		return utils.ErrOperatorNotFound
	}
	return nil
}

func (s *RouteService) routeDTO(rt *models.Route, orders []*models.Order, today time.Time) dtos.RouteDTO {
	dto := dtos.RouteDTO{
		ID:          rt.ID,
		Name:        rt.Name,
		ServiceDay:  int(rt.ServiceDay),
		Cadence:     string(rt.Cadence),
		TargetUnits: rt.TargetUnits,
		Status:      string(rt.Status),
		OperatorID:  rt.OperatorID,
		RowVersion:  rt.RowVersion,
		Readiness:   readinessDTO(ScoreReadiness(rt, orders)),
	}
	if rt.ServiceStartDate != nil {
		dto.ServiceStartDate = utils.ISODate{Time: *rt.ServiceStartDate}
	}
	if rt.LastServiceDate != nil {
		dto.LastServiceDate = utils.ISODate{Time: *rt.LastServiceDate}
	}
	for _, o := range orders {
		if !o.IsDeleted {
			dto.OrderCount++
		}
	}
	if next, _, ok := NextServiceDates(rt, today); ok {
		dto.NextServiceDate = utils.ISODate{Time: next}
	}
	return dto
}

func readinessDTO(r Readiness) dtos.ReadinessDTO {
	return dtos.ReadinessDTO{
		Percent:       r.Percent,
		AssignedUnits: r.AssignedUnits,
		TargetUnits:   r.TargetUnits,
		Reason:        r.Reason,
	}
}

func mapRouteWriteErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return utils.ErrRouteNotFound
	case errors.Is(err, repositories.ErrTooMuchContention):
		return utils.ErrRowVersionConflict
	case repositories.IsUniqueViolation(err):
		return utils.ErrRouteNameTaken
	}
	return err
}
