package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

// Age buckets shown in the orders inbox.
const (
	AgeBucketWeek    = "0–7d"
	AgeBucketTwoWeek = "8–14d"
	AgeBucketMonth   = "15–30d"
	AgeBucketOlder   = "31+d"
	AgeBucketUnknown = "unknown"
)

// Geocoder resolves a street address. A nil result with a nil error means no match.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*utils.GeocodeResult, error)
}

// InboxFilter narrows the inbox. Empty fields match everything.
type InboxFilter struct {
	Query   string
	Cadence string
	Age     string
}

type OrderService struct {
	cfg       *config.Config
	orderRepo repositories.OrderRepository
	routeRepo repositories.RouteRepository
	geocoder  Geocoder
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewOrderService accepts a nil geocoder; geocoding then reports ErrServiceNotConfigured.
func NewOrderService(
	cfg *config.Config,
	orderRepo repositories.OrderRepository,
	routeRepo repositories.RouteRepository,
	geocoder Geocoder,
) *OrderService {
	return &OrderService{
		cfg:       cfg,
		orderRepo: orderRepo,
		routeRepo: routeRepo,
		geocoder:  geocoder,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func (s *OrderService) ListOrders(ctx context.Context, includeDeleted bool) ([]dtos.OrderDTO, error) {
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{IncludeDeleted: includeDeleted})
	if err != nil {
		return nil, err
	}
	routesByID, err := s.routeIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderDTO(o, routesByID))
	}
	return out, nil
}

// Inbox lists orders still waiting for a route, grouped by
// cadence, postal zone and age bucket.
func (s *OrderService) Inbox(ctx context.Context, f InboxFilter) ([]dtos.InboxGroupDTO, error) {
	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{Unrouted: true})
	if err != nil {
		return nil, err
	}

	today := utils.LocalToday(s.now(), s.cfg.TimeZone)
	q := strings.ToLower(strings.TrimSpace(f.Query))
	wantCadence := ""
	if strings.TrimSpace(f.Cadence) != "" {
		wantCadence = string(models.NormalizeCadence(f.Cadence))
	}

	groups := make(map[string]*dtos.InboxGroupDTO)
	for _, o := range orders {
		if o.IsCancelled() {
			continue
		}
		if q != "" && !matchesQuery(o, q) {
			continue
		}
		cad := string(models.NormalizeCadence(o.Cadence))
		if wantCadence != "" && cad != wantCadence {
			continue
		}
		age := AgeDays(o.CreatedAt, today, s.cfg.TimeZone)
		bucket := AgeBucket(age)
		if f.Age != "" && f.Age != bucket {
			continue
		}

		if cad == "" {
			cad = "unspecified"
		}
		zone := postalZoneOf(o)
		label := strings.Join([]string{cad, zone, bucket}, constants.AutoRouteNameSep)
		g, ok := groups[label]
		if !ok {
			g = &dtos.InboxGroupDTO{Label: label, Cadence: cad, PostalZone: zone, AgeBucket: bucket}
			groups[label] = g
		}
		g.Orders = append(g.Orders, dtos.InboxOrderDTO{
			OrderDTO: orderDTO(o, nil),
			AgeDays:  age,
		})
	}

	out := make([]dtos.InboxGroupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// AssignRoute links an order to a route, or unlinks it when req.RouteID is nil.
// An order already on a different route is only moved with Force.
func (s *OrderService) AssignRoute(ctx context.Context, orderID uuid.UUID, req dtos.AssignOrderRouteRequest) (*dtos.OrderDTO, error) {
	var target *models.Route
	if req.RouteID != nil {
		rt, err := s.routeRepo.GetByID(ctx, *req.RouteID)
		if err != nil {
			return nil, err
		}
		if rt == nil {
			return nil, utils.ErrRouteNotFound
		}
		if rt.IsCompleted() {
			return nil, fmt.Errorf("%w: route %s is completed", utils.ErrInvalidStatus, rt.ID)
		}
		target = rt
	}

	o, err := s.updateOrder(ctx, orderID, func(o *models.Order) error {
		if o.IsDeleted {
			return utils.ErrOrderNotFound
		}
		if target == nil {
			o.RouteID = nil
			return nil
		}
		if o.RouteID != nil && *o.RouteID != target.ID && !req.Force {
			return utils.ErrOrderAlreadyRoute
		}
		id := target.ID
		o.RouteID = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	routesByID := map[uuid.UUID]*models.Route{}
	if target != nil {
		routesByID[target.ID] = target
	}
	dto := orderDTO(o, routesByID)
	return &dto, nil
}

// SetStatus overwrites the order's status with one of models.OrderStatuses.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*dtos.OrderDTO, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.IsOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidStatus, status)
	}
	o, err := s.updateOrder(ctx, orderID, func(o *models.Order) error {
		if o.IsDeleted {
			return utils.ErrOrderNotFound
		}
		o.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.orderWithRoute(ctx, o)
}

// DeleteOrder soft-deletes an order. The route link is kept so
// archived orders still show where they ran.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error) {
	deletedAt := s.now().UTC()
	o, err := s.updateOrder(ctx, orderID, func(o *models.Order) error {
		if o.IsDeleted {
			return utils.ErrOrderNotFound
		}
		o.IsDeleted = true
		o.DeletedAt = &deletedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.Logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"business": o.BusinessName,
	}).Info("Order archived")
	return s.orderWithRoute(ctx, o)
}

// updateOrder applies mutate under optimistic locking and returns the stored row.
func (s *OrderService) updateOrder(ctx context.Context, orderID uuid.UUID, mutate func(*models.Order) error) (*models.Order, error) {
	err := s.orderRepo.UpdateWithRetry(ctx, orderID, mutate)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, utils.ErrOrderNotFound
	case errors.Is(err, repositories.ErrTooMuchContention):
		return nil, utils.ErrRowVersionConflict
	case err != nil:
		return nil, err
	}

	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, utils.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) orderWithRoute(ctx context.Context, o *models.Order) (*dtos.OrderDTO, error) {
	routesByID := map[uuid.UUID]*models.Route{}
	if o.RouteID != nil {
		rt, err := s.routeRepo.GetByID(ctx, *o.RouteID)
		if err != nil {
			return nil, err
		}
		if rt != nil {
			routesByID[rt.ID] = rt
		}
	}
	dto := orderDTO(o, routesByID)
	return &dto, nil
}

// GeocodeMissing fills coordinates and postal code for up to limit orders that
// have an address but no coordinates. Requests are spaced to stay under the
// geocoder's rate limit. Per-order failures are reported, not returned.
func (s *OrderService) GeocodeMissing(ctx context.Context, limit int) (*dtos.GeocodeOrdersResponse, error) {
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: geocoding needs a Google Maps API key", utils.ErrServiceNotConfigured)
	}
	if limit <= 0 {
		limit = constants.GeocodeBatchLimit
	}

	orders, err := s.orderRepo.List(ctx, repositories.OrderFilter{MissingCoords: true})
	if err != nil {
		return nil, err
	}
	var todo []*models.Order
	for _, o := range orders {
		if strings.TrimSpace(o.Address) != "" {
			todo = append(todo, o)
		}
		if len(todo) == limit {
			break
		}
	}

	resp := &dtos.GeocodeOrdersResponse{}
	for i, o := range todo {
		if i > 0 {
			if err := s.sleep(ctx, constants.GeocodeRequestSpacing); err != nil {
				utils.Logger.WithError(err).Warn("Geocoding batch interrupted")
				break
			}
		}
		resp.Attempted++

		res, err := s.geocoder.Geocode(ctx, o.Address)
		if err != nil {
			resp.Failed = append(resp.Failed, dtos.GeocodeFailureDTO{OrderID: o.ID, Reason: err.Error()})
			continue
		}
		if res == nil {
			resp.Failed = append(resp.Failed, dtos.GeocodeFailureDTO{OrderID: o.ID, Reason: "no match"})
			continue
		}

		err = s.orderRepo.UpdateWithRetry(ctx, o.ID, func(cur *models.Order) error {
			cur.Lat = utils.Ptr(res.Lat)
			cur.Lng = utils.Ptr(res.Lng)
			if res.PostalCode != "" {
				cur.PostalCode = utils.Ptr(res.PostalCode)
			}
			return nil
		})
		if err != nil {
			resp.Failed = append(resp.Failed, dtos.GeocodeFailureDTO{OrderID: o.ID, Reason: err.Error()})
			continue
		}
		resp.Updated++
	}

	utils.Logger.WithFields(logrus.Fields{
		"attempted": resp.Attempted,
		"updated":   resp.Updated,
		"failed":    len(resp.Failed),
	}).Info("Geocoded orders missing coordinates")
	return resp, nil
}

/* ---------- helpers ---------- */

func (s *OrderService) routeIndex(ctx context.Context) (map[uuid.UUID]*models.Route, error) {
	routes, err := s.routeRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return RoutesByID(routes), nil
}

// AgeDays is how many whole days old an order created at createdAt is on
// today, never negative. Nil when the creation time is unknown.
func AgeDays(createdAt time.Time, today time.Time, loc *time.Location) *int {
	if createdAt.IsZero() {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	created := utils.DateOnly(createdAt.In(loc))
	d := int(math.Max(0, float64(utils.DaysBetween(created, today))))
	return &d
}

func AgeBucket(age *int) string {
	switch {
	case age == nil:
		return AgeBucketUnknown
	case *age <= 7:
		return AgeBucketWeek
	case *age <= 14:
		return AgeBucketTwoWeek
	case *age <= 30:
		return AgeBucketMonth
	default:
		return AgeBucketOlder
	}
}

func matchesQuery(o *models.Order, q string) bool {
	return strings.Contains(strings.ToLower(o.BusinessName), q) ||
		strings.Contains(strings.ToLower(o.Address), q) ||
		strings.Contains(o.ID.String(), q)
}

func orderDTO(o *models.Order, routesByID map[uuid.UUID]*models.Route) dtos.OrderDTO {
	return dtos.OrderDTO{
		ID:           o.ID,
		BusinessName: o.BusinessName,
		Address:      o.Address,
		PostalZone:   postalZoneOf(o),
		Lat:          o.Lat,
		Lng:          o.Lng,
		Units:        o.UnitCount(),
		Cadence:      string(models.NormalizeCadence(o.Cadence)),
		Status:       o.Status,
		Stage:        string(ClassifyOrderStage(o, routesByID)),
		RouteID:      o.RouteID,
		Amount:       o.Amount(),
		IsDeleted:    o.IsDeleted,
		DeletedAt:    o.DeletedAt,
		CreatedAt:    o.CreatedAt,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
