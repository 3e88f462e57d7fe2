package services

import (
	"context"
	"errors"
	"math"
	"sort"
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

// TravelEstimator returns driving miles and minutes between two points.
type TravelEstimator func(ctx context.Context, lat1, lng1, lat2, lng2 float64) (float64, int)

type DispatchService struct {
	cfg          *config.Config
	routeRepo    repositories.RouteRepository
	orderRepo    repositories.OrderRepository
	operatorRepo repositories.OperatorRepository
	travel       TravelEstimator
	now          func() time.Time
}

func NewDispatchService(
	cfg *config.Config,
	routeRepo repositories.RouteRepository,
	orderRepo repositories.OrderRepository,
	operatorRepo repositories.OperatorRepository,
) *DispatchService {
	apiKey := ""
	if cfg.LDFlag_UseGMapsRoutesAPI {
		apiKey = cfg.GMapsAPIKey
	}
	return &DispatchService{
		cfg:          cfg,
		routeRepo:    routeRepo,
		orderRepo:    orderRepo,
		operatorRepo: operatorRepo,
		travel: func(ctx context.Context, lat1, lng1, lat2, lng2 float64) (float64, int) {
			return utils.DriveEstimate(ctx, lat1, lng1, lat2, lng2, apiKey)
		},
		now: time.Now,
	}
}

func (s *DispatchService) Today() time.Time {
	return utils.LocalToday(s.now(), s.cfg.TimeZone)
}

// BuildRunSheet lists, for every active route serviced on date, the orders due
// that day in visiting order with leg distances between located stops.
func (s *DispatchService) BuildRunSheet(ctx context.Context, date time.Time) (*dtos.RunSheetDTO, error) {
	day := utils.DateOnly(date)
	snap, err := loadScheduleSnapshot(ctx, s.routeRepo, s.orderRepo, s.operatorRepo)
	if err != nil {
		return nil, err
	}

	holiday, isHoliday := utils.USFedHoliday(day)
	sheet := &dtos.RunSheetDTO{
		Date:        utils.ISODate{Time: day},
		Holiday:     isHoliday,
		HolidayName: holiday,
		Routes:      []dtos.RouteRunDTO{},
	}
	for _, rd := range snap.dueOn(day) {
		run := s.buildRouteRun(ctx, rd, snap.operatorFor(rd.route))
		sheet.TotalStops += len(run.Stops)
		sheet.Routes = append(sheet.Routes, run)
	}

	utils.Logger.WithFields(logrus.Fields{
		"date":   utils.FormatISODate(day),
		"routes": len(sheet.Routes),
		"stops":  sheet.TotalStops,
	}).Debug("Built run sheet")
	return sheet, nil
}

func (s *DispatchService) buildRouteRun(ctx context.Context, rd routeDue, op *models.Operator) dtos.RouteRunDTO {
	amounts := make(map[uuid.UUID]float64, len(rd.orders))
	stops := make([]Stop, 0, len(rd.orders))
	for _, o := range rd.orders {
		amounts[o.ID] = o.Amount()
		stops = append(stops, StopFromOrder(o))
	}
	stops = SequenceStops(stops)

	run := dtos.RouteRunDTO{
		RouteID:   rd.route.ID,
		RouteName: rd.route.Name,
		Cadence:   string(rd.route.Cadence),
		Operator:  operatorDTO(op),
		Stops:     make([]dtos.RunStopDTO, 0, len(stops)),
	}

	var prev *Stop
	for i, st := range stops {
		rs := dtos.RunStopDTO{
			StopDTO: stopDTO(i+1, st),
			Amount:  amounts[st.OrderID],
		}
		if prev != nil && prev.hasCoords() && st.hasCoords() {
			miles, mins := s.travel(ctx, *prev.Lat, *prev.Lng, *st.Lat, *st.Lng)
			rs.LegMiles = utils.Ptr(miles)
			rs.LegMinutes = utils.Ptr(mins)
			run.TotalMiles += miles
			run.TotalMinutes += mins
		}
		run.Stops = append(run.Stops, rs)
		prev = &stops[i]
	}
	run.TotalMiles = math.Round(run.TotalMiles*10) / 10
	return run
}

// NextOpening finds the first weekday from today whose due-stop count is below
// the daily capacity.
func (s *DispatchService) NextOpening(ctx context.Context) (*dtos.NextOpeningDTO, error) {
	snap, err := loadScheduleSnapshot(ctx, s.routeRepo, s.orderRepo, s.operatorRepo)
	if err != nil {
		return nil, err
	}

	out := &dtos.NextOpeningDTO{
		Capacity:      constants.DailyStopCapacity,
		LookaheadDays: constants.NextOpeningLookaheadDay,
	}
	today := s.Today()
	for i := 0; i <= constants.NextOpeningLookaheadDay; i++ {
		d := today.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if n := snap.dueCount(d); n < constants.DailyStopCapacity {
			out.Available = true
			out.Date = utils.ISODate{Time: d}
			out.Booked = n
			return out, nil
		}
	}
	return out, nil
}

func stopDTO(number int, st Stop) dtos.StopDTO {
	return dtos.StopDTO{
		Number:       number,
		OrderID:      st.OrderID,
		BusinessName: st.BusinessName,
		Address:      st.Address,
		PostalCode:   st.PostalCode,
		Lat:          st.Lat,
		Lng:          st.Lng,
	}
}

// StopDTOs numbers sequenced stops from 1.
func StopDTOs(stops []Stop) []dtos.StopDTO {
	out := make([]dtos.StopDTO, 0, len(stops))
	for i, st := range stops {
		out = append(out, stopDTO(i+1, st))
	}
	return out
}

var errRouteStaffed = errors.New("route staffed concurrently")

// AutoAssignOperators staffs every active route that has no active operator
// with the least-loaded active operator. Load is the number of stops due in
// the Monday-based week holding weekDay; routes with the most stops are
// placed first and ties go to the operator whose name sorts first.
func (s *DispatchService) AutoAssignOperators(ctx context.Context, weekDay time.Time) (*dtos.AutoAssignResponse, error) {
	snap, err := loadScheduleSnapshot(ctx, s.routeRepo, s.orderRepo, s.operatorRepo)
	if err != nil {
		return nil, err
	}
	if len(snap.operators) == 0 {
		return nil, utils.ErrNoActiveOperators
	}

	start := utils.StartOfWeek(weekDay)
	stops := snap.weekStops(start)

	load := make(map[uuid.UUID]int, len(snap.operators))
	ops := make([]*models.Operator, 0, len(snap.operators))
	for _, op := range snap.operators {
		load[op.ID] = 0
		ops = append(ops, op)
	}
	var unstaffed []*models.Route
	for _, rt := range snap.routes {
		if op := snap.operatorFor(rt); op != nil {
			load[op.ID] += stops[rt.ID]
			continue
		}
		unstaffed = append(unstaffed, rt)
	}
	sort.SliceStable(unstaffed, func(i, j int) bool {
		if stops[unstaffed[i].ID] != stops[unstaffed[j].ID] {
			return stops[unstaffed[i].ID] > stops[unstaffed[j].ID]
		}
		return unstaffed[i].Name < unstaffed[j].Name
	})

	out := &dtos.AutoAssignResponse{
		WeekStart:   utils.ISODate{Time: start},
		Assignments: []dtos.AutoAssignmentDTO{},
	}
	for _, rt := range unstaffed {
		op := leastLoaded(ops, load)
		previous := rt.OperatorID
		err := s.routeRepo.UpdateWithRetry(ctx, rt.ID, func(cur *models.Route) error {
			if !sameOperator(cur.OperatorID, previous) {
				return errRouteStaffed
			}
			id := op.ID
			cur.OperatorID = &id
			return nil
		})
		switch {
		case errors.Is(err, errRouteStaffed), errors.Is(err, pgx.ErrNoRows):
			continue
		case errors.Is(err, repositories.ErrTooMuchContention):
			return nil, utils.ErrRowVersionConflict
		case err != nil:
			return nil, err
		}

		load[op.ID] += stops[rt.ID]
		out.Assignments = append(out.Assignments, dtos.AutoAssignmentDTO{
			RouteID:      rt.ID,
			RouteName:    rt.Name,
			OperatorID:   op.ID,
			OperatorName: op.Name,
			Stops:        stops[rt.ID],
		})
	}

	utils.Logger.WithFields(logrus.Fields{
		"week_start": utils.FormatISODate(start),
		"assigned":   len(out.Assignments),
		"unstaffed":  len(unstaffed),
	}).Info("Auto-assigned operators")
	return out, nil
}

func leastLoaded(ops []*models.Operator, load map[uuid.UUID]int) *models.Operator {
	var best *models.Operator
	for _, op := range ops {
		if best == nil {
			best = op
			continue
		}
		switch {
		case load[op.ID] < load[best.ID]:
			best = op
		case load[op.ID] == load[best.ID] && op.Name < best.Name:
			best = op
		case load[op.ID] == load[best.ID] && op.Name == best.Name && op.ID.String() < best.ID.String():
			best = op
		}
	}
	return best
}

func sameOperator(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
