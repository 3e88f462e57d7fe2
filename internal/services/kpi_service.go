package services

import (
	"context"
	"math"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/repositories"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
)

type KPIService struct {
	routeRepo    repositories.RouteRepository
	orderRepo    repositories.OrderRepository
	operatorRepo repositories.OperatorRepository
}

func NewKPIService(
	routeRepo repositories.RouteRepository,
	orderRepo repositories.OrderRepository,
	operatorRepo repositories.OperatorRepository,
) *KPIService {
	return &KPIService{routeRepo: routeRepo, orderRepo: orderRepo, operatorRepo: operatorRepo}
}

// WeekSummary totals the scheduled work for the Monday-based week holding
// anyDay. Each due stop books its monthly total (else its due-today amount);
// the operator's payout fraction, default 0.30, is paid out of it.
func (s *KPIService) WeekSummary(ctx context.Context, anyDay time.Time) (*dtos.WeekKPIDTO, error) {
	snap, err := loadScheduleSnapshot(ctx, s.routeRepo, s.orderRepo, s.operatorRepo)
	if err != nil {
		return nil, err
	}

	start := utils.StartOfWeek(anyDay)
	out := &dtos.WeekKPIDTO{
		WeekStart: utils.ISODate{Time: start},
		WeekEnd:   utils.ISODate{Time: start.AddDate(0, 0, 6)},
		Days:      make([]dtos.DayKPIDTO, 0, 7),
	}
	clients := make(map[uuid.UUID]struct{})

	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		dk := dtos.DayKPIDTO{Date: utils.ISODate{Time: day}}
		for _, rd := range snap.dueOn(day) {
			rate := constants.DefaultPayoutFraction
			if op := snap.operatorFor(rd.route); op != nil {
				rate = op.PayoutRate
			}
			for _, o := range rd.orders {
				amt := o.Amount()
				dk.Jobs++
				dk.Gross += amt
				out.Payouts += amt * rate
				clients[o.ID] = struct{}{}
			}
		}
		out.Jobs += dk.Jobs
		out.Gross += dk.Gross
		dk.Gross = roundCents(dk.Gross)
		out.Days = append(out.Days, dk)
	}

	out.Profit = roundCents(math.Max(0, out.Gross-out.Payouts))
	out.Gross = roundCents(out.Gross)
	out.Payouts = roundCents(out.Payouts)
	out.UniqueClients = len(clients)
	return out, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
