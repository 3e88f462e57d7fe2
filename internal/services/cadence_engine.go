package services

import (
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
)

// IsOrderDueOn decides whether an order gets a visit on day. rt may be nil for
// orders still carrying only legacy per-order scheduling fields.
func IsOrderDueOn(o *models.Order, rt *models.Route, day time.Time) bool {
	if !o.BillingActive() {
		return false
	}
	day = utils.DateOnly(day)

	serviceDay, ok := resolveServiceDay(o, rt)
	if !ok || serviceDay != day.Weekday() {
		return false
	}

	anchor := resolveAnchor(o, rt)

	switch resolveCadence(o, rt) {
	case models.CadenceBiweekly:
		return utils.WeeksBetween(anchor, day)%2 == 0
	case models.CadenceMonthly:
		last := o.LastServiceDate
		if last == nil && rt != nil {
			last = rt.LastServiceDate
		}
		if last != nil {
			return utils.DaysBetween(*last, day) >= constants.MonthlyMinElapsedDays
		}
		return !day.Before(utils.DateOnly(anchor))
	default:
		return false
	}
}

// resolveServiceDay prefers the route's weekday; the order's preferred day
// only applies to orders not yet on a route.
func resolveServiceDay(o *models.Order, rt *models.Route) (time.Weekday, bool) {
	if rt != nil {
		return rt.ServiceDay, true
	}
	if o.PreferredServiceDay == nil {
		return 0, false
	}
	return utils.NormalizeWeekday(*o.PreferredServiceDay)
}

func resolveAnchor(o *models.Order, rt *models.Route) time.Time {
	switch {
	case rt != nil && rt.ServiceStartDate != nil:
		return *rt.ServiceStartDate
	case o.RouteStartDate != nil:
		return *o.RouteStartDate
	case o.ServiceStartDate != nil:
		return *o.ServiceStartDate
	default:
		return utils.DateOnly(o.CreatedAt)
	}
}

func resolveCadence(o *models.Order, rt *models.Route) models.Cadence {
	if rt != nil && rt.Cadence != "" {
		return models.NormalizeCadence(string(rt.Cadence))
	}
	return models.NormalizeCadence(o.Cadence)
}

// NextServiceDates projects a route's next two visits on or after today.
// ok is false when the route has no start date or an unsupported cadence.
func NextServiceDates(rt *models.Route, today time.Time) (next, nextNext time.Time, ok bool) {
	if rt == nil || rt.ServiceStartDate == nil {
		return time.Time{}, time.Time{}, false
	}

	var advance func(time.Time) time.Time
	switch models.NormalizeCadence(string(rt.Cadence)) {
	case models.CadenceBiweekly:
		advance = func(d time.Time) time.Time { return d.AddDate(0, 0, constants.BiweeklyIntervalDays) }
	case models.CadenceMonthly:
		advance = func(d time.Time) time.Time { return utils.AddMonthsClamped(d, 1) }
	default:
		return time.Time{}, time.Time{}, false
	}

	today = utils.DateOnly(today)
	next = utils.DateOnly(*rt.ServiceStartDate)
	if rt.LastServiceDate != nil {
		next = advance(utils.DateOnly(*rt.LastServiceDate))
	}
	for i := 0; next.Before(today) && i < constants.MaxNextServiceAdvances; i++ {
		next = advance(next)
	}
	return next, advance(next), true
}
