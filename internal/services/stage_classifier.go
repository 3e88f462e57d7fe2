package services

import (
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
)

// ClassifyOrderStage derives the display stage from an order's flags and its
// linked route. The first matching rule wins:
//
//	deleted → archived, cancelled → cancelled, active route → route active,
//	any route → on route, deposit paid → deposited, else needs deposit.
func ClassifyOrderStage(o *models.Order, routesByID map[uuid.UUID]*models.Route) models.OrderStage {
	if o.IsDeleted {
		return models.StageArchived
	}
	if o.IsCancelled() {
		return models.StageCancelled
	}

	deposited := IsDeposited(o)

	routeActive := false
	if o.RouteID != nil {
		if rt, ok := routesByID[*o.RouteID]; ok && rt != nil {
			routeActive = rt.IsActive()
		}
	}

	switch {
	case routeActive:
		return models.StageRouteActive
	case o.RouteID != nil:
		return models.StageOnRoute
	case deposited:
		return models.StageDeposited
	default:
		return models.StageNeedsDeposit
	}
}

// IsDeposited is true once payment was captured or the order is flagged as a deposit.
func IsDeposited(o *models.Order) bool {
	if o.PaymentStatus != nil && models.IsPaidStatus(*o.PaymentStatus) {
		return true
	}
	return o.IsDeposit
}

// RoutesByID indexes routes for stage lookups.
func RoutesByID(routes []*models.Route) map[uuid.UUID]*models.Route {
	m := make(map[uuid.UUID]*models.Route, len(routes))
	for _, rt := range routes {
		m[rt.ID] = rt
	}
	return m
}

func postalZoneOf(o *models.Order) string {
	return utils.PostalZone(o.PostalCode, o.Address)
}
