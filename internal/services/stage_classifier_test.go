package services

import (
	"testing"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassifyOrderStage(t *testing.T) {
	active := &models.Route{ID: uuid.New(), Status: models.RouteStatusActive}
	draft := &models.Route{ID: uuid.New(), Status: models.RouteStatusDraft}
	shouting := &models.Route{ID: uuid.New(), Status: "ACTIVE"}
	routes := RoutesByID([]*models.Route{active, draft, shouting})

	cases := []struct {
		name  string
		order *models.Order
		want  models.OrderStage
	}{
		{"plain new order", newOrder(), models.StageNeedsDeposit},
		{"deposit flag", newOrder(deposited), models.StageDeposited},
		{"paid status", newOrder(func(o *models.Order) { o.PaymentStatus = utils.Ptr("Succeeded") }), models.StageDeposited},
		{"unpaid status", newOrder(func(o *models.Order) { o.PaymentStatus = utils.Ptr("pending") }), models.StageNeedsDeposit},
		{"on draft route", newOrder(func(o *models.Order) { o.RouteID = &draft.ID }), models.StageOnRoute},
		{"on unknown route", newOrder(func(o *models.Order) { o.RouteID = utils.Ptr(uuid.New()) }), models.StageOnRoute},
		{"on active route", newOrder(deposited, func(o *models.Order) { o.RouteID = &active.ID }), models.StageRouteActive},
		{"active status any case", newOrder(func(o *models.Order) { o.RouteID = &shouting.ID }), models.StageRouteActive},
		{"cancelled beats route", newOrder(func(o *models.Order) {
			o.Status = "Cancelled - refunded"
			o.RouteID = &active.ID
		}), models.StageCancelled},
		{"deleted beats everything", newOrder(deposited, func(o *models.Order) {
			o.IsDeleted = true
			o.Status = "cancelled"
			o.RouteID = &active.ID
		}), models.StageArchived},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyOrderStage(tc.order, routes))
		})
	}
}

func TestClassifyOrderStage_NilRouteMap(t *testing.T) {
	o := newOrder(func(o *models.Order) { o.RouteID = utils.Ptr(uuid.New()) })
	assert.Equal(t, models.StageOnRoute, ClassifyOrderStage(o, nil))
}
