package services

import (
	"testing"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func routeWithTarget(target *int) *models.Route {
	return &models.Route{ID: uuid.New(), TargetUnits: target}
}

func ordersOn(rt *models.Route, cans ...string) []*models.Order {
	out := make([]*models.Order, 0, len(cans))
	for _, c := range cans {
		c := c
		out = append(out, newOrder(func(o *models.Order) {
			o.RouteID = &rt.ID
			o.Cans = c
		}))
	}
	return out
}

func TestScoreReadiness(t *testing.T) {
	t.Run("no target", func(t *testing.T) {
		for _, target := range []*int{nil, utils.Ptr(0), utils.Ptr(-3)} {
			rt := routeWithTarget(target)
			r := ScoreReadiness(rt, ordersOn(rt, "4"))
			assert.Equal(t, 0, r.Percent)
			assert.Equal(t, 4, r.AssignedUnits)
			assert.Equal(t, "no target set", r.Reason)
			assert.False(t, r.IsFull())
		}
	})
	t.Run("exactly full", func(t *testing.T) {
		rt := routeWithTarget(utils.Ptr(10))
		r := ScoreReadiness(rt, ordersOn(rt, "4", "6"))
		assert.Equal(t, 100, r.Percent)
		assert.True(t, r.IsFull())
	})
	t.Run("clamped", func(t *testing.T) {
		rt := routeWithTarget(utils.Ptr(10))
		r := ScoreReadiness(rt, ordersOn(rt, "15"))
		assert.Equal(t, 100, r.Percent)
		assert.Equal(t, 15, r.AssignedUnits)
	})
	t.Run("rounds", func(t *testing.T) {
		rt := routeWithTarget(utils.Ptr(3))
		r := ScoreReadiness(rt, ordersOn(rt, "2"))
		assert.Equal(t, 67, r.Percent)
	})
	t.Run("lenient units and foreign orders", func(t *testing.T) {
		rt := routeWithTarget(utils.Ptr(10))
		orders := ordersOn(rt, "3 cans", "lots", "", "2.0")
		orders = append(orders, newOrder(func(o *models.Order) { o.Cans = "9" }))
		deleted := ordersOn(rt, "5")[0]
		deleted.IsDeleted = true
		orders = append(orders, deleted)

		r := ScoreReadiness(rt, orders)
		assert.Equal(t, 5, r.AssignedUnits)
		assert.Equal(t, 50, r.Percent)
		assert.Empty(t, r.Reason)
	})
}
