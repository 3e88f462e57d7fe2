package services

import (
	"math"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
)

type Readiness struct {
	Percent       int    `json:"percent"`
	AssignedUnits int    `json:"assigned_units"`
	TargetUnits   int    `json:"target_units"`
	Reason        string `json:"reason,omitempty"`
}

// ScoreReadiness measures how full a route is against its unit target.
// Orders not linked to rt, or soft-deleted, are ignored.
func ScoreReadiness(rt *models.Route, orders []*models.Order) Readiness {
	assigned := 0
	for _, o := range orders {
		if o.IsDeleted || o.RouteID == nil || *o.RouteID != rt.ID {
			continue
		}
		assigned += o.UnitCount()
	}

	target := 0
	if rt.TargetUnits != nil {
		target = *rt.TargetUnits
	}
	if target <= 0 {
		return Readiness{
			Percent:       0,
			AssignedUnits: assigned,
			TargetUnits:   0,
			Reason:        constants.ReasonNoTarget,
		}
	}

	pct := math.Min(100, float64(assigned)/float64(target)*100)
	return Readiness{
		Percent:       int(math.Round(pct)),
		AssignedUnits: assigned,
		TargetUnits:   target,
	}
}

func (r Readiness) IsFull() bool {
	return r.TargetUnits > 0 && r.Percent >= 100
}
