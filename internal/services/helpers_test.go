package services

import (
	"testing"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/config"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
)

func mustDate(t *testing.T, iso string) time.Time {
	t.Helper()
	d, ok := utils.ParseISODate(iso)
	if !ok {
		t.Fatalf("bad test date %q", iso)
	}
	return d
}

func datePtr(t *testing.T, iso string) *time.Time {
	d := mustDate(t, iso)
	return &d
}

func newOrder(mods ...func(*models.Order)) *models.Order {
	o := &models.Order{
		ID:           uuid.New(),
		BusinessName: "Cafe",
		Address:      "1 Main St, Springfield, IL 62701",
		Cans:         "1",
		Cadence:      "biweekly",
		Status:       "new",
		CreatedAt:    time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC),
	}
	o.RowVersion = 1
	for _, m := range mods {
		m(o)
	}
	return o
}

func deposited(o *models.Order) { o.IsDeposit = true }

func testConfig() *config.Config {
	return &config.Config{TimeZone: time.UTC}
}

// clockAt pins "now" to midday on iso so the local date is unambiguous.
func clockAt(t *testing.T, iso string) func() time.Time {
	d := mustDate(t, iso).Add(12 * time.Hour)
	return func() time.Time { return d }
}

func newRoute(t *testing.T, day time.Weekday, start string, mods ...func(*models.Route)) *models.Route {
	rt := &models.Route{
		ID:         uuid.New(),
		Name:       "Route " + day.String(),
		ServiceDay: day,
		Cadence:    models.CadenceBiweekly,
		Status:     models.RouteStatusActive,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if start != "" {
		rt.ServiceStartDate = datePtr(t, start)
	}
	rt.RowVersion = 1
	for _, m := range mods {
		m(rt)
	}
	return rt
}

func onRoute(rt *models.Route) func(*models.Order) {
	return func(o *models.Order) {
		id := rt.ID
		o.RouteID = &id
	}
}

func at(lat, lng float64) func(*models.Order) {
	return func(o *models.Order) {
		o.Lat = utils.Ptr(lat)
		o.Lng = utils.Ptr(lng)
	}
}
