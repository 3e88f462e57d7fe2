package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/dtos"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	results map[string]*utils.GeocodeResult
	errs    map[string]error
	calls   []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*utils.GeocodeResult, error) {
	g.calls = append(g.calls, address)
	if err := g.errs[address]; err != nil {
		return nil, err
	}
	return g.results[address], nil
}

func newTestOrderService(t *testing.T, now string, orders *fakeOrderRepo, routes *fakeRouteRepo, geo Geocoder) *OrderService {
	svc := NewOrderService(testConfig(), orders, routes, geo)
	svc.now = clockAt(t, now)
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func createdOn(t *testing.T, iso string) func(*models.Order) {
	return func(o *models.Order) { o.CreatedAt = mustDate(t, iso).Add(9 * time.Hour) }
}

func TestAgeBucket(t *testing.T) {
	cases := []struct {
		age  *int
		want string
	}{
		{nil, AgeBucketUnknown},
		{utils.Ptr(0), AgeBucketWeek},
		{utils.Ptr(7), AgeBucketWeek},
		{utils.Ptr(8), AgeBucketTwoWeek},
		{utils.Ptr(14), AgeBucketTwoWeek},
		{utils.Ptr(15), AgeBucketMonth},
		{utils.Ptr(30), AgeBucketMonth},
		{utils.Ptr(31), AgeBucketOlder},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AgeBucket(c.age))
	}
}

func TestAgeDays(t *testing.T) {
	today := mustDate(t, "2026-04-20")
	assert.Nil(t, AgeDays(time.Time{}, today, time.UTC))
	assert.Equal(t, 5, *AgeDays(mustDate(t, "2026-04-15").Add(23*time.Hour), today, time.UTC))
	assert.Equal(t, 0, *AgeDays(mustDate(t, "2026-04-25"), today, time.UTC), "future dates clamp to zero")

	// 03:00 UTC on the 15th is still the 14th in Chicago
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	assert.Equal(t, 6, *AgeDays(mustDate(t, "2026-04-15").Add(3*time.Hour), today, chicago))
}

func TestOrderService_Inbox(t *testing.T) {
	ctx := context.Background()
	rt := newRoute(t, time.Monday, "2026-04-06")

	fresh1 := newOrder(createdOn(t, "2026-04-15"), func(o *models.Order) { o.BusinessName = "Taco Hut" })
	fresh2 := newOrder(createdOn(t, "2026-04-18"), func(o *models.Order) { o.Cadence = "Bi-weekly" })
	older := newOrder(createdOn(t, "2026-04-01"))
	monthly := newOrder(createdOn(t, "2026-01-02"), func(o *models.Order) {
		o.Cadence = "monthly"
		o.Address = "no zip here"
	})
	unknownAge := newOrder(func(o *models.Order) { o.CreatedAt = time.Time{} })
	routed := newOrder(onRoute(rt))
	cancelled := newOrder(func(o *models.Order) { o.Status = "Cancelled - moved" })
	deleted := newOrder(func(o *models.Order) { o.IsDeleted = true })

	orders := newFakeOrderRepo(fresh1, fresh2, older, monthly, unknownAge, routed, cancelled, deleted)
	svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(rt), nil)

	groups, err := svc.Inbox(ctx, InboxFilter{})
	require.NoError(t, err)

	labels := make([]string, 0, len(groups))
	byLabel := map[string]dtos.InboxGroupDTO{}
	for _, g := range groups {
		labels = append(labels, g.Label)
		byLabel[g.Label] = g
	}
	assert.Equal(t, []string{
		"biweekly • 62701 • 0–7d",
		"biweekly • 62701 • 15–30d",
		"biweekly • 62701 • unknown",
		"monthly • no-postal • 31+d",
	}, labels)

	week := byLabel["biweekly • 62701 • 0–7d"]
	require.Len(t, week.Orders, 2)
	assert.Equal(t, fresh1.ID, week.Orders[0].ID)
	assert.Equal(t, 5, *week.Orders[0].AgeDays)
	assert.Equal(t, "needs deposit", week.Orders[0].Stage)
	assert.Nil(t, byLabel["biweekly • 62701 • unknown"].Orders[0].AgeDays)

	t.Run("filters", func(t *testing.T) {
		g, err := svc.Inbox(ctx, InboxFilter{Query: "taco"})
		require.NoError(t, err)
		require.Len(t, g, 1)
		assert.Equal(t, fresh1.ID, g[0].Orders[0].ID)

		g, err = svc.Inbox(ctx, InboxFilter{Query: older.ID.String()[:8]})
		require.NoError(t, err)
		require.Len(t, g, 1)
		assert.Equal(t, older.ID, g[0].Orders[0].ID)

		g, err = svc.Inbox(ctx, InboxFilter{Cadence: "Monthly"})
		require.NoError(t, err)
		require.Len(t, g, 1)
		assert.Equal(t, monthly.ID, g[0].Orders[0].ID)

		g, err = svc.Inbox(ctx, InboxFilter{Age: AgeBucketMonth})
		require.NoError(t, err)
		require.Len(t, g, 1)
		assert.Equal(t, older.ID, g[0].Orders[0].ID)
	})
}

func TestOrderService_ListOrders_Stages(t *testing.T) {
	ctx := context.Background()
	active := newRoute(t, time.Monday, "2026-04-06")
	draft := newRoute(t, time.Tuesday, "", func(r *models.Route) { r.Status = models.RouteStatusDraft })

	orders := newFakeOrderRepo(
		newOrder(onRoute(active)),
		newOrder(onRoute(draft)),
		newOrder(deposited),
		newOrder(func(o *models.Order) { o.IsDeleted = true }),
	)
	svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(active, draft), nil)

	live, err := svc.ListOrders(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 3)
	assert.Equal(t, "route active", live[0].Stage)
	assert.Equal(t, "on route", live[1].Stage)
	assert.Equal(t, "deposited", live[2].Stage)

	all, err := svc.ListOrders(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "archived", all[3].Stage)
}

func TestOrderService_AssignRoute(t *testing.T) {
	ctx := context.Background()
	rtA := newRoute(t, time.Monday, "2026-04-06")
	rtB := newRoute(t, time.Tuesday, "2026-04-07")
	done := newRoute(t, time.Friday, "", func(r *models.Route) { r.Status = models.RouteStatusCompleted })

	o := newOrder()
	orders := newFakeOrderRepo(o)
	svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(rtA, rtB, done), nil)

	got, err := svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: &rtA.ID})
	require.NoError(t, err)
	assert.Equal(t, rtA.ID, *got.RouteID)
	assert.Equal(t, "route active", got.Stage)

	// same route again is a no-op success
	_, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: &rtA.ID})
	require.NoError(t, err)

	_, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: &rtB.ID})
	assert.ErrorIs(t, err, utils.ErrOrderAlreadyRoute)
	assert.Equal(t, rtA.ID, *o.RouteID)

	got, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: &rtB.ID, Force: true})
	require.NoError(t, err)
	assert.Equal(t, rtB.ID, *got.RouteID)

	got, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{})
	require.NoError(t, err)
	assert.Nil(t, got.RouteID)

	_, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: &done.ID})
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)

	_, err = svc.AssignRoute(ctx, o.ID, dtos.AssignOrderRouteRequest{RouteID: utils.Ptr(uuid.New())})
	assert.ErrorIs(t, err, utils.ErrRouteNotFound)

	_, err = svc.AssignRoute(ctx, uuid.New(), dtos.AssignOrderRouteRequest{RouteID: &rtA.ID})
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestOrderService_SetStatus(t *testing.T) {
	ctx := context.Background()
	rt := newRoute(t, time.Monday, "2026-04-06")
	routed := newOrder(onRoute(rt))
	inbox := newOrder()
	orders := newFakeOrderRepo(routed, inbox)
	svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(rt), nil)

	got, err := svc.SetStatus(ctx, routed.ID, " Paid ")
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
	assert.Equal(t, "route active", got.Stage)
	assert.EqualValues(t, 2, routed.RowVersion)

	got, err = svc.SetStatus(ctx, inbox.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Stage)

	groups, err := svc.Inbox(ctx, InboxFilter{})
	require.NoError(t, err)
	assert.Empty(t, groups, "cancelled orders leave the inbox")

	_, err = svc.SetStatus(ctx, routed.ID, "refunded")
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)
	assert.Equal(t, "paid", routed.Status)

	_, err = svc.SetStatus(ctx, uuid.New(), "new")
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	rt := newRoute(t, time.Monday, "2026-04-06")
	o := newOrder(onRoute(rt))
	other := newOrder()
	orders := newFakeOrderRepo(o, other)
	svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(rt), nil)

	got, err := svc.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, "archived", got.Stage)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(mustDate(t, "2026-04-20").Add(12*time.Hour)))
	require.NotNil(t, got.RouteID, "route link is kept for history")
	assert.Equal(t, rt.ID, *got.RouteID)

	live, err := svc.ListOrders(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, other.ID, live[0].ID)

	all, err := svc.ListOrders(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.DeleteOrder(ctx, o.ID)
	assert.ErrorIs(t, err, utils.ErrOrderNotFound, "already archived")

	_, err = svc.SetStatus(ctx, o.ID, "paid")
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)

	_, err = svc.DeleteOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestOrderService_GeocodeMissing(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc := newTestOrderService(t, "2026-04-20", newFakeOrderRepo(), newFakeRouteRepo(), nil)
		_, err := svc.GeocodeMissing(ctx, 0)
		assert.ErrorIs(t, err, utils.ErrServiceNotConfigured)
	})

	t.Run("fills coordinates and reports failures", func(t *testing.T) {
		ok := newOrder(func(o *models.Order) { o.Address = "1 Main St" })
		noMatch := newOrder(func(o *models.Order) { o.Address = "nowhere" })
		broken := newOrder(func(o *models.Order) { o.Address = "boom" })
		blank := newOrder(func(o *models.Order) { o.Address = "  " })
		located := newOrder(at(39.8, -89.6))

		geo := &fakeGeocoder{
			results: map[string]*utils.GeocodeResult{
				"1 Main St": {Lat: 39.78, Lng: -89.65, PostalCode: "62701"},
			},
			errs: map[string]error{"boom": errors.New("quota exceeded")},
		}
		orders := newFakeOrderRepo(ok, noMatch, broken, blank, located)
		svc := newTestOrderService(t, "2026-04-20", orders, newFakeRouteRepo(), geo)
		sleeps := 0
		svc.sleep = func(context.Context, time.Duration) error { sleeps++; return nil }

		res, err := svc.GeocodeMissing(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Attempted)
		assert.Equal(t, 1, res.Updated)
		require.Len(t, res.Failed, 2)
		assert.Equal(t, noMatch.ID, res.Failed[0].OrderID)
		assert.Equal(t, "no match", res.Failed[0].Reason)
		assert.Equal(t, broken.ID, res.Failed[1].OrderID)
		assert.Equal(t, []string{"1 Main St", "nowhere", "boom"}, geo.calls)
		assert.Equal(t, 2, sleeps, "requests after the first are spaced")

		assert.InDelta(t, 39.78, *ok.Lat, 1e-9)
		assert.Equal(t, "62701", *ok.PostalCode)
	})

	t.Run("respects the limit and stops when cancelled", func(t *testing.T) {
		a := newOrder(func(o *models.Order) { o.Address = "a" })
		b := newOrder(func(o *models.Order) { o.Address = "b" })
		c := newOrder(func(o *models.Order) { o.Address = "c" })
		geo := &fakeGeocoder{}
		svc := newTestOrderService(t, "2026-04-20", newFakeOrderRepo(a, b, c), newFakeRouteRepo(), geo)

		res, err := svc.GeocodeMissing(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Attempted)

		geo.calls = nil
		svc.sleep = func(context.Context, time.Duration) error { return context.Canceled }
		res, err = svc.GeocodeMissing(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Attempted)
		assert.Len(t, geo.calls, 1)
	})
}
