package utils

import (
	"context"
	"fmt"
	"math"
	"sync"

	routing "cloud.google.com/go/maps/routing/apiv2"
	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/type/latlng"
	"google.golang.org/grpc/metadata"

	"github.com/sirupsen/logrus"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
)

var (
	routesClientOnce sync.Once
	routesClient     *routing.RoutesClient
	routesClientErr  error
)

func getRoutesClient(ctx context.Context, apiKey string) (*routing.RoutesClient, error) {
	routesClientOnce.Do(func() {
		Logger.Info("[GMapsClient] Initializing Google Maps Routes client...")
		routesClient, routesClientErr = routing.NewRoutesRESTClient(
			ctx,
			option.WithAPIKey(apiKey),
			option.WithEndpoint("https://routes.googleapis.com"),
		)
		if routesClientErr != nil {
			Logger.WithError(routesClientErr).Error("[GMapsClient] Failed to initialize Google Maps Routes client")
		}
	})
	return routesClient, routesClientErr
}

// DriveEstimate returns (miles, minutes) for one run-sheet leg. Without an
// API key, or when Routes fails, it uses the Haversine distance scaled by
// CrowFliesDriveTimeMultiplier.
func DriveEstimate(ctx context.Context, lat1, lng1, lat2, lng2 float64, apiKey string) (float64, int) {
	crow := crowFliesEstimate(lat1, lng1, lat2, lng2)
	if apiKey == "" {
		return crow.miles, crow.minutes
	}

	log := Logger.WithFields(logrus.Fields{
		"origin":      fmt.Sprintf("%.6f,%.6f", lat1, lng1),
		"destination": fmt.Sprintf("%.6f,%.6f", lat2, lng2),
	})

	ctx, cancel := context.WithTimeout(ctx, constants.RoutesAPITimeout)
	defer cancel()

	cli, err := getRoutesClient(context.Background(), apiKey)
	if err != nil {
		log.WithError(err).Warn("[GMapsClient] Routes client unavailable, using Haversine")
		return crow.miles, crow.minutes
	}

	resp, err := cli.ComputeRoutes(
		metadata.AppendToOutgoingContext(ctx, "X-Goog-FieldMask", "routes.duration,routes.distanceMeters"),
		&routingpb.ComputeRoutesRequest{
			Origin:            waypointAt(lat1, lng1),
			Destination:       waypointAt(lat2, lng2),
			TravelMode:        routingpb.RouteTravelMode_DRIVE,
			RoutingPreference: routingpb.RoutingPreference_TRAFFIC_UNAWARE,
		},
	)
	if err != nil || len(resp.GetRoutes()) == 0 {
		log.WithError(err).Warn("[GMapsClient] ComputeRoutes returned no route, using Haversine")
		return crow.miles, crow.minutes
	}

	best := resp.GetRoutes()[0]
	est := crow
	if m := best.GetDistanceMeters(); m > 0 {
		est.miles = round1(float64(m) / metersPerMile)
	}
	if d := best.GetDuration(); d != nil {
		est.minutes = int(d.AsDuration().Minutes() + 0.5)
	}
	return est.miles, est.minutes
}

const metersPerMile = 1609.344

type legEstimate struct {
	miles   float64
	minutes int
}

func crowFliesEstimate(lat1, lng1, lat2, lng2 float64) legEstimate {
	d := DistanceMiles(lat1, lng1, lat2, lng2)
	return legEstimate{miles: round1(d), minutes: int(d*constants.CrowFliesDriveTimeMultiplier + 0.5)}
}

func waypointAt(lat, lng float64) *routingpb.Waypoint {
	return &routingpb.Waypoint{
		LocationType: &routingpb.Waypoint_Location{
			Location: &routingpb.Location{LatLng: &latlng.LatLng{Latitude: lat, Longitude: lng}},
		},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
