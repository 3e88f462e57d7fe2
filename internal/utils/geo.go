package utils

import (
	"time"

	"github.com/bradfitz/latlong"
	"github.com/umahmood/haversine"
)

// DefaultTimeZone is used when a route has no geocoded stops to derive one from.
const DefaultTimeZone = "America/Chicago"

// DistanceMiles uses Haversine for a direct "as-the-crow-flies" distance.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := haversine.Coord{Lat: lat1, Lon: lon1}
	p2 := haversine.Coord{Lat: lat2, Lon: lon2}
	mi, _ := haversine.Distance(p1, p2)
	return mi
}

// LocationForCoords resolves the IANA zone for a coordinate, falling back to
// DefaultTimeZone when the lookup or tz load fails.
func LocationForCoords(lat, lng float64) *time.Location {
	name := latlong.LookupZoneName(lat, lng)
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		Logger.WithError(err).Warnf("Failed to load time zone %s, using %s", name, DefaultTimeZone)
		loc, err = time.LoadLocation(DefaultTimeZone)
		if err != nil {
			return time.UTC
		}
	}
	return loc
}

// LocalToday is the calendar day it currently is in loc, as a date-only value.
func LocalToday(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}
