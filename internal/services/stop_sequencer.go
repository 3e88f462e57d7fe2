package services

import (
	"math"
	"sort"

	"github.com/Jiriyaj/ProCan-Dashboard/internal/constants"
	"github.com/Jiriyaj/ProCan-Dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

type Stop struct {
	OrderID      uuid.UUID `json:"order_id"`
	BusinessName string    `json:"business_name"`
	Address      string    `json:"address"`
	PostalCode   string    `json:"postal_code"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
}

func (s Stop) hasCoords() bool {
	return s.Lat != nil && s.Lng != nil
}

func (s Stop) point() orb.Point {
	return orb.Point{*s.Lng, *s.Lat}
}

// StopFromOrder copies the fields the sequencer needs.
func StopFromOrder(o *models.Order) Stop {
	return Stop{
		OrderID:      o.ID,
		BusinessName: o.BusinessName,
		Address:      o.Address,
		PostalCode:   postalZoneOf(o),
		Lat:          o.Lat,
		Lng:          o.Lng,
	}
}

// SequenceStops orders stops for a run. With enough coordinates it walks
// nearest-neighbour in degree space from the first located stop; otherwise it
// sorts by postal code, address, then business name. The result is always a
// permutation of stops.
func SequenceStops(stops []Stop) []Stop {
	if len(stops) == 0 {
		return []Stop{}
	}

	var located, unlocated []Stop
	for _, s := range stops {
		if s.hasCoords() {
			located = append(located, s)
		} else {
			unlocated = append(unlocated, s)
		}
	}

	if len(located) >= constants.MinGeoStops &&
		float64(len(located))/float64(len(stops)) >= constants.MinGeoCoverageRatio {
		return append(nearestNeighbour(located), unlocated...)
	}

	out := make([]Stop, len(stops))
	copy(out, stops)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PostalCode != b.PostalCode {
			return a.PostalCode < b.PostalCode
		}
		if a.Address != b.Address {
			return a.Address < b.Address
		}
		return a.BusinessName < b.BusinessName
	})
	return out
}

func nearestNeighbour(stops []Stop) []Stop {
	out := make([]Stop, 0, len(stops))
	visited := make([]bool, len(stops))

	cur := 0
	visited[0] = true
	out = append(out, stops[0])

	for len(out) < len(stops) {
		best, bestDist := -1, math.Inf(1)
		from := stops[cur].point()
		for i, s := range stops {
			if visited[i] {
				continue
			}
			// strict < keeps the earlier stop on ties
			if d := planar.Distance(from, s.point()); d < bestDist {
				best, bestDist = i, d
			}
		}
		visited[best] = true
		out = append(out, stops[best])
		cur = best
	}
	return out
}

// StopsGeoJSON renders sequenced stops as numbered points plus the visit path.
func StopsGeoJSON(stops []Stop) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var path orb.LineString

	for i, s := range stops {
		if !s.hasCoords() {
			continue
		}
		f := geojson.NewFeature(s.point())
		f.Properties["stop"] = i + 1
		f.Properties["order_id"] = s.OrderID.String()
		f.Properties["business_name"] = s.BusinessName
		f.Properties["address"] = s.Address
		fc.Append(f)
		path = append(path, s.point())
	}

	if len(path) >= 2 {
		line := geojson.NewFeature(path)
		line.Properties["kind"] = "path"
		fc.Append(line)
	}
	return fc
}
