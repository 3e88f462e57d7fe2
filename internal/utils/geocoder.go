package utils

import (
	"context"
	"fmt"
	"slices"

	"googlemaps.github.io/maps"
)

// GeocodeResult is the subset of a geocoding answer the dashboard stores on an order.
type GeocodeResult struct {
	Lat        float64
	Lng        float64
	PostalCode string
}

// GMapsGeocoder wraps the Google Maps Geocoding API.
type GMapsGeocoder struct {
	client *maps.Client
}

func NewGMapsGeocoder(apiKey string) (*GMapsGeocoder, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating geocoding client: %w", err)
	}
	return &GMapsGeocoder{client: c}, nil
}

// Geocode returns nil, nil when the address has no match.
func (g *GMapsGeocoder) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("%w: geocode: %v", ErrExternalServiceFailure, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	first := results[0]
	out := &GeocodeResult{
		Lat: first.Geometry.Location.Lat,
		Lng: first.Geometry.Location.Lng,
	}
	for _, comp := range first.AddressComponents {
		if slices.Contains(comp.Types, "postal_code") {
			out.PostalCode = comp.ShortName
			break
		}
	}
	if out.PostalCode == "" {
		out.PostalCode = PostalCodeFromAddress(first.FormattedAddress)
	}
	return out, nil
}
