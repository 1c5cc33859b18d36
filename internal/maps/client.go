// Package maps adapts the Google Maps Geocoding and Places APIs to the
// geocoder and places-searcher contracts used by the search pipeline.
package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	gmaps "googlemaps.github.io/maps"

	"propsearch/internal/metrics"
	"propsearch/internal/model"
)

// Client wraps a Google Maps client.
type Client struct {
	c      *gmaps.Client
	region string
}

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string // empty uses the public endpoint
	Region  string // ccTLD region bias for geocoding, e.g. "pk"
	QPS     int
}

// New creates a Google Maps client.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("maps: API key must not be empty")
	}
	clientOpts := []gmaps.ClientOption{gmaps.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, gmaps.WithBaseURL(opts.BaseURL))
	}
	if opts.QPS > 0 {
		clientOpts = append(clientOpts, gmaps.WithRateLimit(opts.QPS))
	}

	c, err := gmaps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("maps: create client: %w", err)
	}
	return &Client{c: c, region: opts.Region}, nil
}

// Geocode returns the first match for name, or nil when there is none.
func (c *Client) Geocode(ctx context.Context, name string) (*model.Coordinates, error) {
	results, err := c.c.Geocode(ctx, &gmaps.GeocodingRequest{
		Address: name,
		Region:  c.region,
	})
	if err != nil {
		return nil, fmt.Errorf("maps: geocode %q: %w", name, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	loc := results[0].Geometry.Location
	return &model.Coordinates{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// SearchNearby returns places matching category around a point. The
// reported distance is left empty; callers measure it themselves.
func (c *Client) SearchNearby(ctx context.Context, lat, lon float64, category string, radiusMeters float64) ([]model.Place, error) {
	start := time.Now()
	resp, err := c.c.NearbySearch(ctx, &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: lat, Lng: lon},
		Radius:   uint(radiusMeters),
		Keyword:  category,
	})
	metrics.PlacesLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PlacesLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("maps: nearby %q: %w", category, err)
	}

	status := "found"
	if len(resp.Results) == 0 {
		status = "empty"
	}
	metrics.PlacesLookupsTotal.WithLabelValues(status).Inc()

	places := make([]model.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, model.Place{
			Name:      r.Name,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		})
	}
	return places, nil
}
