package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"propsearch/internal/metrics"
	"propsearch/internal/model"
)

const geocodeKeyPrefix = "propsearch:geocode:"

// Geocoder resolves a place name; nil, nil means not found.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*model.Coordinates, error)
}

// cachedPoint is the stored form. Found=false caches a miss.
type cachedPoint struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
}

// GeocodeCache is a Redis read-through cache in front of a Geocoder.
// Redis failures fall through to the inner geocoder.
type GeocodeCache struct {
	client rueidis.Client
	inner  Geocoder
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to Redis.
func NewRedisClient(addrs []string, password string) (rueidis.Client, error) {
	c, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: addrs,
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return c, nil
}

// NewGeocodeCache wraps inner with a cache entry per normalized name.
func NewGeocodeCache(client rueidis.Client, inner Geocoder, ttl time.Duration, logger *zap.Logger) *GeocodeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocodeCache{client: client, inner: inner, ttl: ttl, logger: logger}
}

func geocodeKey(name string) string {
	return geocodeKeyPrefix + strings.ToLower(strings.TrimSpace(name))
}

// Geocode implements Geocoder.
func (g *GeocodeCache) Geocode(ctx context.Context, name string) (*model.Coordinates, error) {
	key := geocodeKey(name)

	data, err := g.client.Do(ctx, g.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case err == nil:
		var cp cachedPoint
		if jsonErr := json.Unmarshal(data, &cp); jsonErr == nil {
			metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
			if !cp.Found {
				return nil, nil
			}
			return &model.Coordinates{Lat: cp.Lat, Lon: cp.Lon}, nil
		}
		g.logger.Warn("Corrupt geocode cache entry", zap.String("key", key))
	case rueidis.IsRedisNil(err):
	default:
		g.logger.Warn("Geocode cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()

	pt, err := g.inner.Geocode(ctx, name)
	if err != nil {
		// Failures are not cached.
		return nil, err
	}

	cp := cachedPoint{Found: pt != nil}
	if pt != nil {
		cp.Lat, cp.Lon = pt.Lat, pt.Lon
	}
	payload, _ := json.Marshal(cp)
	setCmd := g.client.B().Set().Key(key).Value(string(payload)).Ex(g.ttl).Build()
	if err := g.client.Do(ctx, setCmd).Error(); err != nil {
		g.logger.Warn("Geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return pt, nil
}
