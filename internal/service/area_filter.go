package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// AreaFilter is the coarse proximity filter: it discovers places around a
// few probe points and keeps candidates near any of them. A pass that would
// remove every candidate is undone.
type AreaFilter struct {
	places          PlacesSearcher
	defaultRadiusKm float64
	logger          *zap.Logger
}

// NewAreaFilter creates a coarse filter.
func NewAreaFilter(places PlacesSearcher, defaultRadiusKm float64, logger *zap.Logger) *AreaFilter {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AreaFilter{places: places, defaultRadiusKm: defaultRadiusKm, logger: logger}
}

// Apply narrows candidates by places_nearby, then by places_not_near.
// Order is preserved.
func (f *AreaFilter) Apply(ctx context.Context, candidates []model.Property, probes []model.Coordinates, c model.Constraints) []model.Property {
	if len(candidates) == 0 || len(probes) == 0 {
		return candidates
	}
	radiusKm := radiusOr(c, f.defaultRadiusKm)

	if len(c.PlacesNearby) > 0 {
		near := f.discover(ctx, probes, c.PlacesNearby, radiusKm)
		candidates = f.pass("near", candidates, func(p model.Property) bool {
			return hasPlaceWithin(p, near, radiusKm)
		})
	}

	if len(c.PlacesNotNear) > 0 {
		avoid := f.discover(ctx, probes, c.PlacesNotNear, radiusKm)
		candidates = f.pass("not_near", candidates, func(p model.Property) bool {
			return !hasPlaceWithin(p, avoid, radiusKm)
		})
	}
	return candidates
}

// pass keeps candidates matching keep, falling back to the input set when
// nothing would remain.
func (f *AreaFilter) pass(name string, candidates []model.Property, keep func(model.Property) bool) []model.Property {
	var kept []model.Property
	for _, p := range candidates {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		f.logger.Info("Proximity pass matched nothing, keeping unfiltered candidates",
			zap.String("pass", name),
			zap.Int("candidates", len(candidates)),
		)
		return candidates
	}
	return kept
}

// discover collects places of every category around every probe. A
// category with no places at a probe, or a failing lookup, contributes
// nothing.
func (f *AreaFilter) discover(ctx context.Context, probes []model.Coordinates, categories []string, radiusKm float64) []model.Place {
	var (
		mu  sync.Mutex
		all []model.Place
		g   errgroup.Group
	)
	for _, probe := range probes {
		for _, category := range categories {
			g.Go(func() error {
				found, err := f.places.SearchNearby(ctx, probe.Lat, probe.Lon, category, radiusKm*1000)
				if err != nil {
					f.logger.Warn("Places lookup failed, skipping category",
						zap.String("category", category),
						zap.Error(err),
					)
					return nil
				}
				if len(found) == 0 {
					return nil
				}
				mu.Lock()
				all = append(all, found...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return all
}

func hasPlaceWithin(p model.Property, places []model.Place, radiusKm float64) bool {
	origin, ok := p.Coordinates()
	if !ok {
		return false
	}
	for _, pl := range places {
		if utils.Haversine(origin.Lat, origin.Lon, pl.Latitude, pl.Longitude) <= radiusKm {
			return true
		}
	}
	return false
}
