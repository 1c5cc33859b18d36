package service

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// PlacesSearcher finds points of interest of a category around a point.
// An empty slice means none found.
type PlacesSearcher interface {
	SearchNearby(ctx context.Context, lat, lon float64, category string, radiusMeters float64) ([]model.Place, error)
}

// Geocoder resolves a place name. A nil result with a nil error means the
// name was not found.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*model.Coordinates, error)
}

// Strategy names reported by ProximityFilter.
const (
	StrategyNone     = "none"
	StrategyParallel = "parallel"
	StrategyBounded  = "bounded"
)

// ProximityFilter annotates each candidate with the requested place
// categories found within radius.
type ProximityFilter struct {
	places            PlacesSearcher
	parallelThreshold int
	workers           int
	defaultRadiusKm   float64
	logger            *zap.Logger
}

// ProximityOptions configures a ProximityFilter.
type ProximityOptions struct {
	ParallelThreshold int     // default 20
	Workers           int     // default 5
	DefaultRadiusKm   float64 // default 5
	Logger            *zap.Logger
}

// NewProximityFilter creates a filter backed by a places provider.
func NewProximityFilter(places PlacesSearcher, opts ProximityOptions) *ProximityFilter {
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = 20
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ProximityFilter{
		places:            places,
		parallelThreshold: opts.ParallelThreshold,
		workers:           opts.Workers,
		defaultRadiusKm:   opts.DefaultRadiusKm,
		logger:            opts.Logger,
	}
}

// Strategy returns the strategy Apply would use for the given sizes.
func (f *ProximityFilter) Strategy(properties, categories int) string {
	switch {
	case categories == 0 || properties == 0:
		return StrategyNone
	case properties*categories <= f.parallelThreshold:
		return StrategyParallel
	default:
		return StrategyBounded
	}
}

// Apply annotates candidates with nearby places. Output order matches
// input order. Provider failures count as "no places found".
func (f *ProximityFilter) Apply(ctx context.Context, candidates []model.Property, c model.Constraints) []model.AnnotatedProperty {
	radiusKm := radiusOr(c, f.defaultRadiusKm)
	categories := c.PlacesNearby

	switch f.Strategy(len(candidates), len(categories)) {
	case StrategyParallel:
		return f.applyParallel(ctx, candidates, categories, radiusKm)
	case StrategyBounded:
		return f.applyBounded(ctx, candidates, categories, radiusKm)
	default:
		out := make([]model.AnnotatedProperty, len(candidates))
		for i, p := range candidates {
			out[i] = model.AnnotatedProperty{Property: p}
		}
		return out
	}
}

// applyParallel issues every (property, category) lookup at once.
func (f *ProximityFilter) applyParallel(ctx context.Context, candidates []model.Property, categories []string, radiusKm float64) []model.AnnotatedProperty {
	groups := make([][]*model.NearbyGroup, len(candidates))
	for i := range groups {
		groups[i] = make([]*model.NearbyGroup, len(categories))
	}

	var g errgroup.Group
	for i := range candidates {
		for j := range categories {
			g.Go(func() error {
				groups[i][j] = f.lookup(ctx, candidates[i], categories[j], radiusKm)
				return nil
			})
		}
	}
	_ = g.Wait()

	out := make([]model.AnnotatedProperty, len(candidates))
	for i, p := range candidates {
		out[i] = annotate(p, groups[i])
	}
	return out
}

// applyBounded drains a shared queue of properties with a fixed number of
// workers; each worker queries its property's categories one at a time.
func (f *ProximityFilter) applyBounded(ctx context.Context, candidates []model.Property, categories []string, radiusKm float64) []model.AnnotatedProperty {
	out := make([]model.AnnotatedProperty, len(candidates))

	queue := make(chan int)
	var wg sync.WaitGroup
	for range min(f.workers, len(candidates)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				found := make([]*model.NearbyGroup, len(categories))
				for j, category := range categories {
					found[j] = f.lookup(ctx, candidates[i], category, radiusKm)
				}
				out[i] = annotate(candidates[i], found)
			}
		}()
	}
	for i := range candidates {
		queue <- i
	}
	close(queue)
	wg.Wait()

	return out
}

// lookup returns the places of one category within radius of the property,
// or nil. Distances are recomputed; provider-reported distances are ignored.
func (f *ProximityFilter) lookup(ctx context.Context, p model.Property, category string, radiusKm float64) *model.NearbyGroup {
	origin, ok := p.Coordinates()
	if !ok {
		return nil
	}

	places, err := f.places.SearchNearby(ctx, origin.Lat, origin.Lon, category, radiusKm*1000)
	if err != nil {
		f.logger.Warn("Places lookup failed, treating as none found",
			zap.Int64("property_id", p.ID),
			zap.String("category", category),
			zap.Error(err),
		)
		return nil
	}

	within := placesWithin(origin, places, radiusKm)
	if len(within) == 0 {
		return nil
	}
	return &model.NearbyGroup{PlaceType: category, Places: within}
}

// placesWithin keeps places at most radiusKm away, in provider order.
func placesWithin(origin model.Coordinates, places []model.Place, radiusKm float64) []model.NearbyPlace {
	var within []model.NearbyPlace
	for _, pl := range places {
		d := utils.Haversine(origin.Lat, origin.Lon, pl.Latitude, pl.Longitude)
		if math.IsNaN(d) || d > radiusKm {
			continue
		}
		within = append(within, model.NearbyPlace{
			Name:        pl.Name,
			Distance:    utils.RoundTo(d, 2),
			Coordinates: model.Coordinates{Lat: pl.Latitude, Lon: pl.Longitude},
		})
	}
	return within
}

// annotate builds the result shape shared by both strategies. Groups keep
// the requested category order.
func annotate(p model.Property, found []*model.NearbyGroup) model.AnnotatedProperty {
	out := model.AnnotatedProperty{Property: p}
	for _, g := range found {
		if g != nil {
			out.NearbyPlaces = append(out.NearbyPlaces, *g)
		}
	}
	return out
}
