package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propsearch/internal/logger"
	"propsearch/internal/model"
)

// PropertyStore is the backend holding listings and search logs.
type PropertyStore interface {
	SearchGuest(ctx context.Context, args []any) ([]model.Property, error)
	SearchAdmin(ctx context.Context, args []any) ([]model.Property, int64, error)
	LogSearch(ctx context.Context, entry model.SearchLog) error
	LogFeedback(ctx context.Context, searchID string, propertyID int64, action string) error
}

// Mode selects the store procedure and the proximity path.
type Mode string

const (
	ModeGuest Mode = "guest" // guest procedure, per-property proximity annotation
	ModeArea  Mode = "area"  // guest procedure, location-anchored coarse filter
	ModeAdmin Mode = "admin" // admin procedure, per-property proximity annotation
)

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Stream event names, in emission order.
const (
	EventStart       = "start"
	EventExtracting  = "extracting"
	EventConstraints = "constraints"
	EventSearching   = "searching"
	EventFiltering   = "filtering"
	EventResults     = "results"
	EventDone        = "done"
	EventError       = "error"
)

// SearchService handles search business logic
type SearchService struct {
	extractor    ConstraintExtractor
	normalizer   *Normalizer
	store        PropertyStore
	proximity    *ProximityFilter
	area         *AreaFilter
	resolver     *LocationResolver
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// SearchServiceOptions wires a SearchService. Proximity, Area and Resolver
// are optional; without them results are returned unannotated.
type SearchServiceOptions struct {
	Extractor    ConstraintExtractor
	Normalizer   *Normalizer
	Store        PropertyStore
	Proximity    *ProximityFilter
	Area         *AreaFilter
	Resolver     *LocationResolver
	DefaultLimit int
	MaxLimit     int
	Logger       *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(opts SearchServiceOptions) *SearchService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = NewNormalizer(nil, opts.Logger)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &SearchService{
		extractor:    opts.Extractor,
		normalizer:   opts.Normalizer,
		store:        opts.Store,
		proximity:    opts.Proximity,
		area:         opts.Area,
		resolver:     opts.Resolver,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		logger:       opts.Logger,
	}
}

// Search runs the guest pipeline.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.run(ctx, req, ModeGuest, nil)
}

// SearchArea runs the location-anchored coarse pipeline.
func (s *SearchService) SearchArea(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.run(ctx, req, ModeArea, nil)
}

// AdminSearch runs the pipeline against the admin procedure.
func (s *SearchService) AdminSearch(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	return s.run(ctx, req, ModeAdmin, nil)
}

// SearchStream runs the guest pipeline and reports progress through callback.
func (s *SearchService) SearchStream(ctx context.Context, req *model.SearchRequest, callback SearchEventCallback) (*model.SearchResponse, error) {
	return s.run(ctx, req, ModeGuest, callback)
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, searchID string, propertyID int64, action string) error {
	return s.store.LogFeedback(ctx, searchID, propertyID, action)
}

// Compile runs normalization and compilation without any I/O.
func (s *SearchService) Compile(raw model.RawExtraction, req *model.SearchRequest) (model.Constraints, QueryParameters) {
	c := s.normalizer.Normalize(raw, req.Query)
	return c, Compile(c, req.Overrides())
}

func (s *SearchService) run(ctx context.Context, req *model.SearchRequest, mode Mode, callback SearchEventCallback) (*model.SearchResponse, error) {
	startTime := time.Now()
	searchID := uuid.NewString()
	log := logger.FromContextOr(ctx, s.logger).With(
		zap.String("search_id", searchID),
		zap.String("mode", string(mode)),
	)

	emit := func(event string, data any) error {
		if callback == nil {
			return nil
		}
		return callback(event, data)
	}

	if err := emit(EventStart, map[string]any{"search_id": searchID}); err != nil {
		return nil, err
	}
	if err := emit(EventExtracting, map[string]any{"status": "Understanding your query...", "provider": s.extractor.Name()}); err != nil {
		return nil, err
	}

	raw, err := s.extractor.Extract(ctx, req.Query)
	if err != nil {
		log.Info("Extraction failed", zap.Error(err))
		return nil, err
	}

	constraints, params := s.Compile(raw, req)
	if err := emit(EventConstraints, constraints); err != nil {
		return nil, err
	}

	if err := emit(EventSearching, map[string]any{"status": "Searching properties..."}); err != nil {
		return nil, err
	}
	candidates, storeTotal, err := s.callStore(ctx, mode, params)
	if err != nil {
		log.Error("Store call failed", zap.Error(err))
		return nil, err
	}

	SortProperties(candidates, req.Sort)

	if mode == ModeArea && s.area != nil && s.resolver != nil &&
		(len(constraints.PlacesNearby) > 0 || len(constraints.PlacesNotNear) > 0) {
		if err := emit(EventFiltering, map[string]any{"status": "Checking the neighbourhood...", "categories": constraints.PlacesNearby}); err != nil {
			return nil, err
		}
		probes := s.resolver.Resolve(ctx, constraints.Location)
		candidates = s.area.Apply(ctx, candidates, probes, constraints)
	}

	limit := s.limitFor(req)
	pageItems, page := Paginate(candidates, req.Page, limit)
	if mode == ModeAdmin && storeTotal > int64(page.Total) {
		page.Total = int(storeTotal)
		page.TotalPages = (page.Total + limit - 1) / limit
		page.HasMore = page.Number < page.TotalPages
	}

	var results []model.AnnotatedProperty
	if mode != ModeArea && s.proximity != nil && len(constraints.PlacesNearby) > 0 {
		if err := emit(EventFiltering, map[string]any{
			"status":     "Finding nearby places...",
			"categories": constraints.PlacesNearby,
			"strategy":   s.proximity.Strategy(len(pageItems), len(constraints.PlacesNearby)),
		}); err != nil {
			return nil, err
		}
		results = s.proximity.Apply(ctx, pageItems, constraints)
	} else {
		results = make([]model.AnnotatedProperty, len(pageItems))
		for i, p := range pageItems {
			results[i] = model.AnnotatedProperty{Property: p}
		}
	}

	took := time.Since(startTime).Milliseconds()
	resp := &model.SearchResponse{
		SearchID:    searchID,
		Results:     results,
		Total:       page.Total,
		Page:        page.Number,
		Limit:       page.Limit,
		TotalPages:  page.TotalPages,
		HasMore:     page.HasMore,
		Constraints: constraints,
		Took:        took,
	}

	if err := emit(EventResults, resp); err != nil {
		return nil, err
	}

	s.logSearch(req.Query, mode, resp)
	log.Info("Search completed",
		zap.Int("total", resp.Total),
		zap.Int("returned", len(results)),
		zap.Int64("took_ms", took),
	)

	if err := emit(EventDone, map[string]any{"took_ms": took}); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *SearchService) callStore(ctx context.Context, mode Mode, params QueryParameters) ([]model.Property, int64, error) {
	if mode == ModeAdmin {
		rows, total, err := s.store.SearchAdmin(ctx, params.Args())
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrStore, err)
		}
		return rows, total, nil
	}
	rows, err := s.store.SearchGuest(ctx, params.Args())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return rows, int64(len(rows)), nil
}

func (s *SearchService) limitFor(req *model.SearchRequest) int {
	switch {
	case req.Limit <= 0:
		return s.defaultLimit
	case req.Limit > s.maxLimit:
		return s.maxLimit
	default:
		return req.Limit
	}
}

// logSearch writes the audit row in the background; failures are only logged.
func (s *SearchService) logSearch(query string, mode Mode, resp *model.SearchResponse) {
	ids := make([]int64, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.Property.ID
	}
	entry := model.SearchLog{
		SearchID:       resp.SearchID,
		Query:          query,
		Constraints:    resp.Constraints,
		Endpoint:       string(mode),
		ResultCount:    resp.Total,
		PropertyIDs:    ids,
		ResponseTimeMs: resp.Took,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.LogSearch(ctx, entry); err != nil {
			s.logger.Warn("Failed to log search", zap.String("search_id", entry.SearchID), zap.Error(err))
		}
	}()
}
