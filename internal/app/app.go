// Package app assembles the search pipeline from configuration. It is
// shared by the HTTP server and the developer CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"propsearch/internal/config"
	"propsearch/internal/maps"
	"propsearch/internal/repository"
	"propsearch/internal/service"
	"propsearch/internal/vocabulary"
)

// LoadVocabulary returns the configured vocabulary, or the built-in one.
func LoadVocabulary(cfg *config.Config) (*vocabulary.Vocabulary, error) {
	v, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return v, nil
}

// NewCompleter builds the configured extraction backend.
func NewCompleter(ctx context.Context, cfg *config.Config) (service.Completer, error) {
	switch cfg.Extractor.Provider {
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the %q extractor", config.ProviderGemini)
		}
		return service.NewGeminiCompleter(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the %q extractor", config.ProviderOpenAI)
		}
		return service.NewOpenAICompleter(service.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.APIBase,
			Model:   cfg.OpenAI.ChatModel,
			Timeout: time.Duration(cfg.OpenAI.Timeout) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.Extractor.Provider)
	}
}

// NewExtractor builds the guarded, budgeted extractor.
func NewExtractor(ctx context.Context, cfg *config.Config, vocab *vocabulary.Vocabulary, logger *zap.Logger) (*service.Extractor, error) {
	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewExtractor(service.ExtractorOptions{
		Completer: completer,
		Guard:     service.NewDomainGuard(vocab.DomainKeywords),
		Budget:    service.NewBudgetTracker(cfg.Extractor.BudgetUSD, logger),
		Pricing: service.Pricing{
			PromptPerMillion:     cfg.Extractor.PromptPricePerMillion,
			CompletionPerMillion: cfg.Extractor.OutputPricePerMillion,
		},
		MaxTokens:   cfg.Extractor.MaxTokens,
		Temperature: cfg.Extractor.Temperature,
		Logger:      logger,
	}), nil
}

// Geo holds the optional geocoding and places collaborators.
type Geo struct {
	Places   service.PlacesSearcher
	Geocoder service.Geocoder
	close    func()
}

// Close releases the Redis client, if any.
func (g *Geo) Close() {
	if g != nil && g.close != nil {
		g.close()
	}
}

// NewGeo builds the Google Maps client with an optional Redis geocode
// cache. It returns nil when no Maps key is configured.
func NewGeo(cfg *config.Config, logger *zap.Logger) (*Geo, error) {
	if cfg.Maps.APIKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, proximity filtering disabled")
		return nil, nil
	}
	client, err := maps.New(maps.Options{
		APIKey:  cfg.Maps.APIKey,
		BaseURL: cfg.Maps.BaseURL,
		Region:  cfg.Maps.Region,
		QPS:     cfg.Maps.QPS,
	})
	if err != nil {
		return nil, err
	}

	geo := &Geo{Places: client, Geocoder: client}
	if len(cfg.Redis.Addrs) == 0 {
		return geo, nil
	}

	rc, err := repository.NewRedisClient(cfg.Redis.Addrs, cfg.Redis.Password)
	if err != nil {
		logger.Warn("Redis unavailable, geocoding without cache", zap.Error(err))
		return geo, nil
	}
	geo.Geocoder = repository.NewGeocodeCache(rc, client, cfg.Redis.GeoTTL, logger)
	geo.close = rc.Close
	logger.Info("Geocode cache enabled", zap.Strings("addrs", cfg.Redis.Addrs))
	return geo, nil
}

// NewSearchService wires the full pipeline.
func NewSearchService(cfg *config.Config, extractor service.ConstraintExtractor, vocab *vocabulary.Vocabulary,
	store service.PropertyStore, geo *Geo, logger *zap.Logger) *service.SearchService {
	opts := service.SearchServiceOptions{
		Extractor:    extractor,
		Normalizer:   service.NewNormalizer(vocab, logger),
		Store:        store,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Logger:       logger,
	}
	if geo != nil {
		opts.Proximity = service.NewProximityFilter(geo.Places, service.ProximityOptions{
			ParallelThreshold: cfg.Search.ParallelThreshold,
			Workers:           cfg.Search.ProximityWorkers,
			DefaultRadiusKm:   cfg.Search.DefaultRadiusKm,
			Logger:            logger,
		})
		opts.Area = service.NewAreaFilter(geo.Places, cfg.Search.DefaultRadiusKm, logger)
		opts.Resolver = service.NewLocationResolver(geo.Geocoder, logger)
	}
	return service.NewSearchService(opts)
}
