package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"propsearch/internal/logger"
	"propsearch/internal/metrics"
	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// Extractor is the ConstraintExtractor shared by every backend: guard,
// budget check, one completion call, JSON parse.
type Extractor struct {
	completer   Completer
	guard       *DomainGuard
	budget      *BudgetTracker
	pricing     Pricing
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	Completer   Completer
	Guard       *DomainGuard
	Budget      *BudgetTracker
	Pricing     Pricing
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// NewExtractor creates an extractor around a completion backend.
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Budget == nil {
		opts.Budget = NewBudgetTracker(0, opts.Logger)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 512
	}
	return &Extractor{
		completer:   opts.Completer,
		guard:       opts.Guard,
		budget:      opts.Budget,
		pricing:     opts.Pricing,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
}

// Name returns the backend name.
func (e *Extractor) Name() string { return e.completer.Name() }

// Extract implements ConstraintExtractor.
func (e *Extractor) Extract(ctx context.Context, query string) (model.RawExtraction, error) {
	query = strings.TrimSpace(query)
	if e.guard != nil && !e.guard.Allows(query) {
		metrics.GuardRejectionsTotal.Inc()
		return nil, ErrNotRealEstate
	}

	provider := e.completer.Name()
	estimate := e.pricing.Estimate(len(extractionPrompt)+len(query), e.maxTokens)
	reservation, err := e.budget.TryReserve(estimate)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, "budget_exceeded").Inc()
		return nil, err
	}

	start := time.Now()
	resp, err := e.completer.Complete(ctx, CompletionRequest{
		System:      extractionPrompt,
		User:        query,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		reservation.Release()
		metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
		if !errors.Is(err, ErrProvider) {
			err = fmt.Errorf("%v: %w", err, ErrProvider)
		}
		return nil, err
	}
	reservation.Settle(e.pricing.Cost(resp.Usage))

	metrics.LLMTokensTotal.WithLabelValues(provider, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(provider, "completion").Add(float64(resp.Usage.CompletionTokens))

	log := logger.FromContextOr(ctx, e.logger)
	obj, err := utils.ParseJSONObject(resp.Text)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, "parse_error").Inc()
		log.Warn("Extraction reply is not a JSON object",
			zap.String("provider", provider),
			zap.String("reply", truncate(resp.Text, 200)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s reply: %w", provider, ErrExtractionParse)
	}

	metrics.LLMRequestsTotal.WithLabelValues(provider, "success").Inc()
	log.Debug("Constraints extracted",
		zap.String("provider", provider),
		zap.Duration("took", time.Since(start)),
		zap.Int("fields", len(obj)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return model.RawExtraction(obj), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
