package service

import (
	"context"

	"propsearch/internal/model"
)

// Completer is a text-completion backend: one system instruction and one
// user message in, raw text out.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// CompletionRequest is a single bounded, low-temperature completion call.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the raw provider reply.
type Completion struct {
	Text  string
	Usage Usage
}

// Usage reports token consumption of a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ConstraintExtractor turns free text into a RawExtraction.
// Failures are ErrNotRealEstate, ErrExtractionParse, ErrProvider or
// ErrBudgetExceeded.
type ConstraintExtractor interface {
	Extract(ctx context.Context, query string) (model.RawExtraction, error)
	Name() string
}

// Ensure both backends implement Completer
var (
	_ Completer = (*OpenAICompleter)(nil)
	_ Completer = (*GeminiCompleter)(nil)

	_ ConstraintExtractor = (*Extractor)(nil)
)
