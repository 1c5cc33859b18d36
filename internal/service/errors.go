package service

import "errors"

var (
	// ErrNotRealEstate signals a query the domain guard rejected.
	ErrNotRealEstate = errors.New("not a real-estate query")
	// ErrExtractionParse signals a model reply that is not a JSON object.
	ErrExtractionParse = errors.New("failed to parse query")
	// ErrProvider signals a transport, auth or timeout failure at the model provider.
	ErrProvider = errors.New("extraction provider error")
	// ErrBudgetExceeded signals an exhausted extraction spend ceiling.
	ErrBudgetExceeded = errors.New("extraction budget exceeded")
	// ErrNormalization signals a raw extraction that could not be normalized.
	// It never leaves the service layer.
	ErrNormalization = errors.New("normalization failed")
	// ErrStore signals a backend search procedure failure.
	ErrStore = errors.New("store error")
)
