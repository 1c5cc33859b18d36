package model

// Listing filter values accepted by the search endpoints.
const (
	FilterRent = "rent"
	FilterSale = "sale"
	FilterAll  = "all"
)

// Sort orders accepted by the search endpoints.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// SearchRequest represents a natural-language search request
type SearchRequest struct {
	Query      string    `json:"query" binding:"required,min=1,max=500"`
	Filter     string    `json:"filter,omitempty" binding:"omitempty,oneof=rent sale all"`
	Sort       string    `json:"sort,omitempty" binding:"omitempty,oneof=newest oldest price_asc price_desc"`
	Page       int       `json:"page,omitempty" binding:"omitempty,min=1,max=10000"`
	Limit      int       `json:"limit,omitempty" binding:"omitempty,min=1"`
	PriceRange []float64 `json:"priceRange,omitempty" binding:"omitempty,len=2,dive,min=0"`
}

// Overrides are request-level values that take precedence over extracted
// constraints when compiling the store parameters.
type Overrides struct {
	Filter   string
	PriceMin *float64
	PriceMax *float64
}

// Overrides extracts compiler overrides from the request.
func (r *SearchRequest) Overrides() Overrides {
	o := Overrides{Filter: r.Filter}
	if len(r.PriceRange) == 2 {
		lo, hi := r.PriceRange[0], r.PriceRange[1]
		o.PriceMin, o.PriceMax = &lo, &hi
	}
	return o
}

// SearchResponse represents a paginated search response
type SearchResponse struct {
	SearchID    string              `json:"search_id"`
	Results     []AnnotatedProperty `json:"results"`
	Total       int                 `json:"total"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
	TotalPages  int                 `json:"total_pages"`
	HasMore     bool                `json:"has_more"`
	Constraints Constraints         `json:"constraints"`
	Took        int64               `json:"took_ms"` // Response time in milliseconds
}

// FeedbackRequest represents user feedback/action
type FeedbackRequest struct {
	SearchID   string `json:"search_id" binding:"required,uuid"`
	PropertyID int64  `json:"property_id" binding:"required,min=1"`
	Action     string `json:"action" binding:"required,oneof=click contact view_details"`
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SearchLog is one row of the search audit table.
type SearchLog struct {
	SearchID       string
	Query          string
	Constraints    Constraints
	Endpoint       string
	ResultCount    int
	PropertyIDs    []int64
	ResponseTimeMs int64
}
