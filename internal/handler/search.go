package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propsearch/internal/logger"
	"propsearch/internal/model"
	"propsearch/internal/service"
)

// Searcher is the search pipeline as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
	SearchArea(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
	AdminSearch(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
	SearchStream(ctx context.Context, req *model.SearchRequest, callback service.SearchEventCallback) (*model.SearchResponse, error)
	LogFeedback(ctx context.Context, searchID string, propertyID int64, action string) error
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService Searcher
	maxLimit      int
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService Searcher, maxLimit int) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		maxLimit:      maxLimit,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	h.serve(c, h.searchService.Search)
}

// SearchArea handles POST /api/v1/search/area
func (h *SearchHandler) SearchArea(c *gin.Context) {
	h.serve(c, h.searchService.SearchArea)
}

// AdminSearch handles POST /api/v1/admin/search
func (h *SearchHandler) AdminSearch(c *gin.Context) {
	h.serve(c, h.searchService.AdminSearch)
}

func (h *SearchHandler) serve(c *gin.Context, run func(context.Context, *model.SearchRequest) (*model.SearchResponse, error)) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	response, err := run(c.Request.Context(), req)
	if err != nil {
		writeSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// bind decodes and validates the request, writing a 400 on failure.
func (h *SearchHandler) bind(c *gin.Context) (*model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, false
	}
	if fields := validateSearch(&req, h.maxLimit); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return nil, false
	}
	if req.Page == 0 {
		req.Page = 1
	}
	return &req, true
}

// writeSearchError maps pipeline failures to HTTP responses.
func writeSearchError(c *gin.Context, err error) {
	status, body := searchErrorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Search failed", zap.Error(err))
	}
	c.JSON(status, body)
}

func searchErrorResponse(err error) (int, gin.H) {
	switch {
	case errors.Is(err, service.ErrNotRealEstate):
		return http.StatusBadRequest, gin.H{
			"error":           "This does not look like a property search. Try describing the home you are looking for.",
			"not_real_estate": true,
		}
	case errors.Is(err, service.ErrExtractionParse):
		return http.StatusBadRequest, gin.H{"error": "failed to parse query"}
	case errors.Is(err, service.ErrBudgetExceeded):
		return http.StatusServiceUnavailable, gin.H{"error": "search is temporarily unavailable"}
	case errors.Is(err, service.ErrStore):
		return http.StatusInternalServerError, gin.H{"error": "internal server error"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "search failed"}
	}
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	_, err := h.searchService.SearchStream(c.Request.Context(), req, func(event string, data any) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})
	if err != nil {
		status, body := searchErrorResponse(err)
		body["status"] = status
		sendSSE(c, service.EventError, body)
		flusher.Flush()
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}
