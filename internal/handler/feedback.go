package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propsearch/internal/logger"
	"propsearch/internal/model"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	searchService Searcher
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(searchService Searcher) *FeedbackHandler {
	return &FeedbackHandler{
		searchService: searchService,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := fieldErrors(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.searchService.LogFeedback(c.Request.Context(), req.SearchID, req.PropertyID, req.Action)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to log feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback"})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
