package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the search API under /api/v1.
func RegisterRoutes(r gin.IRouter, search *SearchHandler, feedback *FeedbackHandler, adminKeys []string) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/search", search.Search)
		v1.POST("/search/area", search.SearchArea)
		v1.POST("/search/stream", search.SearchStream)
		v1.POST("/feedback", feedback.Submit)

		admin := v1.Group("/admin", BearerAuth(adminKeys))
		admin.POST("/search", search.AdminSearch)
	}
}
