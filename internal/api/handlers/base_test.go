package handlers_test

import (
	"github.com/gin-gonic/gin"
	"github.com/hydraradius/hydraradius/internal/api/handlers"
)

func setupTestRouter(h *handlers.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api/v1")
	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/stats/history", h.StatsHistory)
	api.GET("/servers", h.ListServers)
	api.POST("/servers", h.AddServer)
	api.DELETE("/servers/:addr", h.RemoveServer)

	return r
}
