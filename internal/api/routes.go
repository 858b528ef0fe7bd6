package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hydraradius/hydraradius/internal/api/handlers"
	"github.com/hydraradius/hydraradius/internal/api/middleware"
	"github.com/hydraradius/hydraradius/internal/config"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hydraradius/hydraradius/internal/api/docs" // swagger docs
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/stats/history", h.StatsHistory)

	api.GET("/servers", h.ListServers)
	api.POST("/servers", h.AddServer)
	api.DELETE("/servers/:addr", h.RemoveServer)
}
