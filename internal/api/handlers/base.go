// Package handlers implements the REST API endpoint handlers for HydraRadius.
//
// @title HydraRadius Management API
// @version 1.0
// @description REST API for managing HydraRadius server pools and inspecting scheduler statistics.
//
// @contact.name HydraRadius Support
// @contact.url https://github.com/hydraradius/hydraradius
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"time"

	"github.com/hydraradius/hydraradius/internal/config"
	"github.com/hydraradius/hydraradius/internal/radiusclient"
	"github.com/hydraradius/hydraradius/internal/store"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	client *radiusclient.Client
	store  *store.Store
}

// New creates a new Handler with the given configuration, scheduler client,
// and persistence store. client and st may be nil in tests that only
// exercise handlers with no runtime dependency.
func New(cfg *config.Config, logger *slog.Logger, client *radiusclient.Client, st *store.Store) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
		client:    client,
		store:     st,
	}
}
