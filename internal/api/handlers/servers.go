package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hydraradius/hydraradius/internal/api/models"
	"github.com/hydraradius/hydraradius/internal/radiusclient"
	"github.com/hydraradius/hydraradius/internal/store"
)

// ListServers godoc
// @Summary List configured servers
// @Description Returns every upstream RADIUS server currently in the scheduler's server table
// @Tags servers
// @Produce json
// @Success 200 {array} models.ServerResponse
// @Security ApiKeyAuth
// @Router /servers [get]
func (h *Handler) ListServers(c *gin.Context) {
	var snaps []radiusclient.ServerSnapshot
	if h.client != nil {
		snaps = h.client.Servers()
	}

	resp := make([]models.ServerResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, models.ServerResponse{
			Address:              s.Address,
			Enabled:              s.Enabled,
			RetransTimeInitMs:    s.Retrans.InitMs,
			RetransTimeMaxMs:     s.Retrans.MaxMs,
			RetransDurationMaxMs: s.Retrans.DurationMaxMs,
			RetransCountMax:      s.Retrans.CountMax,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// AddServer godoc
// @Summary Add an upstream server
// @Description Adds a new RADIUS server to the scheduler's server table and persists it
// @Tags servers
// @Accept json
// @Produce json
// @Param server body models.AddServerRequest true "server to add"
// @Success 201 {object} models.ServerResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /servers [post]
func (h *Handler) AddServer(c *gin.Context) {
	var req models.AddServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	retrans := radiusclient.RetransPolicy{
		InitMs:        req.RetransTimeInitMs,
		MaxMs:         req.RetransTimeMaxMs,
		DurationMaxMs: req.RetransDurationMaxMs,
		CountMax:      req.RetransCountMax,
	}
	if retrans.InitMs <= 0 {
		retrans.InitMs = radiusclient.DefaultRetransPolicy().InitMs
	}

	if h.client != nil {
		err := h.client.ServerAdd(radiusclient.ServerSettings{
			Address: req.Address,
			Secret:  []byte(req.Secret),
			Retrans: retrans,
			Enabled: true,
		})
		if err == radiusclient.ErrTooManyLinks {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: "server table is full"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	if h.store != nil {
		if _, err := h.store.AddServer(store.ServerRecord{
			Address:              req.Address,
			Secret:               req.Secret,
			RetransTimeInitMs:    retrans.InitMs,
			RetransTimeMaxMs:     retrans.MaxMs,
			RetransDurationMaxMs: retrans.DurationMaxMs,
			RetransCountMax:      retrans.CountMax,
			Enabled:              true,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, models.ServerResponse{
		Address:              req.Address,
		Enabled:              true,
		RetransTimeInitMs:    retrans.InitMs,
		RetransTimeMaxMs:     retrans.MaxMs,
		RetransDurationMaxMs: retrans.DurationMaxMs,
		RetransCountMax:      retrans.CountMax,
	})
}

// RemoveServer godoc
// @Summary Remove an upstream server
// @Description Removes a RADIUS server from the scheduler's server table by address
// @Tags servers
// @Produce json
// @Param addr path string true "server address, host:port"
// @Success 200 {object} models.StatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /servers/{addr} [delete]
func (h *Handler) RemoveServer(c *gin.Context) {
	addr := c.Param("addr")

	removed := false
	if h.client != nil {
		removed = h.client.ServerRemoveByAddr(addr)
	}
	if h.store != nil {
		_ = h.store.DeleteServerByAddress(addr)
	}

	if !removed {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "server not found"})
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}
