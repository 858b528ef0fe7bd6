package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hydraradius/hydraradius/internal/api/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health godoc
// @Summary Health check
// @Description Returns server health status
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns runtime statistics including system CPU usage, memory usage, and scheduler metrics
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{
		NumCPU: runtime.NumCPU(),
	}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		Scheduler:     h.getSchedulerStats(),
	}

	c.JSON(http.StatusOK, resp)
}

// getSchedulerStats returns the scheduler's counters as a model response.
// Returns a zero value when no client is wired, which callers that only
// exercise the REST layer in isolation rely on.
func (h *Handler) getSchedulerStats() models.SchedulerStatsResponse {
	if h.client == nil {
		return models.SchedulerStatsResponse{}
	}
	snap := h.client.Stats().Snapshot()
	return models.SchedulerStatsResponse{
		QueriesSent:  snap.QueriesSent,
		Retransmits:  snap.Retransmits,
		Failovers:    snap.Failovers,
		TimedOut:     snap.TimedOut,
		Completed:    snap.Completed,
		Dropped:      snap.Dropped,
		AvgLatencyMs: snap.AvgLatencyMs,
	}
}

// StatsHistory godoc
// @Summary Historical scheduler statistics
// @Description Returns a rolling window of previously recorded statistics snapshots, newest first
// @Tags system
// @Produce json
// @Param limit query int false "maximum number of entries to return"
// @Success 200 {array} models.StatsHistoryResponse
// @Security ApiKeyAuth
// @Router /stats/history [get]
func (h *Handler) StatsHistory(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, []models.StatsHistoryResponse{})
		return
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.store.StatsHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := make([]models.StatsHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, models.StatsHistoryResponse{
			RecordedAt: e.RecordedAt,
			Scheduler: models.SchedulerStatsResponse{
				QueriesSent:  e.QueriesSent,
				Retransmits:  e.Retransmits,
				Failovers:    e.Failovers,
				TimedOut:     e.TimedOut,
				Completed:    e.Completed,
				Dropped:      e.Dropped,
				AvgLatencyMs: e.AvgLatencyMs,
			},
		})
	}
	c.JSON(http.StatusOK, resp)
}
