package models

import "time"

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string             `json:"uptime"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	StartTime     time.Time          `json:"start_time"`
	CPU           CPUStats           `json:"cpu"`
	Memory        MemoryStats        `json:"memory"`
	Scheduler     SchedulerStatsResponse `json:"scheduler"`
}

// SchedulerStatsResponse mirrors radiusclient.StatsSnapshot.
type SchedulerStatsResponse struct {
	QueriesSent  uint64  `json:"queries_sent"`
	Retransmits  uint64  `json:"retransmits"`
	Failovers    uint64  `json:"failovers"`
	TimedOut     uint64  `json:"timed_out"`
	Completed    uint64  `json:"completed"`
	Dropped      uint64  `json:"dropped"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// StatsHistoryResponse is one entry of the stats history endpoint.
type StatsHistoryResponse struct {
	RecordedAt time.Time              `json:"recorded_at"`
	Scheduler  SchedulerStatsResponse `json:"scheduler"`
}
