package models

// ServerResponse is the read-only view of a configured upstream RADIUS
// server returned by GET /api/v1/servers.
type ServerResponse struct {
	Address              string `json:"address"`
	Enabled              bool   `json:"enabled"`
	RetransTimeInitMs    int64  `json:"retrans_time_init_ms"`
	RetransTimeMaxMs     int64  `json:"retrans_time_max_ms"`
	RetransDurationMaxMs int64  `json:"retrans_duration_max_ms"`
	RetransCountMax      int    `json:"retrans_count_max"`
}

// AddServerRequest is the body of POST /api/v1/servers.
type AddServerRequest struct {
	Address              string `json:"address" binding:"required"`
	Secret               string `json:"secret" binding:"required"`
	RetransTimeInitMs    int64  `json:"retrans_time_init_ms"`
	RetransTimeMaxMs     int64  `json:"retrans_time_max_ms"`
	RetransDurationMaxMs int64  `json:"retrans_duration_max_ms"`
	RetransCountMax      int    `json:"retrans_count_max"`
}
