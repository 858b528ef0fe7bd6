// Package config provides configuration loading for HydraRadius using
// Viper. Configuration is loaded from YAML files with automatic
// environment variable binding.
//
// Environment variables use the HYDRARADIUS_ prefix and
// underscore-separated keys:
//   - HYDRARADIUS_QUEUE_MAX -> queue_max
//   - HYDRARADIUS_POOL_MAX -> pool_max
//   - HYDRARADIUS_NAS_IDENTIFIER -> nas_identifier
//   - HYDRARADIUS_API_ENABLED -> api.enabled
package config

import (
	"os"
	"strings"
)

// ServerEntry describes one configured upstream RADIUS server, mirroring
// the YAML `server_list[]` entries.
type ServerEntry struct {
	Address              string `yaml:"address"                  mapstructure:"address"`
	Secret               string `yaml:"secret"                   mapstructure:"secret"`
	RetransTimeInitMs    int64  `yaml:"retrans_time_init_ms"     mapstructure:"retrans_time_init_ms"`
	RetransTimeMaxMs     int64  `yaml:"retrans_time_max_ms"      mapstructure:"retrans_time_max_ms"`
	RetransDurationMaxMs int64  `yaml:"retrans_duration_max_ms"  mapstructure:"retrans_duration_max_ms"`
	RetransCountMax      int    `yaml:"retrans_count_max"        mapstructure:"retrans_count_max"`
	Enabled              bool   `yaml:"enabled"                  mapstructure:"enabled"`
}

// SocketConfig mirrors the YAML `skt` block (send/receive buffer tuning).
type SocketConfig struct {
	RcvBuf int `yaml:"rcv_buf" mapstructure:"rcv_buf"`
	SndBuf int `yaml:"snd_buf" mapstructure:"snd_buf"`
}

// LoggingConfig contains logging settings, same shape the teacher uses.
type LoggingConfig struct {
	Level            string            `yaml:"level"             mapstructure:"level"             json:"level"`
	Structured       bool              `yaml:"structured"        mapstructure:"structured"        json:"structured"`
	StructuredFormat string            `yaml:"structured_format" mapstructure:"structured_format" json:"structured_format"`
	IncludePID       bool              `yaml:"include_pid"       mapstructure:"include_pid"       json:"include_pid"`
	ExtraFields      map[string]string `yaml:"extra_fields"      mapstructure:"extra_fields"      json:"extra_fields,omitempty"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is intentionally treated as a secret and should not be
// returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Host    string `yaml:"host"    mapstructure:"host"`
	Port    int    `yaml:"port"    mapstructure:"port"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// StoreConfig controls the SQLite-backed server-table/stats persistence.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Config is the root configuration structure.
type Config struct {
	ServerList    []ServerEntry `yaml:"server_list"    mapstructure:"server_list"`
	QueueMax      int           `yaml:"queue_max"      mapstructure:"queue_max"`
	PoolMin       int           `yaml:"pool_min"       mapstructure:"pool_min"`
	PoolMax       int           `yaml:"pool_max"       mapstructure:"pool_max"`
	Skt           SocketConfig  `yaml:"skt"            mapstructure:"skt"`
	NASIdentifier string        `yaml:"nas_identifier" mapstructure:"nas_identifier"`
	Threads       int           `yaml:"threads"        mapstructure:"threads"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	API     APIConfig     `yaml:"api"     mapstructure:"api"`
	Store   StoreConfig   `yaml:"store"   mapstructure:"store"`
}

// ResolveConfigPath determines the config file path from flag or
// environment.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv("HYDRARADIUS_CONFIG")); v != "" {
		return v
	}
	return ""
}

// Load loads configuration from a YAML file with environment variable
// overrides. This is the main entry point for loading configuration.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (HYDRARADIUS_*)
//  2. Config file values
//  3. Default values
func Load(path string) (*Config, error) {
	return loadFromSource(ResolveConfigPath(path))
}
