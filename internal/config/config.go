package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// initConfig sets up the config loader with defaults, env binding, and config file.
func initConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Uses HYDRARADIUS_ prefix: HYDRARADIUS_QUEUE_MAX -> queue_max
	v.SetEnvPrefix("HYDRARADIUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// setDefaults configures all default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("queue_max", 256)
	v.SetDefault("pool_min", 1)
	v.SetDefault("pool_max", 16)
	v.SetDefault("nas_identifier", "hydraradius")
	v.SetDefault("threads", 0) // 0 == auto (GOMAXPROCS)

	v.SetDefault("skt.rcv_buf", 212992)
	v.SetDefault("skt.snd_buf", 212992)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.structured", false)
	v.SetDefault("logging.structured_format", "json")
	v.SetDefault("logging.include_pid", false)
	v.SetDefault("logging.extra_fields", map[string]string{})

	// Default to disabled and bound to localhost for safety.
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.api_key", "")

	v.SetDefault("store.path", "hydraradius.db")
}

// loadFromSource loads configuration from file and environment.
func loadFromSource(configPath string) (*Config, error) {
	v, err := initConfig(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	loadServerList(v, cfg)
	loadCoreConfig(v, cfg)
	loadLoggingConfig(v, cfg)
	loadAPIConfig(v, cfg)
	loadStoreConfig(v, cfg)

	if err := normalizeConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadServerList(v *viper.Viper, cfg *Config) {
	if err := v.UnmarshalKey("server_list", &cfg.ServerList); err != nil {
		cfg.ServerList = nil
	}
}

func loadCoreConfig(v *viper.Viper, cfg *Config) {
	cfg.QueueMax = v.GetInt("queue_max")
	cfg.PoolMin = v.GetInt("pool_min")
	cfg.PoolMax = v.GetInt("pool_max")
	cfg.NASIdentifier = v.GetString("nas_identifier")
	cfg.Threads = v.GetInt("threads")
	cfg.Skt.RcvBuf = v.GetInt("skt.rcv_buf")
	cfg.Skt.SndBuf = v.GetInt("skt.snd_buf")
}

func loadLoggingConfig(v *viper.Viper, cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(v.GetString("logging.level"))
	cfg.Logging.Structured = v.GetBool("logging.structured")
	cfg.Logging.StructuredFormat = v.GetString("logging.structured_format")
	cfg.Logging.IncludePID = v.GetBool("logging.include_pid")
	cfg.Logging.ExtraFields = v.GetStringMapString("logging.extra_fields")
}

func loadAPIConfig(v *viper.Viper, cfg *Config) {
	cfg.API.Enabled = v.GetBool("api.enabled")
	cfg.API.Host = v.GetString("api.host")
	cfg.API.Port = v.GetInt("api.port")
	cfg.API.APIKey = v.GetString("api.api_key")
}

func loadStoreConfig(v *viper.Viper, cfg *Config) {
	cfg.Store.Path = v.GetString("store.path")
}

// normalizeConfig validates and normalizes the configuration, mirroring
// the teacher's normalizeConfig: bounds checks plus defaulting for
// fields a server entry omitted.
func normalizeConfig(cfg *Config) error {
	if cfg.PoolMin <= 0 {
		cfg.PoolMin = 1
	}
	if cfg.PoolMax < cfg.PoolMin {
		return errors.New("pool_max must be >= pool_min")
	}

	// queue_max capacity is rounded up to a multiple of 4 (the server
	// table's storage invariant).
	if cfg.QueueMax <= 0 {
		cfg.QueueMax = 4
	}
	if rem := cfg.QueueMax % 4; rem != 0 {
		cfg.QueueMax += 4 - rem
	}

	if cfg.NASIdentifier == "" {
		cfg.NASIdentifier = "hydraradius"
	}

	for i := range cfg.ServerList {
		s := &cfg.ServerList[i]
		if s.Address == "" {
			return fmt.Errorf("server_list[%d].address is required", i)
		}
		if s.RetransTimeInitMs <= 0 {
			s.RetransTimeInitMs = 100
		}
		// RetransTimeMaxMs, RetransDurationMaxMs, RetransCountMax default
		// to 0 (unbounded) per RFC 2865 recommendations, so a zero value
		// from an omitted YAML field needs no further normalization.
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.StructuredFormat == "" {
		cfg.Logging.StructuredFormat = "json"
	}
	if cfg.Logging.ExtraFields == nil {
		cfg.Logging.ExtraFields = map[string]string{}
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "hydraradius.db"
	}

	return nil
}
