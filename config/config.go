package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Secdash SecdashConfig `yaml:"secdash"`
}

// SecdashConfig is the project configuration.
type SecdashConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Backend     BackendConfig     `yaml:"backend"`
	Assistant   AssistantConfig   `yaml:"assistant"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Mitre       MitreConfig       `yaml:"mitre"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig controls access to the monitoring backend.
type BackendConfig struct {
	URL               string            `yaml:"url"`
	Token             string            `yaml:"token"`
	Timeout           time.Duration     `yaml:"timeout"`
	Headers           map[string]string `yaml:"headers"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	SearchSize        int               `yaml:"search_size"`
}

// AssistantConfig controls the summarization API client and workflow.
type AssistantConfig struct {
	URL             string        `yaml:"url"`
	Token           string        `yaml:"token"`
	Version         string        `yaml:"version"`
	Timeout         time.Duration `yaml:"timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
	Cache           CacheConfig   `yaml:"cache"`
}

// CacheConfig controls the thread-per-subject cache backend.
type CacheConfig struct {
	Mode  string      `yaml:"mode"` // memory|redis
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls Redis-backed thread caching.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// ClassifierConfig owns the single alert-level threshold table.
type ClassifierConfig struct {
	CriticalLevel int `yaml:"critical_level"`
	HighLevel     int `yaml:"high_level"`
	MediumLevel   int `yaml:"medium_level"`
}

// AggregationConfig controls rankings and the daily series window.
type AggregationConfig struct {
	TopN       int `yaml:"top_n"`
	WindowDays int `yaml:"window_days"`
}

// MitreConfig controls the ATT&CK reference table.
type MitreConfig struct {
	TablePath string `yaml:"table_path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
