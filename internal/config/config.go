package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	RateLimitMs   int              `json:"rate_limit_ms"`
	StatsCron     string           `json:"stats_cron"`
	Dataset       DatasetConfig    `json:"dataset"`
	Recommend     RecommendConfig  `json:"recommend"`
}

// DatasetConfig selects where clicks, article metadata and embeddings are
// loaded from. Data is decoded by the selected source.
type DatasetConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RecommendConfig struct {
	DefaultTopK     int  `json:"default_top_k"`
	MaxTopK         int  `json:"max_top_k"`
	DedupClicks     bool `json:"dedup_clicks"`
	CacheSize       int  `json:"cache_size"`
	CacheTTLSeconds int  `json:"cache_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.RateLimitMs < 0 {
		return fmt.Errorf("rate_limit_ms must not be negative")
	}
	cfg.Dataset.Type = strings.ToLower(strings.TrimSpace(cfg.Dataset.Type))
	if cfg.Dataset.Type == "" {
		cfg.Dataset.Type = "local"
	}
	switch cfg.Dataset.Type {
	case "local", "s3", "postgres":
	default:
		return fmt.Errorf("dataset.type must be local, s3 or postgres")
	}
	if cfg.Dataset.Data == nil {
		cfg.Dataset.Data = map[string]interface{}{}
	}
	rc := &cfg.Recommend
	if rc.DefaultTopK == 0 {
		rc.DefaultTopK = 5
	}
	if rc.MaxTopK == 0 {
		rc.MaxTopK = 100
	}
	if rc.DefaultTopK < 0 || rc.MaxTopK < 0 {
		return fmt.Errorf("recommend.default_top_k and recommend.max_top_k must be positive")
	}
	if rc.DefaultTopK > rc.MaxTopK {
		return fmt.Errorf("recommend.default_top_k must not exceed recommend.max_top_k")
	}
	// a negative cache_size or cache_ttl_seconds turns the result cache off
	if rc.CacheSize == 0 {
		rc.CacheSize = 1024
	}
	if rc.CacheTTLSeconds == 0 {
		rc.CacheTTLSeconds = 300
	}
	return nil
}
