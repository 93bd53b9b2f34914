package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Leaderboard   LeaderboardConfig   `yaml:"leaderboard"`
	Platforms     PlatformsConfig     `yaml:"platforms"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the HTTP listener configuration.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LeaderboardConfig tunes the refresh engine.
type LeaderboardConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	UpdateInterval time.Duration `yaml:"update_interval"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	RefreshAt      string        `yaml:"refresh_at"` // "HH:MM" wall-clock time
	Timezone       string        `yaml:"timezone"`
}

// PlatformsConfig holds per-platform API settings.
type PlatformsConfig struct {
	CodeChefBaseURL   string  `yaml:"codechef_base_url"`
	CodeforcesBaseURL string  `yaml:"codeforces_base_url"`
	LeetCodeBaseURL   string  `yaml:"leetcode_base_url"`
	GitHubBaseURL     string  `yaml:"github_base_url"`
	GitHubToken       string  `yaml:"github_token"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is missing. Env vars always win.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not set (config file or DATABASE_URL)")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Platforms.GitHubToken = v
	}
	if v := os.Getenv("LEADERBOARD_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Leaderboard.BatchSize = n
		}
	}
	if v := os.Getenv("LEADERBOARD_UPDATE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Leaderboard.UpdateInterval = d
		}
	}
	if v := os.Getenv("LEADERBOARD_REFRESH_AT"); v != "" {
		cfg.Leaderboard.RefreshAt = v
	}
	if v := os.Getenv("LEADERBOARD_TIMEZONE"); v != "" {
		cfg.Leaderboard.Timezone = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.Leaderboard.BatchSize <= 0 {
		cfg.Leaderboard.BatchSize = 10
	}
	if cfg.Leaderboard.UpdateInterval <= 0 {
		cfg.Leaderboard.UpdateInterval = 60 * time.Second
	}
	if cfg.Leaderboard.SettleDelay <= 0 {
		cfg.Leaderboard.SettleDelay = 5 * time.Second
	}
	if cfg.Leaderboard.RefreshAt == "" {
		cfg.Leaderboard.RefreshAt = "02:00"
	}
	if cfg.Leaderboard.Timezone == "" {
		cfg.Leaderboard.Timezone = "Asia/Kolkata"
	}
	if cfg.Platforms.CodeChefBaseURL == "" {
		cfg.Platforms.CodeChefBaseURL = "https://codechef-api.vercel.app"
	}
	if cfg.Platforms.CodeforcesBaseURL == "" {
		cfg.Platforms.CodeforcesBaseURL = "https://codeforces.com/api"
	}
	if cfg.Platforms.LeetCodeBaseURL == "" {
		cfg.Platforms.LeetCodeBaseURL = "https://leetcode-stats-api.herokuapp.com"
	}
	if cfg.Platforms.GitHubBaseURL == "" {
		cfg.Platforms.GitHubBaseURL = "https://api.github.com"
	}
	if cfg.Platforms.RequestsPerSecond <= 0 {
		cfg.Platforms.RequestsPerSecond = 5
	}
}
