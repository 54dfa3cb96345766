package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents configuration data for the GamePulse service.
type Config struct {
	NodeName      string  `yaml:"node_name"`
	DataDirectory string  `yaml:"data_directory"`
	Backend       Backend `yaml:"backend"`
	Monitor       Monitor `yaml:"monitor"`
	Games         Games   `yaml:"games"`
}

// Backend describes the quiz backend the service pings and syncs from.
type Backend struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	HealthPath string `yaml:"health_path"`
	GamesPath  string `yaml:"games_path"`
}

// Monitor holds connectivity monitor settings.
type Monitor struct {
	PingIntervalSeconds      int `yaml:"ping_interval_seconds"`
	PingTimeoutSeconds       int `yaml:"ping_timeout_seconds"`
	ReachabilityPollSeconds  int `yaml:"reachability_poll_seconds"`
	HistoryLimit             int `yaml:"history_limit"`
	PersistedSampleRetention int `yaml:"persisted_sample_retention"`
}

// Games holds game-history sync settings.
type Games struct {
	SyncIntervalSeconds int `yaml:"sync_interval_seconds"`
	PageSize            int `yaml:"page_size"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "gamepulse-local"
	}

	return Config{
		NodeName:      hostname,
		DataDirectory: filepath.Join(".dist", "data"),
		Backend: Backend{
			BaseURL:    "http://localhost:3000",
			HealthPath: "/api/health",
			GamesPath:  "/api/games",
		},
		Monitor: Monitor{
			PingIntervalSeconds:      30,
			PingTimeoutSeconds:       5,
			ReachabilityPollSeconds:  5,
			HistoryLimit:             200,
			PersistedSampleRetention: 5000,
		},
		Games: Games{
			SyncIntervalSeconds: 300,
			PageSize:            50,
		},
	}
}

// Load reads configuration from a yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.NodeName == "" {
		cfg.NodeName = DefaultConfig().NodeName
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultConfig().DataDirectory
	}
	if cfg.Backend.BaseURL == "" {
		return Config{}, errors.New("backend.base_url is required")
	}
	if _, err := url.Parse(cfg.Backend.BaseURL); err != nil {
		return Config{}, fmt.Errorf("backend.base_url is invalid: %w", err)
	}
	if cfg.Backend.HealthPath == "" {
		cfg.Backend.HealthPath = "/api/health"
	}
	if cfg.Backend.GamesPath == "" {
		cfg.Backend.GamesPath = "/api/games"
	}
	if cfg.Monitor.PingIntervalSeconds <= 0 {
		cfg.Monitor.PingIntervalSeconds = 30
	}
	if cfg.Monitor.PingTimeoutSeconds <= 0 {
		cfg.Monitor.PingTimeoutSeconds = 5
	}
	if cfg.Monitor.ReachabilityPollSeconds <= 0 {
		cfg.Monitor.ReachabilityPollSeconds = 5
	}
	if cfg.Monitor.HistoryLimit <= 0 {
		cfg.Monitor.HistoryLimit = 200
	}
	if cfg.Monitor.PersistedSampleRetention <= 0 {
		cfg.Monitor.PersistedSampleRetention = 5000
	}
	if cfg.Games.SyncIntervalSeconds <= 0 {
		cfg.Games.SyncIntervalSeconds = 300
	}
	if cfg.Games.PageSize <= 0 {
		cfg.Games.PageSize = 50
	}
	return cfg, nil
}

// HealthURL resolves the backend health-check endpoint.
func (c Config) HealthURL() string {
	return joinURL(c.Backend.BaseURL, c.Backend.HealthPath)
}

// GamesURL resolves the backend games endpoint.
func (c Config) GamesURL() string {
	return joinURL(c.Backend.BaseURL, c.Backend.GamesPath)
}

func joinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
