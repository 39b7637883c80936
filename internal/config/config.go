package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"MacroPulse/internal/engine"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL   string   `yaml:"base_url"`
		APIKey    string   `yaml:"api_key"`
		TimeoutMS int      `yaml:"timeout_ms"`
		DenyList  []string `yaml:"deny_list"`
		UseMock   bool     `yaml:"use_mock"`
	} `yaml:"data_source"`
	Database struct {
		BarsPath    string `yaml:"bars_path"`
		ResultsPath string `yaml:"results_path"`
	} `yaml:"database"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
		FeedbackCron string `yaml:"feedback_cron"`
	} `yaml:"schedule"`
	Engine   engine.Config `yaml:"engine"`
	Feedback struct {
		HorizonMinutes int     `yaml:"horizon_minutes"`
		FlatThreshold  float64 `yaml:"flat_threshold"`
		Window         int     `yaml:"window"`
	} `yaml:"feedback"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// FeedTimeout is the per-call ceiling for guarded source calls.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutMS) * time.Millisecond
}

// FeedbackHorizon is how long a decision waits before evaluation.
func (c *Config) FeedbackHorizon() time.Duration {
	return time.Duration(c.Feedback.HorizonMinutes) * time.Minute
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{Engine: engine.DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BRIDGE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BRIDGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("BRIDGE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.TimeoutMS = ms
		}
	}
	if v := os.Getenv("BRIDGE_DENY_LIST"); v != "" {
		cfg.DataSource.DenyList = strings.Split(v, ",")
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("BARS_DB_PATH"); v != "" {
		cfg.Database.BarsPath = v
	}
	if v := os.Getenv("RESULTS_DB_PATH"); v != "" {
		cfg.Database.ResultsPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.DataSource.TimeoutMS == 0 {
		cfg.DataSource.TimeoutMS = 1500
	}
	if cfg.Schedule.EvaluateCron == "" {
		cfg.Schedule.EvaluateCron = "0 */5 9-18 * * 1-5"
	}
	if cfg.Schedule.FeedbackCron == "" {
		cfg.Schedule.FeedbackCron = "0 */15 9-18 * * 1-5"
	}
	if cfg.Database.BarsPath == "" {
		cfg.Database.BarsPath = "data/bars.db"
	}
	if cfg.Database.ResultsPath == "" {
		cfg.Database.ResultsPath = "data/results.db"
	}
	if cfg.Feedback.HorizonMinutes == 0 {
		cfg.Feedback.HorizonMinutes = 30
	}
	if cfg.Feedback.FlatThreshold == 0 {
		cfg.Feedback.FlatThreshold = 50
	}
	if cfg.Feedback.Window == 0 {
		cfg.Feedback.Window = 50
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if !c.DataSource.UseMock && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required unless use_mock is set")
	}
	if c.DataSource.TimeoutMS <= 0 {
		return fmt.Errorf("data_source.timeout_ms must be positive")
	}
	if c.Feedback.HorizonMinutes <= 0 {
		return fmt.Errorf("feedback.horizon_minutes must be positive")
	}
	w := c.Engine.CoverageWeight + c.Engine.UnanimityWeight + c.Engine.MagnitudeWeight
	if w <= 0 {
		return fmt.Errorf("engine confidence weights must sum to a positive value")
	}
	if c.Engine.MagnitudeCeiling <= 0 {
		return fmt.Errorf("engine.magnitude_ceiling must be positive")
	}
	return nil
}
