// Package config loads fraudwatch settings from YAML with environment
// overrides. A missing file leaves the defaults in place.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fraud-watch/monitor/internal/feed"
)

type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Control   ControlConfig   `yaml:"control"`
	Log       LogConfig       `yaml:"log"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

type FeedConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
	Token   string `yaml:"token"`
}

type ControlConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

type SimulatorConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Tick      time.Duration `yaml:"tick"`
	BatchSize int           `yaml:"batch_size"`
	FraudRate float64       `yaml:"fraud_rate"`
}

func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			BaseURL: "http://localhost:8000",
			Mode:    string(feed.ModeSimulation),
		},
		Control: ControlConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			File: "fraudwatch.log",
		},
		Simulator: SimulatorConfig{
			Host:      "127.0.0.1",
			Port:      8000,
			Tick:      500 * time.Millisecond,
			BatchSize: feed.DefaultBatchSize,
			FraudRate: 0.02,
		},
	}
}

// Load reads path over the defaults, then applies .env and process
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// Values already in the environment win over .env.
	_ = godotenv.Load(".env")
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("FRAUDWATCH_BASE_URL")); v != "" {
		c.Feed.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("FRAUDWATCH_MODE")); v != "" {
		c.Feed.Mode = v
	}
	if v := strings.TrimSpace(getenv("FRAUDWATCH_TOKEN")); v != "" {
		c.Feed.Token = v
	}
	if v := strings.TrimSpace(getenv("FRAUDWATCH_LOG_FILE")); v != "" {
		c.Log.File = v
	}
	if v := strings.TrimSpace(getenv("FEEDSIM_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FEEDSIM_PORT: %w", err)
		}
		c.Simulator.Port = port
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if _, err := feed.ParseMode(c.Feed.Mode); err != nil {
		return fmt.Errorf("feed.mode: %w", err)
	}
	if _, err := feed.WebSocketBase(c.Feed.BaseURL); err != nil {
		return fmt.Errorf("feed.base_url: %w", err)
	}
	if c.Control.Timeout <= 0 {
		return fmt.Errorf("control.timeout must be positive, got %s", c.Control.Timeout)
	}
	if c.Simulator.Port <= 0 || c.Simulator.Port > 65535 {
		return fmt.Errorf("simulator.port out of range: %d", c.Simulator.Port)
	}
	if c.Simulator.Tick <= 0 {
		return fmt.Errorf("simulator.tick must be positive, got %s", c.Simulator.Tick)
	}
	if c.Simulator.BatchSize <= 0 {
		return fmt.Errorf("simulator.batch_size must be positive, got %d", c.Simulator.BatchSize)
	}
	if c.Simulator.FraudRate < 0 || c.Simulator.FraudRate > 1 {
		return fmt.Errorf("simulator.fraud_rate must be within [0,1], got %g", c.Simulator.FraudRate)
	}
	return nil
}

// Mode returns the parsed startup mode. Only valid after Validate.
func (c *Config) Mode() feed.Mode {
	m, _ := feed.ParseMode(c.Feed.Mode)
	return m
}

// Addr is the simulator listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Simulator.Host, c.Simulator.Port)
}
