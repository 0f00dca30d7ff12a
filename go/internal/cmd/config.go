package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Outbox struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		BatchSize    int           `yaml:"batch_size"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"outbox"`

	Waitlist struct {
		SweepInterval time.Duration `yaml:"sweep_interval"`
	} `yaml:"waitlist"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	cfg.NATS.Stream = "GAME_EVENTS"
	cfg.NATS.SubjectPrefix = "game.events"
	cfg.Outbox.PollInterval = 5 * time.Second
	cfg.Outbox.BatchSize = 100
	cfg.Outbox.MaxRetries = 3
	cfg.Outbox.RetryDelay = time.Second
	cfg.Waitlist.SweepInterval = 30 * time.Second
	return &cfg
}

// loadConfig reads the YAML config, falling back to defaults when the
// file is absent.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
