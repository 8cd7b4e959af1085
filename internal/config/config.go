// Package config loads simulation tunables from an optional YAML file with
// environment variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime tunables.
type Config struct {
	Seed            int64   `yaml:"seed"`
	TickInterval    float64 `yaml:"tick_interval"` // wall seconds between steps
	TimeScale       float64 `yaml:"time_scale"`
	StartingBalance float64 `yaml:"starting_balance"`
	DBPath          string  `yaml:"db_path"`
	APIPort         int     `yaml:"api_port"`
	AdminKey        string  `yaml:"-"` // env only, never from file
	Debug           bool    `yaml:"debug"`

	World struct {
		CitiesPerRegion int `yaml:"cities_per_region"`
		Carriers        int `yaml:"carriers"`
		Customers       int `yaml:"customers"`
	} `yaml:"world"`
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		Seed:            42,
		TickInterval:    1.0,
		TimeScale:       1.0,
		StartingBalance: 50000,
		DBPath:          "data/freightline.db",
		APIPort:         8080,
	}
	cfg.World.CitiesPerRegion = 4
	cfg.World.Carriers = 8
	cfg.World.Customers = 10
	return cfg
}

// Load reads the YAML file at path (skipped if path is empty or missing),
// then applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 1.0
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1.0
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Seed = envInt64("FREIGHTLINE_SEED", c.Seed)
	c.TimeScale = envFloat("FREIGHTLINE_TIME_SCALE", c.TimeScale)
	c.DBPath = envString("FREIGHTLINE_DB_PATH", c.DBPath)
	c.APIPort = envInt("FREIGHTLINE_API_PORT", c.APIPort)
	c.AdminKey = envString("FREIGHTLINE_ADMIN_KEY", c.AdminKey)
	c.Debug = envBool("FREIGHTLINE_DEBUG", c.Debug)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
