package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Playlist struct {
		TTL string `yaml:"ttl"`
	} `yaml:"playlist"`
	Resolver struct {
		// APIKey is the YouTube Data API credential; the YOUTUBE_API_KEY
		// environment variable takes precedence.
		APIKey string `yaml:"api_key"`
		// StrictKey makes a missing credential a hard configuration error
		// instead of falling through to the scraping strategies.
		StrictKey bool `yaml:"strict_key"`
	} `yaml:"resolver"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		cfg.Resolver.APIKey = key
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
