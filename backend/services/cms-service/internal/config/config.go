package config

import (
	"fmt"
	"strings"

	libconfig "karocharge/backend/libs/config"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"CMS_HTTP_PORT" default:"3001"`
}

// BookingConfig points at the peer booking service.
type BookingConfig struct {
	BaseURL string `yaml:"baseUrl" env:"CMS_BOOKING_BASE_URL" default:"http://localhost:5000"`
}

// AccrualConfig tunes the simulated delivery rate.
type AccrualConfig struct {
	EnergyPerSecond float64 `yaml:"energyPerSecond" env:"CMS_ENERGY_PER_SECOND" default:"0.01"`
}

// Config defines cms service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Booking BookingConfig `yaml:"booking"`
	Accrual AccrualConfig `yaml:"accrual"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	var cfg Config
	if err := libconfig.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "3001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
