package config

import (
	"fmt"
	"strings"
	"time"

	libconfig "karocharge/backend/libs/config"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"BOOKING_HTTP_PORT" default:"5000"`
}

// CMSConfig points at the peer charger management service.
type CMSConfig struct {
	BaseURL string `yaml:"baseUrl" env:"BOOKING_CMS_BASE_URL" default:"http://localhost:3001"`
}

// OTPConfig tunes the verification window.
type OTPConfig struct {
	LeadMinutes int `yaml:"leadMinutes" env:"BOOKING_OTP_LEAD_MINUTES" default:"15"`
}

// SchedulerConfig tunes the late-arrival and no-show timers.
type SchedulerConfig struct {
	LateArrivalDelaySeconds int `yaml:"lateArrivalDelaySeconds" env:"BOOKING_LATE_ARRIVAL_DELAY_SECONDS" default:"50"`
	LateFeeIntervalSeconds  int `yaml:"lateFeeIntervalSeconds" env:"BOOKING_LATE_FEE_INTERVAL_SECONDS" default:"60"`
	NoShowGraceMinutes      int `yaml:"noShowGraceMinutes" env:"BOOKING_NO_SHOW_GRACE_MINUTES" default:"5"`
}

// Config defines booking service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CMS       CMSConfig       `yaml:"cms"`
	OTP       OTPConfig       `yaml:"otp"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
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
		port = "5000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// OTPLead returns the verification window as a duration.
func (c *Config) OTPLead() time.Duration {
	return time.Duration(c.OTP.LeadMinutes) * time.Minute
}

// LateArrivalDelay returns the initial arrival grace window.
func (c *Config) LateArrivalDelay() time.Duration {
	return time.Duration(c.Scheduler.LateArrivalDelaySeconds) * time.Second
}

// LateFeeInterval returns the periodic fee cadence.
func (c *Config) LateFeeInterval() time.Duration {
	return time.Duration(c.Scheduler.LateFeeIntervalSeconds) * time.Second
}

// NoShowGrace returns the grace past scheduled end before a no-show.
func (c *Config) NoShowGrace() time.Duration {
	return time.Duration(c.Scheduler.NoShowGraceMinutes) * time.Minute
}
