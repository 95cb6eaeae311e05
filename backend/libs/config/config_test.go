package config

import (
	"strings"
	"testing"
)

type nestedConfig struct {
	Port  string  `yaml:"port" env:"TESTSVC_PORT" default:"4000"`
	Rate  float64 `yaml:"rate" default:"0.5"`
	Debug bool    `yaml:"debug"`
}

type rootConfig struct {
	Name   string       `yaml:"name" default:"testsvc"`
	Nested nestedConfig `yaml:"nested"`
}

func TestLoadAppliesDefaults(t *testing.T) {
	var cfg rootConfig
	if err := Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "testsvc" {
		t.Fatalf("expected default name, got %q", cfg.Name)
	}
	if cfg.Nested.Port != "4000" || cfg.Nested.Rate != 0.5 {
		t.Fatalf("nested defaults not applied: %+v", cfg.Nested)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("TESTSVC_PORT", "9000")
	t.Setenv("NESTED_DEBUG", "true")

	var cfg rootConfig
	if err := Load(&cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Nested.Port != "9000" {
		t.Fatalf("tagged env key not applied, got %q", cfg.Nested.Port)
	}
	if !cfg.Nested.Debug {
		t.Fatalf("derived env key NESTED_DEBUG not applied")
	}
	if cfg.Nested.Rate != 0.5 {
		t.Fatalf("untouched field lost its default: %v", cfg.Nested.Rate)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TESTSVC_PORT", "9000")
	t.Setenv("NESTED_RATE", "not-a-number")

	var cfg rootConfig
	err := Load(&cfg)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "NESTED_RATE") {
		t.Fatalf("error should name the offending key, got %v", err)
	}
}

func TestLoadRejectsNonStructTarget(t *testing.T) {
	if err := Load(nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
	var s string
	if err := Load(&s); err == nil {
		t.Fatalf("expected error for non-struct target")
	}
}
