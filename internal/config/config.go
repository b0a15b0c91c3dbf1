// Package config provides configuration management for the feed change detector.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoDomains                = errors.New("source.domains must list at least one domain")
	ErrEmptyDomain              = errors.New("source.domains must not contain empty entries")
	ErrInvalidMaxArticles       = errors.New("detection.max_articles must be non-negative")
	ErrInvalidMaxAttempts       = errors.New("fetch.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetch.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("fetch.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("fetch.retry.timeout_sec must be at least 1")
	ErrInvalidBufferSize        = errors.New("fetch.buffer_size_kb must be at least 1")
	ErrInvalidSampleArticles    = errors.New("output.sample_articles must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidEnv               = errors.New("invalid environment override")
)

// DefaultPath is tried when no config file is given.
const DefaultPath = "configs/feedwatch.yaml"

// Environment variables recognised by ApplyEnv.
const (
	EnvEnableNormalization = "FEEDWATCH_ENABLE_URL_NORMALIZATION"
	EnvDomains             = "FEEDWATCH_DOMAINS"
	EnvPrimaryPath         = "FEEDWATCH_PRIMARY_PATH"
	EnvMaxArticles         = "FEEDWATCH_MAX_ARTICLES"
	EnvLogLevel            = "FEEDWATCH_LOG_LEVEL"
	EnvGitHubOutput        = "GITHUB_OUTPUT"
	EnvGitHubStepSummary   = "GITHUB_STEP_SUMMARY"
)

// Config represents the complete detector configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Detection DetectionConfig `yaml:"detection"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
}

// SourceConfig describes the feed source whose links get normalized.
type SourceConfig struct {
	Name        string   `yaml:"name"`
	FeedURL     string   `yaml:"feed_url"`
	PrimaryPath string   `yaml:"primary_path"`
	Domains     []string `yaml:"domains"`
}

// DetectionConfig controls the change-detection engine.
type DetectionConfig struct {
	EnableURLNormalization bool `yaml:"enable_url_normalization"`
	MaxArticles            int  `yaml:"max_articles"`
}

// FetchConfig controls how remote snapshots are downloaded.
type FetchConfig struct {
	Retry        RetryPolicy `yaml:"retry"`
	BufferSizeKb int         `yaml:"buffer_size_kb"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OutputConfig defines where the checker publishes its verdict.
type OutputConfig struct {
	GitHubOutput   string `yaml:"github_output"`
	SummaryPath    string `yaml:"summary_path"`
	SampleArticles int    `yaml:"sample_articles"`
}

// Default returns the configuration for the MLS NEXT news feed.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Name:        "MLS NEXT News",
			FeedURL:     "https://www.mlssoccer.com/mlsnext/news/",
			PrimaryPath: "mlsnext",
			Domains:     []string{"mlssoccer.com", "www.mlssoccer.com"},
		},
		Detection: DetectionConfig{
			EnableURLNormalization: true,
			MaxArticles:            15,
		},
		Fetch: FetchConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
			BufferSizeKb: 4096,
		},
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{SampleArticles: 5},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Resolve builds the effective configuration for a command: .env file, then
// the YAML file at path (or DefaultPath when it exists, or Default), then
// environment overrides. It returns the file actually used, if any.
func Resolve(path, envFile string) (*Config, string, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, "", err
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	cfg := Default()

	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, path, err
		}

		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Source.Domains) == 0 {
		return ErrNoDomains
	}

	for i, domain := range c.Source.Domains {
		if strings.TrimSpace(domain) == "" {
			return fmt.Errorf("%w: domains[%d]", ErrEmptyDomain, i)
		}
	}

	if c.Detection.MaxArticles < 0 {
		return ErrInvalidMaxArticles
	}

	if c.Fetch.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Fetch.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Fetch.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Fetch.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Fetch.BufferSizeKb < 1 {
		return ErrInvalidBufferSize
	}

	if c.Output.SampleArticles < 0 {
		return ErrInvalidSampleArticles
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// A missing file is not an error; variables already set are left untouched.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overrides configuration values from FEEDWATCH_* and GitHub Actions variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvEnableNormalization); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvEnableNormalization, v)
		}

		c.Detection.EnableURLNormalization = enabled
	}

	if v := os.Getenv(EnvDomains); v != "" {
		var domains []string

		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				domains = append(domains, d)
			}
		}

		c.Source.Domains = domains
	}

	if v := os.Getenv(EnvPrimaryPath); v != "" {
		c.Source.PrimaryPath = v
	}

	if v := os.Getenv(EnvMaxArticles); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvMaxArticles, v)
		}

		c.Detection.MaxArticles = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	if c.Output.GitHubOutput == "" {
		c.Output.GitHubOutput = os.Getenv(EnvGitHubOutput)
	}

	if c.Output.SummaryPath == "" {
		c.Output.SummaryPath = os.Getenv(EnvGitHubStepSummary)
	}

	return c.Validate()
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, Domains: %s, Normalization: %t, MaxArticles: %d}",
		c.Source.Name,
		strings.Join(c.Source.Domains, ","),
		c.Detection.EnableURLNormalization,
		c.Detection.MaxArticles,
	)
}
