// Copyright (c) 2025 The umldraft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for umldraft.
//
// TOML configuration with sensible defaults and environment variable
// overrides. File location: ~/.umldraft/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete umldraft configuration.
type Config struct {
	Groq     GroqConfig     `toml:"groq"`
	PlantUML PlantUMLConfig `toml:"plantuml"`
	Memory   MemoryConfig   `toml:"memory"`
	UI       UIConfig       `toml:"ui"`
}

// GroqConfig holds the Groq API settings.
type GroqConfig struct {
	// APIKey is the Groq API key. Usually left empty here and supplied
	// through the environment or a .env file instead.
	APIKey string `toml:"api_key"`
	// Model is the chat model identifier.
	Model string `toml:"model"`
	// Temperature is the sampling temperature. Nil means the built-in
	// default; an explicit 0 is a valid setting and is honored.
	Temperature *float64 `toml:"temperature"`
	// MaxTokens caps the completion length (0 = provider default).
	MaxTokens int `toml:"max_tokens"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries is the retry budget for transient errors.
	MaxRetries int `toml:"max_retries"`
}

// PlantUMLConfig holds the diagram rendering settings.
type PlantUMLConfig struct {
	// ServerURL is the PlantUML server base URL.
	ServerURL string `toml:"server_url"`
	// Format is the default image format: "png" or "svg".
	Format string `toml:"format"`
	// OutputDir is where rendered images are saved
	// (empty = ~/.umldraft/diagrams).
	OutputDir string `toml:"output_dir"`
	// FetchTimeoutSecs bounds a single image download.
	FetchTimeoutSecs int `toml:"fetch_timeout_secs"`
	// FetchImages disables image downloads when false; URLs are still printed.
	FetchImages bool `toml:"fetch_images"`
}

// MemoryConfig holds the conversation window settings.
type MemoryConfig struct {
	// MaxMessages bounds the rolling context window (0 = unlimited).
	MaxMessages int `toml:"max_messages"`
}

// UIConfig holds terminal display settings.
type UIConfig struct {
	// Color enables ANSI styling. Auto-disabled when stdout is not a TTY.
	Color bool `toml:"color"`
	// Markdown renders assistant replies as formatted markdown.
	Markdown bool `toml:"markdown"`
	// WordWrap is the rendering width for markdown output.
	WordWrap int `toml:"word_wrap"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaultTemperature keeps replies close to deterministic so the same
// request tends to produce the same diagram.
const defaultTemperature = 0.2

// Default returns the built-in configuration.
func Default() *Config {
	temp := defaultTemperature
	return &Config{
		Groq: GroqConfig{
			Model:       "gemma2-9b-it",
			Temperature: &temp,
			TimeoutSecs: 60,
			MaxRetries:  3,
		},
		PlantUML: PlantUMLConfig{
			ServerURL:        "https://www.plantuml.com/plantuml",
			Format:           "png",
			FetchTimeoutSecs: 15,
			FetchImages:      true,
		},
		Memory: MemoryConfig{
			MaxMessages: 20,
		},
		UI: UIConfig{
			Color:    true,
			Markdown: true,
			WordWrap: 80,
		},
	}
}

// GroqTemperature returns the sampling temperature, applying the default
// when the config never set one. An explicit zero passes through.
func (c *Config) GroqTemperature() float64 {
	if c.Groq.Temperature == nil {
		return defaultTemperature
	}
	return *c.Groq.Temperature
}

// GroqTimeout returns the request timeout as a duration.
func (c *Config) GroqTimeout() time.Duration {
	if c.Groq.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Groq.TimeoutSecs) * time.Second
}

// FetchTimeout returns the image download timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	if c.PlantUML.FetchTimeoutSecs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.PlantUML.FetchTimeoutSecs) * time.Second
}

// DiagramDir returns the image output directory, resolving the default
// under the config dir when unset.
func (c *Config) DiagramDir() (string, error) {
	if c.PlantUML.OutputDir != "" {
		return c.PlantUML.OutputDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "diagrams"), nil
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the umldraft configuration directory (~/.umldraft).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".umldraft"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, falling back to defaults when it does not
// exist, then applies environment overrides. A malformed file is an error;
// a missing one is not.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults backfills zero values left by a partial config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Groq.Model == "" {
		c.Groq.Model = def.Groq.Model
	}
	if c.Groq.Temperature == nil {
		c.Groq.Temperature = def.Groq.Temperature
	}
	if c.Groq.TimeoutSecs == 0 {
		c.Groq.TimeoutSecs = def.Groq.TimeoutSecs
	}
	if c.Groq.MaxRetries == 0 {
		c.Groq.MaxRetries = def.Groq.MaxRetries
	}
	if c.PlantUML.ServerURL == "" {
		c.PlantUML.ServerURL = def.PlantUML.ServerURL
	}
	if c.PlantUML.Format == "" {
		c.PlantUML.Format = def.PlantUML.Format
	}
	if c.PlantUML.FetchTimeoutSecs == 0 {
		c.PlantUML.FetchTimeoutSecs = def.PlantUML.FetchTimeoutSecs
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = def.UI.WordWrap
	}
}

// ApplyEnvOverrides lets the environment win over the file for settings
// that commonly vary per shell.
//
//	GROQ_API_KEY          -> Groq.APIKey
//	UMLDRAFT_MODEL        -> Groq.Model
//	PLANTUML_SERVER_URL   -> PlantUML.ServerURL
//	UMLDRAFT_FORMAT       -> PlantUML.Format
//	UMLDRAFT_MAX_MESSAGES -> Memory.MaxMessages
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("UMLDRAFT_MODEL"); v != "" {
		c.Groq.Model = v
	}
	if v := os.Getenv("PLANTUML_SERVER_URL"); v != "" {
		c.PlantUML.ServerURL = v
	}
	if v := os.Getenv("UMLDRAFT_FORMAT"); v != "" {
		c.PlantUML.Format = v
	}
	if v := os.Getenv("UMLDRAFT_MAX_MESSAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Memory.MaxMessages = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.PlantUML.Format != "png" && c.PlantUML.Format != "svg" {
		return fmt.Errorf("config: plantuml.format must be png or svg, got %q", c.PlantUML.Format)
	}
	if c.Memory.MaxMessages < 0 {
		return fmt.Errorf("config: memory.max_messages must be >= 0, got %d", c.Memory.MaxMessages)
	}
	if c.Groq.TimeoutSecs < 0 {
		return fmt.Errorf("config: groq.timeout_secs must be >= 0, got %d", c.Groq.TimeoutSecs)
	}
	if t := c.GroqTemperature(); t < 0 || t > 2 {
		return fmt.Errorf("config: groq.temperature must be in [0, 2], got %v", t)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path in TOML format.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to a specific file path.
func SaveToPath(cfg *Config, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
