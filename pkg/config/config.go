// Package config loads session configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Audio configures capture and commit cadence.
type Audio struct {
	SampleRate     int     `json:"sample_rate,omitzero" yaml:"sample_rate,omitzero"`
	ChunkSize      int     `json:"chunk_size,omitzero" yaml:"chunk_size,omitzero"`
	OverlapSeconds float64 `json:"overlap_seconds,omitzero" yaml:"overlap_seconds,omitzero"`
	// CommitInterval is parsed with time.ParseDuration, e.g. "7s".
	CommitInterval string `json:"commit_interval,omitzero" yaml:"commit_interval,omitzero"`
}

// Transcription configures the realtime transcription session.
type Transcription struct {
	Model    string `json:"model,omitzero" yaml:"model,omitzero"`
	Language string `json:"language,omitzero" yaml:"language,omitzero"`
	Prompt   string `json:"prompt,omitzero" yaml:"prompt,omitzero"`
}

// Response configures the cleanup and reply passes.
type Response struct {
	CleanupModel  string `json:"cleanup_model,omitzero" yaml:"cleanup_model,omitzero"`
	ResponseModel string `json:"response_model,omitzero" yaml:"response_model,omitzero"`
	// Prompt file paths.
	CleanupPrompt  string `json:"cleanup_prompt,omitzero" yaml:"cleanup_prompt,omitzero"`
	ResponsePrompt string `json:"response_prompt,omitzero" yaml:"response_prompt,omitzero"`
}

// Synthesis configures text-to-speech.
type Synthesis struct {
	Model string `json:"model,omitzero" yaml:"model,omitzero"`
	// Voice is a concrete voice name or "random".
	Voice string `json:"voice,omitzero" yaml:"voice,omitzero"`
	// InstructionsPrompt is the path of the delivery-instructions file.
	InstructionsPrompt string `json:"instructions_prompt,omitzero" yaml:"instructions_prompt,omitzero"`
}

// Config is the full session configuration.
type Config struct {
	// APIKey may name an env var, e.g. "$OPENAI_API_KEY".
	APIKey string `json:"api_key,omitzero" yaml:"api_key,omitzero"`

	// OutputDir receives transcript and recording files.
	OutputDir string `json:"output_dir,omitzero" yaml:"output_dir,omitzero"`

	Audio         Audio         `json:"audio,omitzero" yaml:"audio,omitzero"`
	Transcription Transcription `json:"transcription,omitzero" yaml:"transcription,omitzero"`
	Response      Response      `json:"response,omitzero" yaml:"response,omitzero"`
	Synthesis     Synthesis     `json:"synthesis,omitzero" yaml:"synthesis,omitzero"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		APIKey:    "$OPENAI_API_KEY",
		OutputDir: "./outputs",
		Audio: Audio{
			SampleRate:     16000,
			ChunkSize:      1024,
			OverlapSeconds: 5,
			CommitInterval: "7s",
		},
		Transcription: Transcription{
			Model: "gpt-4o-transcribe",
		},
		Response: Response{
			CleanupModel:   "gpt-4.1-mini",
			ResponseModel:  "gpt-4.1",
			CleanupPrompt:  "./prompts/cleanup_prompt.txt",
			ResponsePrompt: "./prompts/response_prompt.txt",
		},
		Synthesis: Synthesis{
			Model:              "gpt-4o-mini-tts",
			Voice:              "random",
			InstructionsPrompt: "./prompts/tts_prompt.txt",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and that the commit interval parses.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive, got %d", c.Audio.ChunkSize)
	}
	if c.Audio.OverlapSeconds < 0 {
		return fmt.Errorf("config: overlap_seconds must not be negative, got %v", c.Audio.OverlapSeconds)
	}
	if _, err := c.CommitInterval(); err != nil {
		return err
	}
	return nil
}

// CommitInterval returns the parsed commit interval.
func (c *Config) CommitInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Audio.CommitInterval)
	if err != nil {
		return 0, fmt.Errorf("config: commit_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: commit_interval must be positive, got %v", d)
	}
	return d, nil
}

// ResolveAPIKey expands a "$VAR" API key from the environment.
func (c *Config) ResolveAPIKey() (string, error) {
	key := c.APIKey
	if strings.HasPrefix(key, "$") {
		key = os.Getenv(strings.TrimPrefix(key, "$"))
	}
	if key == "" {
		return "", fmt.Errorf("config: api_key is not set (tried %s)", c.APIKey)
	}
	return key, nil
}
