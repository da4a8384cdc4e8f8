// Package config provides the configuration structure for the voiceclone-service.
package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Defaults applied to zero-valued fields after the TOML file is loaded.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultModelID        = "HKUSTAudio/Llasa-3B"
	DefaultTemperature    = 0.7
	DefaultTopP           = 0.95
	DefaultTopK           = 50
	DefaultSampleRate     = 16000
	DefaultTimeoutSeconds = 300
	DefaultPromptsDir     = "prompts"
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	WebDir              string `toml:"web_dir"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// TTSConfig holds the configuration for the voice-clone synthesis engine.
type TTSConfig struct {
	ModelID        string  `toml:"model_id"`
	ModelDir       string  `toml:"model_dir"`
	RunnerPath     string  `toml:"runner_path"`
	Temperature    float64 `toml:"temperature"`
	TopP           float64 `toml:"top_p"`
	TopK           int     `toml:"top_k"`
	SampleRate     int     `toml:"sample_rate"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	PromptsDir     string  `toml:"prompts_dir"`
}

// ArchiveConfig holds the optional NATS clip-archive configuration.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Bucket  string `toml:"bucket"`
	Subject string `toml:"subject"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	TTS     TTSConfig     `toml:"tts"`
	Archive ArchiveConfig `toml:"archive"`
	Paths   PathsConfig   `toml:"paths"`
}

// Load loads the configuration for the voiceclone-service and fills
// unset fields with defaults.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}

	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}

	if c.TTS.ModelID == "" {
		c.TTS.ModelID = DefaultModelID
	}

	if c.TTS.Temperature == 0 {
		c.TTS.Temperature = DefaultTemperature
	}

	if c.TTS.TopP == 0 {
		c.TTS.TopP = DefaultTopP
	}

	if c.TTS.TopK == 0 {
		c.TTS.TopK = DefaultTopK
	}

	if c.TTS.SampleRate == 0 {
		c.TTS.SampleRate = DefaultSampleRate
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.TTS.PromptsDir == "" {
		c.TTS.PromptsDir = DefaultPromptsDir
	}
}

// Secrets holds values read from the process environment rather than the
// TOML file. A .env file in the working directory is merged in first.
type Secrets struct {
	HuggingFaceToken string `env:"HUGGING_FACE_TOKEN"`
}

// LoadSecrets reads secrets from .env and the environment. A missing .env
// file is not an error; the environment alone may carry the values.
func LoadSecrets() (Secrets, error) {
	_ = godotenv.Load()

	var secrets Secrets

	err := env.Parse(&secrets)
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	return secrets, nil
}
