// Package config provides the configuration structure for the voice studio.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/joho/godotenv"
)

// Defaults applied to zero values.
const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com"
	DefaultModel           = "gemini-2.5-flash-preview-tts"
	DefaultAPIKeyEnv       = "GEMINI_API_KEY"
	DefaultLanguage        = "Español"
	DefaultAccent          = "Chileno"
	DefaultAudioFormat     = "wav"
	DefaultGenerateSubject = "studio.generate.requested"
	DefaultAudioBucket     = "STUDIO_AUDIO"
	DefaultHTTPBind        = "127.0.0.1:8080"
	DefaultRadioName       = "Mi Radio"
	DefaultCity            = "Santiago"
)

// GeminiConfig holds the remote speech model settings. The key itself is
// never stored here, only the name of the variable that carries it.
type GeminiConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StudioConfig holds pipeline settings.
type StudioConfig struct {
	Language    string `toml:"language"`
	Accent      string `toml:"accent"`
	AudioFormat string `toml:"audio_format"`
	SessionDir  string `toml:"session_dir"`
	RadioName   string `toml:"radio_name"`
	City        string `toml:"city"`
}

// NATSConfig holds the configuration for NATS. An empty URL disables the
// worker and keeps audio in the session directory.
type NATSConfig struct {
	URL                    string `toml:"url"`
	GenerateSubject        string `toml:"generate_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// HTTPConfig holds the API listener.
type HTTPConfig struct {
	Bind string `toml:"bind"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Gemini GeminiConfig `toml:"gemini"`
	Studio StudioConfig `toml:"studio"`
	NATS   NATSConfig   `toml:"nats"`
	HTTP   HTTPConfig   `toml:"http"`
	Paths  PathsConfig  `toml:"paths"`
}

// Load loads the configuration for the voice studio.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills every zero value with its default.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Gemini.BaseURL, DefaultBaseURL)
	setDefault(&c.Gemini.Model, DefaultModel)
	setDefault(&c.Gemini.APIKeyEnv, DefaultAPIKeyEnv)
	setDefault(&c.Studio.Language, DefaultLanguage)
	setDefault(&c.Studio.Accent, DefaultAccent)
	setDefault(&c.Studio.AudioFormat, DefaultAudioFormat)
	setDefault(&c.Studio.RadioName, DefaultRadioName)
	setDefault(&c.Studio.City, DefaultCity)
	setDefault(&c.NATS.GenerateSubject, DefaultGenerateSubject)
	setDefault(&c.NATS.AudioObjectStoreBucket, DefaultAudioBucket)
	setDefault(&c.HTTP.Bind, DefaultHTTPBind)
	setDefault(&c.Paths.BaseLogsDir, os.TempDir())

	if c.Gemini.TimeoutSeconds < 0 {
		c.Gemini.TimeoutSeconds = 0
	}
}

// Timeout is the per-request timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

// APIKey reads the credential from the configured environment variable.
func (c *Config) APIKey() string {
	name := c.Gemini.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}

	return strings.TrimSpace(os.Getenv(name))
}

// LoadEnv loads KEY=value files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, file := range files {
		err := godotenv.Load(file)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
