package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModel       = "claude-sonnet-4-5-20250929"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096

	envAPIKey          = "ANTHROPIC_API_KEY"
	envModel           = "ANTHROPIC_MODEL"
	envBaseURL         = "ANTHROPIC_BASE_URL"
	envAPIKeyParameter = "ANTHROPIC_API_KEY_PARAMETER"
	envTemperature     = "TEMPERATURE"
	envMaxTokens       = "MAX_TOKENS"
	envDebug           = "DEBUG"
	envTranscriptTable = "TRANSCRIPT_TABLE"
)

// ConfigurationError reports a missing required setting.
type ConfigurationError struct {
	Key         string
	Remediation string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Remediation
}

// Config is resolved once at startup and never mutated afterwards.
type Config struct {
	apiKey          string
	model           string
	temperature     float64
	maxTokens       int
	debug           bool
	baseURL         string
	apiKeyParameter string
	transcriptTable string
}

// Load reads the process environment, optionally seeded from a .env file in
// the working directory. Only a missing API key is tolerated here; it is
// reported by APIKey on first use.
func Load() (Config, error) {
	_ = godotenv.Load()

	temperature, err := envFloat(envTemperature, DefaultTemperature)
	if err != nil {
		return Config{}, err
	}
	maxTokens, err := envInt(envMaxTokens, DefaultMaxTokens)
	if err != nil {
		return Config{}, err
	}

	return Config{
		apiKey:          os.Getenv(envAPIKey),
		model:           getEnv(envModel, DefaultModel),
		temperature:     temperature,
		maxTokens:       maxTokens,
		debug:           strings.EqualFold(getEnv(envDebug, "false"), "true"),
		baseURL:         strings.TrimSpace(os.Getenv(envBaseURL)),
		apiKeyParameter: strings.TrimSpace(os.Getenv(envAPIKeyParameter)),
		transcriptTable: strings.TrimSpace(os.Getenv(envTranscriptTable)),
	}, nil
}

// APIKey returns the Anthropic API key or a *ConfigurationError when unset.
func (c Config) APIKey() (string, error) {
	if c.apiKey == "" {
		return "", &ConfigurationError{
			Key: envAPIKey,
			Remediation: envAPIKey + " environment variable is required. " +
				"Please set it in your environment or .env file.",
		}
	}
	return c.apiKey, nil
}

// Validate is the eager form of the API key check.
func (c Config) Validate() error {
	_, err := c.APIKey()
	return err
}

// WithAPIKey returns a copy of c that carries key.
func (c Config) WithAPIKey(key string) Config {
	c.apiKey = strings.TrimSpace(key)
	return c
}

// Model is the Anthropic model identifier (ANTHROPIC_MODEL).
func (c Config) Model() string { return c.model }

// Temperature is the sampling temperature (TEMPERATURE).
func (c Config) Temperature() float64 { return c.temperature }

// MaxTokens caps each reply (MAX_TOKENS).
func (c Config) MaxTokens() int { return c.maxTokens }

// Debug enables diagnostic logging of model failures (DEBUG).
func (c Config) Debug() bool { return c.debug }

// BaseURL overrides the Messages API endpoint (ANTHROPIC_BASE_URL).
func (c Config) BaseURL() string { return c.baseURL }

// APIKeyParameter names the SSM parameter holding the key when
// ANTHROPIC_API_KEY is unset (ANTHROPIC_API_KEY_PARAMETER).
func (c Config) APIKeyParameter() string { return c.apiKeyParameter }

// TranscriptTable is the DynamoDB table for the turn audit trail
// (TRANSCRIPT_TABLE). Empty disables recording.
func (c Config) TranscriptTable() string { return c.transcriptTable }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return f, nil
}
