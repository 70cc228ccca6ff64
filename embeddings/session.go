package embeddings

import (
	"fmt"
	"os"
	"strconv"
)

// APIKeyEnv is the environment variable the session credential is read from.
const APIKeyEnv = "OPENAI_API_KEY"

// Session holds the credential used to authenticate every transport call.
// It is established once per run and read-only afterwards, so parallel
// split branches can share it without locking.
type Session struct {
	apiKey string
}

// NewSession creates a session from an explicit credential.
func NewSession(apiKey string) (*Session, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key must not be empty")
	}
	return &Session{apiKey: apiKey}, nil
}

// NewSessionFromEnv creates a session from the OPENAI_API_KEY environment
// variable. A missing key is a terminal failure for the whole run.
func NewSessionFromEnv() (*Session, error) {
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is required", APIKeyEnv)
	}
	return &Session{apiKey: apiKey}, nil
}

// APIKey returns the session credential.
func (s *Session) APIKey() string {
	return s.apiKey
}

// Config holds client configuration.
type Config struct {
	Model     string `json:"model" yaml:"model"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	Encoding  string `json:"encoding" yaml:"encoding"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	Gas       int    `json:"gas" yaml:"gas"`
	Parallel  bool   `json:"parallel" yaml:"parallel"`
	Trace     bool   `json:"trace" yaml:"trace"`
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:     "text-embedding-3-small",
		BaseURL:   "https://api.openai.com/v1",
		Encoding:  "cl100k_base",
		BatchSize: 100,
		Gas:       3,
	}
}

// ConfigFromEnv builds a configuration from EMBEDKIT_* environment
// variables, falling back to defaults for anything unset.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Model = getEnv("EMBEDKIT_MODEL", cfg.Model)
	cfg.BaseURL = getEnv("EMBEDKIT_BASE_URL", cfg.BaseURL)
	cfg.Encoding = getEnv("EMBEDKIT_ENCODING", cfg.Encoding)
	cfg.BatchSize = getEnvInt("EMBEDKIT_BATCH_SIZE", cfg.BatchSize)
	cfg.Gas = getEnvInt("EMBEDKIT_GAS", cfg.Gas)
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
