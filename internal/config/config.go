// ABOUTME: Centralized configuration for the Doccy service
// ABOUTME: Loads from environment variables (and .env) with validation and defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// LLM providers
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// Blob store backends
const (
	BackendAzure  = "azure"
	BackendCharm  = "charm"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrConfiguration marks fatal startup configuration problems
var ErrConfiguration = errors.New("configuration error")

// Error lists every problem found while validating configuration
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, strings.Join(e.Problems, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrConfiguration
}

// Config holds all configuration for Doccy
type Config struct {
	// HTTP settings
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// LLM settings
	LLMProvider         string
	AzureEndpoint       string
	AzureAPIKey         string
	AzureDeployment     string
	AzureAPIVersion     string
	OpenAIKey           string
	OpenAIModel         string
	OpenAIBaseURL       string
	Temperature         float32
	CreativeTemperature float32
	LLMTimeout          time.Duration
	MaxRetries          int
	RetryDelay          time.Duration
	RateLimit           float64

	// Blob store settings
	StoreBackend            string
	StorageConnectionString string
	StoreTimeout            time.Duration
	StoreMaxRetries         int
	Container               string
	SQLitePath              string
	CharmHost               string
	CharmDBName             string
	CharmAutoSync           bool

	// Orchestration settings
	MaxTurns       int
	WorkerMaxSteps int
	PromptsDir     string

	LogLevel slog.Level
}

// Load reads configuration from a .env file (if any) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:        getEnv("DOCCY_HTTP_ADDR", ":8000"),
		ShutdownTimeout: getEnvDuration("DOCCY_SHUTDOWN_TIMEOUT", 10*time.Second),

		LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", ProviderAzure)),
		AzureEndpoint:       os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureAPIKey:         os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureDeployment:     os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"),
		AzureAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2024-08-01-preview"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		Temperature:         getEnvFloat32("LLM_TEMPERATURE", 0.3),
		CreativeTemperature: getEnvFloat32("LLM_CREATIVE_TEMPERATURE", 0.7),
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		MaxRetries:          getEnvInt("LLM_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("LLM_RETRY_DELAY", 2*time.Second),
		RateLimit:           getEnvFloat("LLM_RATE_LIMIT", 0),

		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", BackendAzure)),
		StorageConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
		StoreTimeout:            getEnvDuration("STORE_TIMEOUT", 30*time.Second),
		StoreMaxRetries:         getEnvInt("STORE_MAX_RETRIES", 2),
		Container:               getEnv("DOCCY_CONTAINER", "doccy"),
		SQLitePath:              getEnv("DOCCY_SQLITE_PATH", DefaultSQLitePath()),
		CharmHost:               getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:             getEnv("CHARM_DB", "doccy"),
		CharmAutoSync:           getEnvBool("CHARM_AUTO_SYNC", true),

		MaxTurns:       getEnvInt("DOCCY_MAX_TURNS", 8),
		WorkerMaxSteps: getEnvInt("DOCCY_WORKER_MAX_STEPS", 6),
		PromptsDir:     os.Getenv("DOCCY_PROMPTS_DIR"),

		LogLevel: getEnvLevel("DOCCY_LOG_LEVEL", slog.LevelInfo),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and that every value the selected provider and
// backend need is present. All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string
	missing := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	switch c.LLMProvider {
	case ProviderAzure:
		missing("AZURE_OPENAI_ENDPOINT", c.AzureEndpoint)
		missing("AZURE_OPENAI_API_KEY", c.AzureAPIKey)
		missing("AZURE_OPENAI_DEPLOYMENT_NAME", c.AzureDeployment)
	case ProviderOpenAI:
		missing("OPENAI_API_KEY", c.OpenAIKey)
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER must be azure or openai, got %q", c.LLMProvider))
	}

	switch c.StoreBackend {
	case BackendAzure:
		missing("AZURE_STORAGE_CONNECTION_STRING", c.StorageConnectionString)
	case BackendSQLite:
		missing("DOCCY_SQLITE_PATH", c.SQLitePath)
	case BackendCharm, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be azure, charm, sqlite or memory, got %q", c.StoreBackend))
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("LLM_TEMPERATURE must be 0-2, got %v", c.Temperature))
	}
	if c.CreativeTemperature < 0 || c.CreativeTemperature > 2 {
		problems = append(problems, fmt.Sprintf("LLM_CREATIVE_TEMPERATURE must be 0-2, got %v", c.CreativeTemperature))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		problems = append(problems, fmt.Sprintf("LLM_MAX_RETRIES must be 0-10, got %d", c.MaxRetries))
	}
	if c.StoreMaxRetries < 0 || c.StoreMaxRetries > 10 {
		problems = append(problems, fmt.Sprintf("STORE_MAX_RETRIES must be 0-10, got %d", c.StoreMaxRetries))
	}
	if c.LLMTimeout <= 0 {
		problems = append(problems, "LLM_TIMEOUT must be > 0")
	}
	if c.StoreTimeout <= 0 {
		problems = append(problems, "STORE_TIMEOUT must be > 0")
	}
	if c.MaxTurns < 1 {
		problems = append(problems, fmt.Sprintf("DOCCY_MAX_TURNS must be >= 1, got %d", c.MaxTurns))
	}
	if c.WorkerMaxSteps < 1 {
		problems = append(problems, fmt.Sprintf("DOCCY_WORKER_MAX_STEPS must be >= 1, got %d", c.WorkerMaxSteps))
	}
	if c.RateLimit < 0 {
		problems = append(problems, "LLM_RATE_LIMIT must be >= 0")
	}
	missing("DOCCY_CONTAINER", c.Container)

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

// DefaultSQLitePath returns the default blob database path under the XDG data home.
// XDG_DATA_HOME is re-read so tests can point it at a temp dir after xdg has initialized.
func DefaultSQLitePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "doccy", "blobs.db")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvFloat32(key string, defaultVal float32) float32 {
	return float32(getEnvFloat(key, float64(defaultVal)))
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
