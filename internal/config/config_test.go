// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing, defaults, and fail-fast validation
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func setAzureEnv() {
	os.Clearenv()
	os.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	os.Setenv("AZURE_OPENAI_API_KEY", "test-key")
	os.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")
	os.Setenv("AZURE_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")
}

func TestFromEnv_Defaults(t *testing.T) {
	setAzureEnv()

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %s, want :8000", cfg.HTTPAddr)
	}
	if cfg.LLMProvider != ProviderAzure {
		t.Errorf("LLMProvider = %s, want azure", cfg.LLMProvider)
	}
	if cfg.AzureAPIVersion != "2024-08-01-preview" {
		t.Errorf("AzureAPIVersion = %s, want 2024-08-01-preview", cfg.AzureAPIVersion)
	}
	if cfg.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", cfg.Temperature)
	}
	if cfg.CreativeTemperature != 0.7 {
		t.Errorf("CreativeTemperature = %v, want 0.7", cfg.CreativeTemperature)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLMTimeout = %v, want 60s", cfg.LLMTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.StoreBackend != BackendAzure {
		t.Errorf("StoreBackend = %s, want azure", cfg.StoreBackend)
	}
	if cfg.Container != "doccy" {
		t.Errorf("Container = %s, want doccy", cfg.Container)
	}
	if cfg.MaxTurns != 8 {
		t.Errorf("MaxTurns = %d, want 8", cfg.MaxTurns)
	}
	if cfg.WorkerMaxSteps != 6 {
		t.Errorf("WorkerMaxSteps = %d, want 6", cfg.WorkerMaxSteps)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if !cfg.CharmAutoSync {
		t.Error("CharmAutoSync = false, want true")
	}
}

func TestFromEnv_CustomValues(t *testing.T) {
	os.Clearenv()
	os.Setenv("LLM_PROVIDER", "OpenAI")
	os.Setenv("OPENAI_API_KEY", "sk-test")
	os.Setenv("OPENAI_MODEL", "gpt-4o")
	os.Setenv("LLM_TEMPERATURE", "0.1")
	os.Setenv("LLM_TIMEOUT", "15s")
	os.Setenv("STORE_BACKEND", "memory")
	os.Setenv("DOCCY_MAX_TURNS", "3")
	os.Setenv("DOCCY_LOG_LEVEL", "debug")
	os.Setenv("CHARM_AUTO_SYNC", "false")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %s, want openai", cfg.LLMProvider)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %s, want gpt-4o", cfg.OpenAIModel)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.Temperature)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Errorf("LLMTimeout = %v, want 15s", cfg.LLMTimeout)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %s, want memory", cfg.StoreBackend)
	}
	if cfg.MaxTurns != 3 {
		t.Errorf("MaxTurns = %d, want 3", cfg.MaxTurns)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.CharmAutoSync {
		t.Error("CharmAutoSync = true, want false")
	}
}

func TestFromEnv_MissingAzureCredentials(t *testing.T) {
	os.Clearenv()

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv() should fail without credentials")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error %v should match ErrConfiguration", err)
	}

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error %T should be *config.Error", err)
	}
	for _, want := range []string{
		"AZURE_OPENAI_ENDPOINT",
		"AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_DEPLOYMENT_NAME",
		"AZURE_STORAGE_CONNECTION_STRING",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestValidate_Ranges(t *testing.T) {
	base := func() *Config {
		setAzureEnv()
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv() failed: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }},
		{"zero turns", func(c *Config) { c.MaxTurns = 0 }},
		{"zero worker steps", func(c *Config) { c.WorkerMaxSteps = 0 }},
		{"zero llm timeout", func(c *Config) { c.LLMTimeout = 0 }},
		{"unknown provider", func(c *Config) { c.LLMProvider = "bedrock" }},
		{"unknown backend", func(c *Config) { c.StoreBackend = "s3" }},
		{"empty container", func(c *Config) { c.Container = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal bool
		want       bool
	}{
		{"empty uses default true", "", true, true},
		{"empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_BOOL", tt.value)
			}
			got := getEnvBool("TEST_BOOL", tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvLevel_InvalidFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("TEST_LEVEL", "loud")
	if got := getEnvLevel("TEST_LEVEL", slog.LevelWarn); got != slog.LevelWarn {
		t.Errorf("getEnvLevel() = %v, want WARN", got)
	}
}

func TestDefaultSQLitePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	if got, want := DefaultSQLitePath(), filepath.Join(dir, "doccy", "blobs.db"); got != want {
		t.Errorf("DefaultSQLitePath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_DATA_HOME", "")
	if got, want := DefaultSQLitePath(), filepath.Join(xdg.DataHome, "doccy", "blobs.db"); got != want {
		t.Errorf("DefaultSQLitePath() without override = %q, want %q", got, want)
	}
}
