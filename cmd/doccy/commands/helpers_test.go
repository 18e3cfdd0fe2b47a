// ABOUTME: Shared test setup for CLI commands
// ABOUTME: Points configuration at the memory backend and injects a scripted gateway

package commands

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/blobstore"
	"github.com/harper/doccy/internal/config"
	"github.com/harper/doccy/internal/llm/llmtest"
)

// useFakeServices makes loadServices build on fake and one shared memory store
func useFakeServices(t *testing.T, fake *llmtest.Fake) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DOCCY_CONTAINER", "docs")
	t.Setenv("DOCCY_PROMPTS_DIR", "")

	store := blobstore.NewMemory()
	original := newServices
	newServices = func(cfg *config.Config, logger *slog.Logger) (*app.Services, error) {
		return app.Build(cfg, logger, fake, store)
	}
	t.Cleanup(func() { newServices = original })
}

// run executes the root command with args and returns combined output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return output.String(), err
}
