// ABOUTME: End-to-end tests for the domain commands against fake services
// ABOUTME: Covers query, chains, organize, enrich, store and preprocess

package commands

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/doccy/internal/llm/llmtest"
	"github.com/harper/doccy/internal/orchestrator"
)

func TestQueryCmd(t *testing.T) {
	useFakeServices(t, llmtest.New(
		llmtest.Text(`{"next":"retrievalAgent"}`),
		llmtest.Text("Use the portal."),
		llmtest.Text(`{"next":"FINISH"}`),
	))

	out, err := run(t, "query", "--trace", "how", "do", "I", "rotate", "keys")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "Use the portal.") {
		t.Errorf("answer should be printed last, got:\n%s", out)
	}
	if !strings.Contains(out, "[user] how do I rotate keys") {
		t.Errorf("trace should include the query, got:\n%s", out)
	}
	if !strings.Contains(out, "[retrievalAgent] Use the portal.") {
		t.Errorf("trace should name the producing agent, got:\n%s", out)
	}
}

func TestQueryCmd_MaxTurns(t *testing.T) {
	useFakeServices(t, llmtest.New(
		llmtest.Text(`{"next":"retrievalAgent"}`),
		llmtest.Text("partial"),
	))

	_, err := run(t, "query", "--max-turns", "1", "q")
	if !errors.Is(err, orchestrator.ErrRoutingLoopExceeded) {
		t.Errorf("err = %v, want ErrRoutingLoopExceeded", err)
	}

	_, err = run(t, "query", "--max-turns", "0", "q")
	if err == nil || !strings.Contains(err.Error(), "max-turns") {
		t.Errorf("err = %v, want max-turns validation error", err)
	}
}

func TestGenerateAndResearchCmds(t *testing.T) {
	fake := llmtest.New(llmtest.Text("generated"), llmtest.Text("researched"))
	useFakeServices(t, fake)

	out, err := run(t, "generate", "what is go")
	if err != nil || strings.TrimSpace(out) != "generated" {
		t.Errorf("generate = %q, %v", out, err)
	}
	out, err = run(t, "research", "channels")
	if err != nil || strings.TrimSpace(out) != "researched" {
		t.Errorf("research = %q, %v", out, err)
	}

	reqs := fake.Requests()
	if len(reqs) != 2 || reqs[0].Temperature >= reqs[1].Temperature {
		t.Errorf("research should run hotter than generate, got %+v", reqs)
	}
}

func TestIntentCmd(t *testing.T) {
	useFakeServices(t, llmtest.New(llmtest.Text("Convert the PDF to text, then list its findings as bullets.")))

	out, err := run(t, "intent", "pdf to bullets")
	if err != nil {
		t.Fatalf("intent: %v", err)
	}
	if !strings.Contains(out, "list its findings as bullets") {
		t.Errorf("intent output = %q", out)
	}
}

func TestOrganizeCmd(t *testing.T) {
	useFakeServices(t, llmtest.New(llmtest.Text(`["azure","keys"]`), llmtest.Text("azure")))

	out, err := run(t, "organize", "--tags", "ops", "rotating azure keys")
	if err != nil {
		t.Fatalf("organize failed: %v", err)
	}

	var got struct {
		Tags     []string `json:"tags"`
		Category string   `json:"category"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if strings.Join(got.Tags, ",") != "ops,azure,keys" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.Category != "azure" {
		t.Errorf("category = %q", got.Category)
	}
}

func TestEnrichCmd(t *testing.T) {
	fake := llmtest.New(llmtest.Text("# Merged"))
	useFakeServices(t, fake)

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.md")
	newPath := filepath.Join(dir, "new.md")
	if err := os.WriteFile(oldPath, []byte("old body"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newPath, []byte("new body"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "enrich", "--meta", "runbook", "--old", oldPath, "--new", newPath)
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if strings.TrimSpace(out) != "# Merged" {
		t.Errorf("enrich output = %q", out)
	}
	prompt := fake.LastPrompt()
	if !strings.Contains(prompt, "old body") || !strings.Contains(prompt, "new body") {
		t.Errorf("merge prompt should carry both documents:\n%s", prompt)
	}
}

func TestEnrichCmd_NoContent(t *testing.T) {
	useFakeServices(t, llmtest.New())

	_, err := run(t, "enrich", "--meta", "runbook")
	if err == nil {
		t.Error("enrich without old or new content should fail")
	}
}

func TestStoreCmds(t *testing.T) {
	useFakeServices(t, llmtest.New())

	out, err := run(t, "store", "put", "doc-1", `{"title":"Key rotation"}`)
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if !strings.Contains(out, "Data stored with ID: doc-1") {
		t.Errorf("put output = %q", out)
	}

	out, err = run(t, "store", "get", "doc-1")
	if err != nil || !strings.Contains(out, `"title": "Key rotation"`) {
		t.Errorf("get = %q, %v", out, err)
	}

	out, err = run(t, "store", "list", "--prefix", "doc")
	if err != nil || strings.TrimSpace(out) != "doc-1" {
		t.Errorf("list = %q, %v", out, err)
	}

	out, err = run(t, "store", "list", "--container", "other")
	if err != nil || !strings.Contains(out, "No documents found") {
		t.Errorf("list other container = %q, %v", out, err)
	}

	if _, err = run(t, "store", "delete", "doc-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err = run(t, "store", "get", "doc-1")
	if err == nil || !strings.Contains(err.Error(), "failed to retrieve data") {
		t.Errorf("get after delete err = %v", err)
	}

	_, err = run(t, "store", "put", "doc-2", "[1,2]")
	if err == nil {
		t.Error("put with a non-object should fail")
	}
}

func TestPreprocessCmd(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "notes.txt")
	bad := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(good, []byte("plain notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--quiet", "preprocess", good, bad)
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	if !strings.Contains(out, "notes.txt: plain notes") {
		t.Errorf("missing text result:\n%s", out)
	}
	if !strings.Contains(out, "broken.pdf: (no text)") {
		t.Errorf("failed file should be listed empty:\n%s", out)
	}

	out, err = run(t, "--quiet", "preprocess", "--json", good)
	if err != nil {
		t.Fatalf("preprocess --json failed: %v", err)
	}
	var results map[string]string
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if results[good] != "plain notes" {
		t.Errorf("results = %v", results)
	}
}
