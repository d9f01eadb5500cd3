package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  default_provider: steer
  providers:
    steer:
      base_url: http://localhost:11434
      model: qwen2.5-7b
    claude:
      api_key: test-key
      model: claude-sonnet-4-5
extraction:
  layers: [12, 13, 14]
  pair_limit: 50
  vector_dir: out/vectors
evaluation:
  sample_size: 100
  max_tokens: 128
  timeout: 30s
storage:
  type: sqlite
  path: out/tomsteer.db
server:
  addr: ":9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LLM.DefaultProvider != "steer" {
		t.Errorf("DefaultProvider: got %q", cfg.LLM.DefaultProvider)
	}
	if p := cfg.LLM.Providers["steer"]; p.BaseURL != "http://localhost:11434" || p.Model != "qwen2.5-7b" {
		t.Errorf("steer provider: got %+v", p)
	}
	if got := cfg.Extraction.Layers; len(got) != 3 || got[0] != 12 || got[2] != 14 {
		t.Errorf("Layers: got %v", got)
	}
	if cfg.Extraction.PairLimit != 50 {
		t.Errorf("PairLimit: got %d", cfg.Extraction.PairLimit)
	}
	if cfg.Evaluation.SampleSize != 100 || cfg.Evaluation.MaxTokens != 128 {
		t.Errorf("Evaluation: got %+v", cfg.Evaluation)
	}
	if cfg.Evaluation.Timeout != 30*time.Second {
		t.Errorf("Timeout: got %v", cfg.Evaluation.Timeout)
	}
	if cfg.Storage.Path != "out/tomsteer.db" {
		t.Errorf("Storage.Path: got %q", cfg.Storage.Path)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr: got %q", cfg.Server.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfigFile(t, "llm: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaults(t *testing.T) {
	path := writeConfigFile(t, "llm: {}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.DefaultProvider != "steer" {
		t.Errorf("DefaultProvider: got %q", cfg.LLM.DefaultProvider)
	}
	if cfg.Extraction.PairLimit != 200 {
		t.Errorf("PairLimit default: got %d", cfg.Extraction.PairLimit)
	}
	if cfg.Extraction.VectorDir != "data/vectors" {
		t.Errorf("VectorDir default: got %q", cfg.Extraction.VectorDir)
	}
	if cfg.Evaluation.MaxTokens != 256 {
		t.Errorf("MaxTokens default: got %d", cfg.Evaluation.MaxTokens)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr default: got %q", cfg.Server.Addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("TOMSTEER_STEER_URL", "http://10.0.0.5:8000")

	cfg := Default()

	if got := cfg.LLM.Providers["claude"].APIKey; got != "env-anthropic" {
		t.Errorf("claude api key: got %q", got)
	}
	if got := cfg.LLM.Providers["openai"].APIKey; got != "env-openai" {
		t.Errorf("openai api key: got %q", got)
	}
	if got := cfg.LLM.Providers["steer"].BaseURL; got != "http://10.0.0.5:8000" {
		t.Errorf("steer base url: got %q", got)
	}
}

func TestLoadOrDefaultExplicitMissing(t *testing.T) {
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing path")
	}
}
