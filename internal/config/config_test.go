package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := filepath.Join(tmpDir, "capsules")
	if cfg.StorageRoot != want {
		t.Errorf("StorageRoot = %q, want %q", cfg.StorageRoot, want)
	}
	if cfg.EmbeddingModel != "" {
		t.Errorf("EmbeddingModel = %q, want empty", cfg.EmbeddingModel)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{
		"storage_root": "/var/lib/memcap",
		"embedding_model": "text-embedding-3-large",
		"disabled_tools": ["capsule_delete"]
	}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(configJSON), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.StorageRoot != "/var/lib/memcap" {
		t.Errorf("StorageRoot = %q", cfg.StorageRoot)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("EmbeddingModel = %q", cfg.EmbeddingModel)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "capsule_delete" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load should fail on invalid JSON")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv(EnvStorageRoot, "/env/root")
	t.Setenv(EnvOllamaHost, "http://localhost:11434")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	cfg := &Config{StorageRoot: "/file/root"}
	cfg.ApplyEnv()

	if cfg.StorageRoot != "/env/root" {
		t.Errorf("StorageRoot = %q, env should win over file", cfg.StorageRoot)
	}
	if cfg.OllamaHost != "http://localhost:11434" {
		t.Errorf("OllamaHost = %q", cfg.OllamaHost)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
}

func TestApplyEnv_EmptyIgnored(t *testing.T) {
	t.Setenv(EnvEmbeddingModel, "  ")

	cfg := &Config{EmbeddingModel: "nomic-embed-text"}
	cfg.ApplyEnv()

	if cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("EmbeddingModel = %q, blank env value should be ignored", cfg.EmbeddingModel)
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		StorageRoot:   "/base",
		OllamaHost:    "http://base:11434",
		DisabledTools: []string{"a"},
	}
	overlay := &Config{
		StorageRoot:   "/overlay",
		DisabledTools: []string{"a", "b"},
	}

	got := Merge(base, overlay)
	if got.StorageRoot != "/overlay" {
		t.Errorf("StorageRoot = %q, overlay should win", got.StorageRoot)
	}
	if got.OllamaHost != "http://base:11434" {
		t.Errorf("OllamaHost = %q, base should survive empty overlay", got.OllamaHost)
	}
	if len(got.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want deduplicated merge", got.DisabledTools)
	}
}
