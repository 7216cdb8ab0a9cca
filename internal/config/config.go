package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables recognized at startup. Env values override config.json.
const (
	EnvStorageRoot    = "MEMCAP_STORAGE_ROOT"
	EnvEmbeddingModel = "MEMCAP_EMBEDDING_MODEL"
	EnvOllamaHost     = "OLLAMA_HOST"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
)

// Config holds application configuration.
type Config struct {
	// StorageRoot is the directory holding capsule files.
	// Defaults to <baseDir>/capsules when empty.
	StorageRoot string `json:"storage_root,omitempty"`

	// EmbeddingModel is the default embedding model identifier.
	// Empty means the provider baseline applies.
	EmbeddingModel string `json:"embedding_model,omitempty"`

	// OllamaHost is the URL of a local Ollama instance. When set, embedding
	// requests can be routed to its OpenAI-compatible /v1 surface.
	OllamaHost string `json:"ollama_host,omitempty"`

	// OpenAIAPIKey is the cloud API key. Loaded from the environment only,
	// never from config.json, and never written back out.
	OpenAIAPIKey string `json:"-"`

	// OpenAIBaseURL overrides the cloud API base URL. When empty and
	// OllamaHost is set, it is derived from the host at startup.
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads baseDir/config.json, applies defaults, then environment
// overrides. A missing config file is not an error.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg = Merge(DefaultConfig(), cfg)
	cfg.ApplyEnv()
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = filepath.Join(baseDir, "capsules")
	}
	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns a zero config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays recognized environment variables onto the config.
// Empty environment values are ignored.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvStorageRoot)); v != "" {
		c.StorageRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEmbeddingModel)); v != "" {
		c.EmbeddingModel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOllamaHost)); v != "" {
		c.OllamaHost = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOpenAIBaseURL)); v != "" {
		c.OpenAIBaseURL = v
	}
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.StorageRoot = overlay.StorageRoot
	if result.StorageRoot == "" {
		result.StorageRoot = base.StorageRoot
	}

	result.EmbeddingModel = overlay.EmbeddingModel
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = base.EmbeddingModel
	}

	result.OllamaHost = overlay.OllamaHost
	if result.OllamaHost == "" {
		result.OllamaHost = base.OllamaHost
	}

	result.OpenAIBaseURL = overlay.OpenAIBaseURL
	if result.OpenAIBaseURL == "" {
		result.OpenAIBaseURL = base.OpenAIBaseURL
	}

	result.OpenAIAPIKey = overlay.OpenAIAPIKey
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = base.OpenAIAPIKey
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
