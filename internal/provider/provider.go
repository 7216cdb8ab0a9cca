// Package provider resolves which embedding provider and model apply to a
// request, from per-call overrides, environment configuration, and defaults.
package provider

import (
	"context"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/sorenblake/memcap/internal/config"
	"github.com/sorenblake/memcap/internal/engine"
)

const (
	// BaselineLocalModel is the default model when nothing is configured.
	BaselineLocalModel = "all-MiniLM-L6-v2"

	// OpenAISmallModel is substituted when an Ollama host is configured and
	// the default model was left at the baseline: the host is expected to
	// serve an OpenAI-compatible surface at this identifier.
	OpenAISmallModel = "text-embedding-3-small"

	// openAIDefaultBaseURL is used when an API key is set without a base URL.
	openAIDefaultBaseURL = "https://api.openai.com/v1"
)

// SupportedModels enumerates known model identifiers per provider class.
var SupportedModels = map[string][]string{
	"local":  {"all-MiniLM-L6-v2", "all-mpnet-base-v2"},
	"openai": {"text-embedding-3-small", "text-embedding-3-large", "text-embedding-ada-002"},
	"ollama": {"nomic-embed-text", "mxbai-embed-large", "all-minilm"},
}

// Snapshot is the introspectable provider configuration. The API key itself
// is never included, only its presence.
type Snapshot struct {
	DefaultModel     string              `json:"default_model"`
	EffectiveModel   string              `json:"effective_model"`
	OllamaHost       string              `json:"ollama_host,omitempty"`
	OpenAIBaseURL    string              `json:"openai_base_url,omitempty"`
	OpenAIKeyPresent bool                `json:"openai_key_present"`
	SupportedModels  map[string][]string `json:"supported_models"`
}

// Resolver computes the effective embedding model and builds the embedding
// client. Base URL derivation from the Ollama host happens once here, at
// construction, and never overwrites an explicit operator-provided value.
type Resolver struct {
	defaultModel string
	ollamaHost   string
	baseURL      string
	apiKey       string
}

// NewResolver creates a Resolver from the loaded configuration.
func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{
		defaultModel: strings.TrimSpace(cfg.EmbeddingModel),
		ollamaHost:   strings.TrimSpace(cfg.OllamaHost),
		baseURL:      strings.TrimSpace(cfg.OpenAIBaseURL),
		apiKey:       cfg.OpenAIAPIKey,
	}
	if r.baseURL == "" && r.ollamaHost != "" {
		r.baseURL = deriveBaseURL(r.ollamaHost)
	}
	return r
}

// deriveBaseURL appends /v1 to the Ollama host unless already present.
func deriveBaseURL(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasSuffix(host, "/v1") {
		return host
	}
	return host + "/v1"
}

// configuredDefault returns the configured default model, falling back to the
// baseline local default.
func (r *Resolver) configuredDefault() string {
	if r.defaultModel == "" {
		return BaselineLocalModel
	}
	return r.defaultModel
}

// EffectiveModel resolves the model for a store request. A non-empty override
// wins unconditionally. Otherwise, with an Ollama host configured and the
// default left at baseline, the OpenAI-compatible small model is substituted;
// an explicitly configured non-baseline default is returned unchanged.
func (r *Resolver) EffectiveModel(override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	if r.ollamaHost != "" && r.configuredDefault() == BaselineLocalModel {
		return OpenAISmallModel
	}
	return r.configuredDefault()
}

// ConfigSnapshot reports the current provider configuration.
func (r *Resolver) ConfigSnapshot() Snapshot {
	return Snapshot{
		DefaultModel:     r.configuredDefault(),
		EffectiveModel:   r.EffectiveModel(""),
		OllamaHost:       r.ollamaHost,
		OpenAIBaseURL:    r.baseURL,
		OpenAIKeyPresent: r.apiKey != "",
		SupportedModels:  SupportedModels,
	}
}

// Embedder returns an embedding client for the configured endpoint, or nil
// when neither an Ollama host nor an API key is available.
func (r *Resolver) Embedder() engine.Embedder {
	base := r.baseURL
	if base == "" {
		if r.apiKey == "" {
			return nil
		}
		base = openAIDefaultBaseURL
	}
	apiKey := r.apiKey

	return func(ctx context.Context, text, model string) ([]float32, error) {
		fn := chromem.NewEmbeddingFuncOpenAICompat(base, apiKey, model, nil)
		return fn(ctx, text)
	}
}
