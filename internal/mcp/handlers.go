package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/sorenblake/memcap/internal/capsule"
	"github.com/sorenblake/memcap/internal/engine"
	"github.com/sorenblake/memcap/internal/errors"
	"github.com/sorenblake/memcap/internal/provider"
	"github.com/sorenblake/memcap/internal/results"
)

// Handlers holds dependencies for MCP tool handlers. It is the fault barrier:
// every engine-level failure is translated into an "Error: ..." result and
// never propagates past a handler.
type Handlers struct {
	cache    *capsule.Cache
	resolver *capsule.Resolver
	provider *provider.Resolver
	log      zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cache *capsule.Cache, resolver *capsule.Resolver, prov *provider.Resolver, log zerolog.Logger) *Handlers {
	return &Handlers{cache: cache, resolver: resolver, provider: prov, log: log}
}

// Request types for each tool

// StoreRequest represents the arguments for memory_store.
type StoreRequest struct {
	Capsule         string         `json:"capsule"`
	Text            string         `json:"text"`
	Title           string         `json:"title,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	EnableEmbedding bool           `json:"enable_embedding,omitempty"`
	EmbeddingModel  string         `json:"embedding_model,omitempty"`
}

// DeleteRequest represents the arguments for capsule_delete.
type DeleteRequest struct {
	Capsule string `json:"capsule"`
	Confirm bool   `json:"confirm"`
}

// SearchRequest represents the arguments for the search tools.
type SearchRequest struct {
	Capsule string `json:"capsule"`
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
}

// RecentRequest represents the arguments for memory_recent.
type RecentRequest struct {
	Capsule string `json:"capsule"`
	Limit   int    `json:"limit,omitempty"`
}

// CreateRequest represents the arguments for capsule_create.
type CreateRequest struct {
	Name string `json:"name"`
}

// InfoRequest represents the arguments for capsule_info.
type InfoRequest struct {
	Capsule string `json:"capsule"`
}

// InfoResponse is the structured capsule_info payload.
type InfoResponse struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Exists      bool   `json:"exists"`
	StorageRoot string `json:"storage_root"`
	Items       *int   `json:"items,omitempty"`
	Embedded    *int   `json:"embedded,omitempty"`
}

// Handler implementations

// HandleStore handles the memory_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Capsule) == "" {
		return errorResult(errors.NewInvalidRequest("capsule is required")), nil
	}
	if strings.TrimSpace(input.Text) == "" {
		return errorResult(errors.NewInvalidRequest("text is required")), nil
	}

	handle, err := h.cache.GetOrOpen(input.Capsule, true)
	if err != nil {
		return errorResult(err), nil
	}

	item := engine.Item{
		Title:    input.Title,
		Text:     input.Text,
		Tags:     input.Tags,
		Metadata: input.Metadata,
	}
	model := ""
	if input.EnableEmbedding {
		model = h.provider.EffectiveModel(input.EmbeddingModel)
		item.Embed = true
		item.EmbeddingModel = model
	}

	id, err := handle.Put(ctx, item)
	if err != nil {
		return errorResult(errors.NewCapsuleAccess(input.Capsule, err)), nil
	}

	h.log.Debug().Str("capsule", input.Capsule).Str("id", id).Bool("embedded", item.Embed).Msg("stored memory")

	text := fmt.Sprintf("Stored memory %s in capsule %q.", id, input.Capsule)
	if item.Embed {
		text += fmt.Sprintf(" Embedded with model %s.", model)
	}
	return mcp.NewToolResultText(text), nil
}

// HandleDelete handles the capsule_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Capsule) == "" {
		return errorResult(errors.NewInvalidRequest("capsule is required")), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewConfirmationRequired("capsule_delete")), nil
	}

	existed, err := h.cache.Delete(input.Capsule)
	if err != nil {
		return errorResult(err), nil
	}
	if !existed {
		return errorResult(errors.NewNotFound(input.Capsule)), nil
	}

	h.log.Info().Str("capsule", input.Capsule).Msg("deleted capsule")
	return mcp.NewToolResultText(fmt.Sprintf("Deleted capsule %q.", input.Capsule)), nil
}

// HandleSearchSemantic handles the memory_search_semantic tool call.
func (h *Handlers) HandleSearchSemantic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.handleSearch(ctx, req, engine.ModeSemantic)
}

// HandleSearchLexical handles the memory_search_lexical tool call.
func (h *Handlers) HandleSearchLexical(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.handleSearch(ctx, req, engine.ModeLexical)
}

// HandleSearchAuto handles the memory_search_auto tool call.
func (h *Handlers) HandleSearchAuto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.handleSearch(ctx, req, engine.ModeAuto)
}

// handleSearch is the shared search path. Searches never create capsules.
func (h *Handlers) handleSearch(ctx context.Context, req mcp.CallToolRequest, mode engine.Mode) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Capsule) == "" {
		return errorResult(errors.NewInvalidRequest("capsule is required")), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult(errors.NewInvalidRequest("query is required")), nil
	}

	handle, err := h.cache.GetOrOpen(input.Capsule, false)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := handle.Find(ctx, input.Query, engine.FindOptions{Mode: mode, Limit: input.Limit})
	if err != nil {
		return errorResult(errors.NewCapsuleAccess(input.Capsule, err)), nil
	}

	hits := results.Normalize(results.FromResult(res))
	return mcp.NewToolResultText(results.RenderAll(hits)), nil
}

// HandleRecent handles the memory_recent tool call. Capsules whose handle
// supports chronological listing use it; others fall back to an unfiltered
// find with the same limit.
func (h *Handlers) HandleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Capsule) == "" {
		return errorResult(errors.NewInvalidRequest("capsule is required")), nil
	}

	handle, err := h.cache.GetOrOpen(input.Capsule, false)
	if err != nil {
		return errorResult(err), nil
	}

	var payload results.Payload
	if lister, ok := handle.(engine.ChronologicalLister); ok {
		hits, err := lister.Timeline(ctx, engine.TimelineOptions{Limit: input.Limit})
		if err != nil {
			return errorResult(errors.NewCapsuleAccess(input.Capsule, err)), nil
		}
		payload = results.FromHits(hits)
	} else {
		res, err := handle.Find(ctx, "", engine.FindOptions{Mode: engine.ModeAuto, Limit: input.Limit})
		if err != nil {
			return errorResult(errors.NewCapsuleAccess(input.Capsule, err)), nil
		}
		payload = results.FromResult(res)
	}

	return mcp.NewToolResultText(results.RenderAll(results.Normalize(payload))), nil
}

// HandleList handles the capsule_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.resolver.List()
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No capsules yet. Store a memory or use capsule_create to create one."), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

// HandleCreate handles the capsule_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Name) == "" {
		return errorResult(errors.NewInvalidRequest("name is required")), nil
	}

	path := h.resolver.Resolve(input.Name)
	if h.resolver.Exists(input.Name) {
		return mcp.NewToolResultText(fmt.Sprintf("Capsule %q already exists at %s.", input.Name, path)), nil
	}

	if _, err := h.cache.GetOrOpen(input.Name, true); err != nil {
		return errorResult(err), nil
	}

	h.log.Info().Str("capsule", input.Name).Str("path", path).Msg("created capsule")
	return mcp.NewToolResultText(fmt.Sprintf("Created capsule %q at %s.", input.Name, path)), nil
}

// HandleInfo handles the capsule_info tool call. The response is structured
// data, not free text.
func (h *Handlers) HandleInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InfoRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Capsule) == "" {
		return errorResult(errors.NewInvalidRequest("capsule is required")), nil
	}

	info := InfoResponse{
		Name:        input.Capsule,
		Path:        h.resolver.Resolve(input.Capsule),
		Exists:      h.resolver.Exists(input.Capsule),
		StorageRoot: h.resolver.Root(),
	}

	if info.Exists {
		handle, err := h.cache.GetOrOpen(input.Capsule, false)
		if err != nil {
			return errorResult(err), nil
		}
		stats, err := handle.Stat()
		if err != nil {
			return errorResult(errors.NewCapsuleAccess(input.Capsule, err)), nil
		}
		info.Items = &stats.Items
		info.Embedded = &stats.Embedded
	}

	return mcp.NewToolResultJSON(info)
}

// HandleProviderConfig handles the provider_config tool call.
func (h *Handlers) HandleProviderConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(h.provider.ConfigSnapshot())
}

// errorResult converts any error into the uniform "Error: <message>" envelope.
func errorResult(err error) *mcp.CallToolResult {
	msg := err.Error()
	if e, ok := err.(*errors.Error); ok {
		msg = e.Message
	}
	return mcp.NewToolResultError("Error: " + msg)
}
