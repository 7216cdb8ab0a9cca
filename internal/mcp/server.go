package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sorenblake/memcap/internal/config"
	"github.com/sorenblake/memcap/internal/errors"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"memory_store": {
		def:     storeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStore },
	},
	"capsule_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"memory_search_semantic": {
		def:     searchSemanticToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchSemantic },
	},
	"memory_search_lexical": {
		def:     searchLexicalToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchLexical },
	},
	"memory_search_auto": {
		def:     searchAutoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearchAuto },
	},
	"memory_recent": {
		def:     recentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecent },
	},
	"capsule_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"capsule_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"capsule_info": {
		def:     infoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInfo },
	},
	"provider_config": {
		def:     providerConfigToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProviderConfig },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Dispatch maps an operation name to its handler and invokes it. Unknown
// operation names get a well-formed error envelope rather than failing the
// call.
func (h *Handlers) Dispatch(ctx context.Context, operation string, args map[string]any) (*mcp.CallToolResult, error) {
	entry, ok := toolRegistry[operation]
	if !ok {
		return errorResult(errors.NewUnknownOperation(operation)), nil
	}
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      operation,
			Arguments: args,
		},
	}
	return entry.handler(h)(ctx, req)
}

// NewServer creates an MCP server with memcap tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(h *Handlers, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"memcap",
		version,
		server.WithToolCapabilities(true),
	)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *Handlers, cfg *config.Config, version string) error {
	s := NewServer(h, cfg, version)
	return server.ServeStdio(s)
}
