package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var storeToolDef = mcp.NewTool("memory_store",
	mcp.WithDescription("Store a memory in a capsule. Creates the capsule if it does not exist."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Memory text (markdown allowed)")),
	mcp.WithString("title", mcp.Description("Optional title")),
	mcp.WithArray("tags", mcp.Description("Optional tags, order preserved"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithObject("metadata", mcp.Description("Optional string-keyed metadata")),
	mcp.WithBoolean("enable_embedding", mcp.Description("Compute an embedding for semantic search (default false)")),
	mcp.WithString("embedding_model", mcp.Description("Embedding model override for this call")),
)

var deleteToolDef = mcp.NewTool("capsule_delete",
	mcp.WithDescription("Delete a capsule and its backing file. Requires confirm=true."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to delete")),
)

var searchSemanticToolDef = mcp.NewTool("memory_search_semantic",
	mcp.WithDescription("Search a capsule by meaning using embeddings."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
)

var searchLexicalToolDef = mcp.NewTool("memory_search_lexical",
	mcp.WithDescription("Search a capsule by keywords using BM25 ranking."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
)

var searchAutoToolDef = mcp.NewTool("memory_search_auto",
	mcp.WithDescription("Search a capsule, automatically combining semantic and keyword ranking."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
)

var recentToolDef = mcp.NewTool("memory_recent",
	mcp.WithDescription("List the most recently stored memories in a capsule."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (default 10)")),
)

var listToolDef = mcp.NewTool("capsule_list",
	mcp.WithDescription("List all capsules in the storage root."),
)

var createToolDef = mcp.NewTool("capsule_create",
	mcp.WithDescription("Create an empty capsule."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Capsule name")),
)

var infoToolDef = mcp.NewTool("capsule_info",
	mcp.WithDescription("Report a capsule's resolved path, existence, and item counts as structured data."),
	mcp.WithString("capsule", mcp.Required(), mcp.Description("Capsule name")),
)

var providerConfigToolDef = mcp.NewTool("provider_config",
	mcp.WithDescription("Report the effective embedding provider configuration as structured data."),
)
