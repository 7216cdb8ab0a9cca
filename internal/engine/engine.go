// Package engine implements the capsule storage engine: one SQLite file per
// capsule holding memory items, an FTS5 index for lexical search, and
// embedding vectors for semantic search.
package engine

import "context"

// Mode selects the search strategy for Find.
type Mode string

const (
	ModeSemantic Mode = "semantic" // vector similarity only
	ModeLexical  Mode = "lexical"  // BM25 keyword ranking only
	ModeAuto     Mode = "auto"     // rank fusion when embeddings exist, else lexical
)

// DefaultFindLimit applies when FindOptions.Limit is not set.
const DefaultFindLimit = 10

// Item is one memory to store in a capsule.
type Item struct {
	Title          string
	Text           string
	Tags           []string
	Metadata       map[string]any
	Embed          bool
	EmbeddingModel string
}

// Hit is one search result. Snippet, Text, and Preview feed the display
// layer's content precedence; Score is nil when the mode produces no
// meaningful relevance value.
type Hit struct {
	ID       string         `json:"id,omitempty"`
	Title    string         `json:"title,omitempty"`
	Snippet  string         `json:"snippet,omitempty"`
	Text     string         `json:"text,omitempty"`
	Preview  string         `json:"preview,omitempty"`
	Score    *float64       `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FindOptions configures a Find call.
type FindOptions struct {
	Mode  Mode
	Limit int
}

// FindResult wraps the hits of a Find call.
type FindResult struct {
	Hits  []Hit  `json:"hits"`
	Total int    `json:"total"`
	Mode  string `json:"mode"`
}

// TimelineOptions configures a Timeline call.
type TimelineOptions struct {
	Limit int
}

// Stats describes a capsule's contents.
type Stats struct {
	Items    int `json:"items"`
	Embedded int `json:"embedded"`
}

// Embedder computes an embedding vector for text using the named model.
type Embedder func(ctx context.Context, text, model string) ([]float32, error)

// Handle is an open capsule. The concrete type may additionally implement
// ChronologicalLister.
type Handle interface {
	Put(ctx context.Context, item Item) (string, error)
	Find(ctx context.Context, query string, opts FindOptions) (*FindResult, error)
	Stat() (Stats, error)
	Close() error
}

// ChronologicalLister is the optional capability of listing items newest
// first. Callers must capability-check rather than assume it.
type ChronologicalLister interface {
	Timeline(ctx context.Context, opts TimelineOptions) ([]Hit, error)
}

// Options configures an opened capsule.
type Options struct {
	// Embedder is used for embedding on store and for query embedding in
	// semantic search. May be nil; embedding-dependent paths then degrade.
	Embedder Embedder
}
