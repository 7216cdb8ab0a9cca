package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// rrfK is the reciprocal rank fusion constant used by auto mode.
const rrfK = 60

// Find searches the capsule. Mode semantics:
//   - lexical: FTS5 BM25 ranking, title matches weighted 5x
//   - semantic: cosine similarity over stored embeddings
//   - auto: reciprocal rank fusion of both when the capsule holds embeddings
//     and an embedder is configured, lexical otherwise
//
// An empty query with mode lexical or auto returns the newest items instead
// of an FTS match, so Find can serve as a timeline fallback.
func (c *Capsule) Find(ctx context.Context, query string, opts FindOptions) (*FindResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAuto
	}

	query = strings.TrimSpace(query)
	if query == "" && mode != ModeSemantic {
		hits, err := c.Timeline(ctx, TimelineOptions{Limit: limit})
		if err != nil {
			return nil, err
		}
		return &FindResult{Hits: hits, Total: len(hits), Mode: string(mode)}, nil
	}

	var hits []Hit
	var err error
	switch mode {
	case ModeLexical:
		hits, err = c.findLexical(ctx, query, limit)
	case ModeSemantic:
		hits, err = c.findSemantic(ctx, query, limit)
	case ModeAuto:
		hits, err = c.findAuto(ctx, query, limit)
	default:
		return nil, fmt.Errorf("unknown search mode: %s", mode)
	}
	if err != nil {
		return nil, err
	}

	return &FindResult{Hits: hits, Total: len(hits), Mode: string(mode)}, nil
}

// findLexical runs a BM25-ranked full-text search.
func (c *Capsule) findLexical(ctx context.Context, query string, limit int) ([]Hit, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id, m.title, m.content, m.metadata_json,
		       bm25(memories_fts, 5.0, 1.0) AS rank,
		       snippet(memories_fts, 1, '', '', '…', 16) AS snip
		FROM memories_fts
		JOIN memories m ON m.rowid = memories_fts.rowid
		WHERE memories_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsMatchExpr(query), limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var id, content, snip string
		var title, metaJSON sql.NullString
		var rank float64
		if err := rows.Scan(&id, &title, &content, &metaJSON, &rank, &snip); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		// bm25() ranks best-first with the most negative value; flip the sign
		// so displayed scores grow with relevance.
		score := -rank
		hits = append(hits, Hit{
			ID:       id,
			Title:    title.String,
			Snippet:  snip,
			Text:     content,
			Score:    &score,
			Metadata: parseMetadata(metaJSON),
		})
	}
	return hits, rows.Err()
}

// findSemantic runs a vector similarity search. A capsule without embeddings
// yields no hits; the query is embedded with the model the capsule's items
// were embedded with.
func (c *Capsule) findSemantic(ctx context.Context, query string, limit int) ([]Hit, error) {
	c.mu.Lock()
	count := c.vectors.count
	model := c.vectors.model
	c.mu.Unlock()

	if count == 0 {
		return nil, nil
	}
	if c.embed == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	vec, err := c.embed(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	c.mu.Lock()
	results, err := c.vectors.query(ctx, vec, limit)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit, err := c.hitByID(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		score := float64(r.Similarity)
		hit.Score = &score
		hits = append(hits, hit)
	}
	return hits, nil
}

// findAuto fuses lexical and semantic rankings with reciprocal rank fusion.
// Without embeddings or an embedder it degrades to lexical.
func (c *Capsule) findAuto(ctx context.Context, query string, limit int) ([]Hit, error) {
	c.mu.Lock()
	hasVectors := c.vectors.count > 0
	c.mu.Unlock()

	if !hasVectors || c.embed == nil {
		return c.findLexical(ctx, query, limit)
	}

	lexical, err := c.findLexical(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	semantic, err := c.findSemantic(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	type fused struct {
		hit   Hit
		score float64
		order int
	}
	merged := make(map[string]*fused)
	order := 0
	accumulate := func(hits []Hit) {
		for rank, h := range hits {
			f, ok := merged[h.ID]
			if !ok {
				f = &fused{hit: h, order: order}
				order++
				merged[h.ID] = f
			} else if f.hit.Snippet == "" && h.Snippet != "" {
				f.hit.Snippet = h.Snippet
			}
			f.score += 1.0 / float64(rrfK+rank+1)
		}
	}
	accumulate(semantic)
	accumulate(lexical)

	ranked := make([]*fused, 0, len(merged))
	for _, f := range merged {
		ranked = append(ranked, f)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	hits := make([]Hit, len(ranked))
	for i, f := range ranked {
		score := f.score
		f.hit.Score = &score
		hits[i] = f.hit
	}
	return hits, nil
}

// hitByID loads a single memory row as a Hit without a score.
func (c *Capsule) hitByID(ctx context.Context, id string) (Hit, error) {
	var content string
	var title, metaJSON sql.NullString
	err := c.db.QueryRowContext(ctx, `
		SELECT title, content, metadata_json FROM memories WHERE id = ?
	`, id).Scan(&title, &content, &metaJSON)
	if err != nil {
		return Hit{}, fmt.Errorf("failed to load memory %s: %w", id, err)
	}
	return Hit{
		ID:       id,
		Title:    title.String,
		Text:     content,
		Metadata: parseMetadata(metaJSON),
	}, nil
}

// ftsMatchExpr quotes each query term so FTS5 operator syntax in user input
// cannot break the query. Terms are implicitly ANDed.
func ftsMatchExpr(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}
