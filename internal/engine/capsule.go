package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// previewMaxChars caps the stored plain-text preview of an item.
const previewMaxChars = 240

// Capsule is an open capsule file. Safe for concurrent use; SQLite access
// goes through the pooled *sql.DB and the in-memory vector index is guarded
// by its own lock.
type Capsule struct {
	path  string
	db    *sql.DB
	embed Embedder

	mu      sync.Mutex
	vectors *vectorIndex
}

// Open opens the capsule file at path, creating it when create is true.
// The in-memory vector index is rebuilt from stored embeddings.
func Open(path string, create bool, opts Options) (*Capsule, error) {
	db, err := openDB(path, create)
	if err != nil {
		return nil, err
	}

	c := &Capsule{
		path:  path,
		db:    db,
		embed: opts.Embedder,
	}

	if err := c.loadVectors(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the capsule file path.
func (c *Capsule) Path() string {
	return c.path
}

// Close releases the underlying database.
func (c *Capsule) Close() error {
	return c.db.Close()
}

// loadVectors rebuilds the in-memory vector index from stored embeddings.
func (c *Capsule) loadVectors() error {
	idx, err := newVectorIndex()
	if err != nil {
		return err
	}

	rows, err := c.db.Query(`
		SELECT id, content, embedding, embedding_model
		FROM memories
		WHERE embedding IS NOT NULL
		ORDER BY created_at ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to load embeddings: %w", err)
	}
	defer rows.Close()

	ctx := context.Background()
	for rows.Next() {
		var id, content string
		var blob []byte
		var model sql.NullString
		if err := rows.Scan(&id, &content, &blob, &model); err != nil {
			return fmt.Errorf("failed to scan embedding row: %w", err)
		}
		if err := idx.add(ctx, id, content, decodeVector(blob), model.String); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	c.vectors = idx
	return nil
}

// Put stores a memory item and returns its id. When item.Embed is set, the
// embedding is computed with item.EmbeddingModel before the row is written.
func (c *Capsule) Put(ctx context.Context, item Item) (string, error) {
	if strings.TrimSpace(item.Text) == "" {
		return "", fmt.Errorf("text must not be empty")
	}

	id, err := newULID()
	if err != nil {
		return "", err
	}

	var embBlob []byte
	var embModel sql.NullString
	var vec []float32
	if item.Embed {
		if c.embed == nil {
			return "", fmt.Errorf("no embedding provider configured")
		}
		vec, err = c.embed(ctx, item.Text, item.EmbeddingModel)
		if err != nil {
			return "", fmt.Errorf("embedding failed: %w", err)
		}
		embBlob = encodeVector(vec)
		embModel = sql.NullString{String: item.EmbeddingModel, Valid: true}
	}

	var tagsJSON sql.NullString
	if len(item.Tags) > 0 {
		data, err := json.Marshal(item.Tags)
		if err != nil {
			return "", err
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var metaJSON sql.NullString
	if len(item.Metadata) > 0 {
		data, err := json.Marshal(item.Metadata)
		if err != nil {
			return "", err
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}

	preview := ExtractPreview(item.Text, previewMaxChars)
	title := toNullString(item.Title)

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO memories (
			id, title, content, preview, tags_json, metadata_json,
			embedding, embedding_model, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, title, item.Text, preview, tagsJSON, metaJSON,
		embBlob, embModel, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to store memory: %w", err)
	}

	if vec != nil {
		c.mu.Lock()
		err = c.vectors.add(ctx, id, item.Text, vec, item.EmbeddingModel)
		c.mu.Unlock()
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

// Stat returns item counts for the capsule.
func (c *Capsule) Stat() (Stats, error) {
	var s Stats
	err := c.db.QueryRow(`
		SELECT COUNT(*), COUNT(embedding) FROM memories
	`).Scan(&s.Items, &s.Embedded)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to stat capsule: %w", err)
	}
	return s, nil
}

// Timeline lists items newest first. Implements ChronologicalLister.
func (c *Capsule) Timeline(ctx context.Context, opts TimelineOptions) ([]Hit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultFindLimit
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, title, preview, metadata_json
		FROM memories
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var id, preview string
		var title, metaJSON sql.NullString
		if err := rows.Scan(&id, &title, &preview, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan timeline row: %w", err)
		}
		hits = append(hits, Hit{
			ID:       id,
			Title:    title.String,
			Preview:  preview,
			Metadata: parseMetadata(metaJSON),
		})
	}
	return hits, rows.Err()
}

// newULID generates a new ULID.
func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseMetadata(metaJSON sql.NullString) map[string]any {
	if !metaJSON.Valid {
		return nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
		return nil
	}
	return meta
}
