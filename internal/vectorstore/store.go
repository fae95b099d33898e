// Package vectorstore is the boundary to the persisted vector index
package vectorstore

import (
	"context"
	"time"
)

// Entry is one stored row: a document fragment with its embedding
type Entry struct {
	ID        string
	Key       string // natural key of the parent document (table name or query id)
	Category  string
	Content   string
	Metadata  map[string]any
	Hash      string // parent document content hash
	CreatedAt time.Time
	Embedding []float32
}

// Result pairs a stored entry with its distance from the query vector.
// Distance is 1 - cosine similarity, so smaller means more similar and the
// range is 0 to 2.
type Result struct {
	Entry    Entry
	Distance float64
}

// Store persists embedded documents and answers nearest-neighbor queries
type Store interface {
	// Initialize creates or migrates the backing schema
	Initialize(ctx context.Context) error

	// Upsert inserts the given entries. Callers delete stale rows for a key
	// first; the store does not deduplicate.
	Upsert(ctx context.Context, entries []Entry) error

	// DeleteByKey removes all entries (including chunks) for one natural key
	DeleteByKey(ctx context.Context, category, key string) error

	// Hashes returns the stored content hash per "category/key". Chunked
	// documents share their parent's hash, so each key appears once.
	Hashes(ctx context.Context) (map[string]string, error)

	// SearchByEmbedding returns the k nearest entries, optionally filtered
	// to one category, ordered by ascending distance
	SearchByEmbedding(ctx context.Context, embedding []float32, k int, category string) ([]Result, error)

	// Count returns the number of stored entries
	Count(ctx context.Context) (int, error)

	// Clear removes all entries. Destructive and irreversible.
	Clear(ctx context.Context) error

	// Close releases the underlying resources
	Close() error
}

// HashKey builds the composite key used by Hashes
func HashKey(category, key string) string {
	return category + "/" + key
}
