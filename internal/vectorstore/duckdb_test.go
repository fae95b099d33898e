package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DuckDBStore {
	t.Helper()

	store, err := NewDuckDBStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Initialize(context.Background()))

	return store
}

func entry(key, category, hash string, embedding []float32) Entry {
	return Entry{
		Key:       key,
		Category:  category,
		Content:   "content for " + key,
		Metadata:  map[string]any{"table_name": key},
		Hash:      hash,
		Embedding: embedding,
	}
}

func TestUpsertAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
		entry("users", "table_schema", "h2", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHashes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// chunked parent: two rows sharing key and hash
	require.NoError(t, store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
		entry("orders", "table_schema", "h1", []float32{0.9, 0.1, 0}),
		entry("42", "business_query", "h2", []float32{0, 1, 0}),
	}))

	hashes, err := store.Hashes(ctx)
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
	assert.Equal(t, "h1", hashes[HashKey("table_schema", "orders")])
	assert.Equal(t, "h2", hashes[HashKey("business_query", "42")])
}

func TestDeleteByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
		entry("orders", "table_schema", "h1", []float32{0.9, 0.1, 0}),
		entry("users", "table_schema", "h2", []float32{0, 1, 0}),
	}))

	require.NoError(t, store.DeleteByKey(ctx, "table_schema", "orders"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSearchByEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
		entry("users", "table_schema", "h2", []float32{0, 1, 0}),
		entry("42", "business_query", "h3", []float32{0.9, 0.1, 0}),
	}))

	results, err := store.SearchByEmbedding(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	// exact match first, then the near-parallel query document
	assert.Equal(t, "orders", results[0].Entry.Key)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
	assert.Equal(t, "42", results[1].Entry.Key)
	assert.Less(t, results[0].Distance, results[1].Distance)
}

func TestSearchByEmbeddingCategoryFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
		entry("42", "business_query", "h2", []float32{1, 0, 0}),
	}))

	results, err := store.SearchByEmbedding(ctx, []float32{1, 0, 0}, 10, "business_query")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "42", results[0].Entry.Key)
	assert.Equal(t, "42", results[0].Entry.Metadata["table_name"])
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []Entry{
		entry("orders", "table_schema", "h1", []float32{1, 0, 0}),
	}))
	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInitializeIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Initialize(context.Background()))
}
