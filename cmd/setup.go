package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/singabi/dbkb/internal/config"
	"github.com/singabi/dbkb/internal/embedding"
	"github.com/singabi/dbkb/internal/retrieval"
	"github.com/singabi/dbkb/internal/vectorstore"
)

// indexDBFile is the DuckDB database inside the index directory
const indexDBFile = "index.db"

// openStore opens the persisted index for the configured collection
func openStore(cfg *config.Config) (vectorstore.Store, error) {
	dbPath := filepath.Join(cfg.Index.Dir, cfg.Index.Collection, indexDBFile)

	store, err := vectorstore.NewDuckDBStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	return store, nil
}

// newEmbedder builds the embedding client from configuration
func newEmbedder(cfg *config.Config) (embedding.Provider, error) {
	if err := cfg.RequireEmbedding(); err != nil {
		return nil, err
	}

	return embedding.NewOpenAIProvider(cfg.Embedding, &http.Client{
		Timeout: cfg.EmbeddingTimeout(),
	})
}

// newRetriever wires the search path; the caller owns the returned store
func newRetriever(cfg *config.Config) (*retrieval.Retriever, vectorstore.Store, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return retrieval.NewRetriever(store, embedder), store, nil
}

// collectionDir returns the directory holding the index database and its
// build stats
func collectionDir(cfg *config.Config) string {
	return filepath.Join(cfg.Index.Dir, cfg.Index.Collection)
}
