// Package retrieval answers similarity queries against the persisted index
// and renders the results
package retrieval

import (
	"context"

	"github.com/singabi/dbkb/internal/document"
	"github.com/singabi/dbkb/internal/embedding"
	"github.com/singabi/dbkb/internal/errors"
	"github.com/singabi/dbkb/internal/vectorstore"
)

const (
	minResults = 1
	maxResults = 20
)

// Retriever embeds a query once and runs a nearest-neighbor search per
// document category
type Retriever struct {
	store    vectorstore.Store
	embedder embedding.Provider
}

// NewRetriever wires a retriever to its store and embedder
func NewRetriever(store vectorstore.Store, embedder embedding.Provider) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// SearchTables returns the k table-schema documents closest to the query
func (r *Retriever) SearchTables(ctx context.Context, query string, k int) ([]vectorstore.Result, error) {
	return r.search(ctx, query, k, document.CategorySchema)
}

// SearchRequirements returns the k business-query documents closest to the
// query
func (r *Retriever) SearchRequirements(ctx context.Context, query string, k int) ([]vectorstore.Result, error) {
	return r.search(ctx, query, k, document.CategoryQuery)
}

func (r *Retriever) search(
	ctx context.Context, query string, k int, category document.Category,
) ([]vectorstore.Result, error) {
	if query == "" {
		return nil, errors.New(errors.ErrTypeValidation, "search query must not be empty")
	}

	k = ClampK(k)

	vector, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, err
	}

	return r.store.SearchByEmbedding(ctx, vector, k, string(category))
}

// ClampK bounds the result count to [1, 20] so a caller-supplied k can never
// request a pathological result set
func ClampK(k int) int {
	if k < minResults {
		return minResults
	}

	if k > maxResults {
		return maxResults
	}

	return k
}
