// Package testutil provides in-memory fakes for the embedding and store
// boundaries
package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/singabi/dbkb/internal/errors"
	"github.com/singabi/dbkb/internal/vectorstore"
)

// MockEmbedder produces deterministic vectors derived from the input text and
// counts how many texts it embedded. FailAfter > 0 makes the call fail once
// the total embedded count would exceed it.
type MockEmbedder struct {
	Dims      int
	FailAfter int

	mu       sync.Mutex
	Embedded int
	Calls    int
}

// NewMockEmbedder returns an embedder producing vectors of the given size
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{Dims: dims}
}

func (m *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++

	if m.FailAfter > 0 && m.Embedded+len(texts) > m.FailAfter {
		return nil, errors.New(errors.ErrTypeEmbedding, "mock embedding failure")
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}

	m.Embedded += len(texts)

	return vectors, nil
}

func (m *MockEmbedder) GetDimensions() int { return m.Dims }
func (m *MockEmbedder) GetName() string    { return "mock" }

// vector spreads the text's bytes over the dimensions so distinct texts get
// distinct, stable vectors
func (m *MockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.Dims)
	for i, b := range []byte(text) {
		vec[i%m.Dims] += float32(b)
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec
}

// MockStore is an in-memory vectorstore.Store with brute-force cosine search
type MockStore struct {
	mu      sync.Mutex
	entries []vectorstore.Entry

	Upserts     int
	FailUpserts bool
}

// NewMockStore returns an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (s *MockStore) Initialize(_ context.Context) error { return nil }

func (s *MockStore) Upsert(_ context.Context, entries []vectorstore.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpserts {
		return errors.New(errors.ErrTypeVectorStore, "mock upsert failure")
	}

	s.Upserts++
	s.entries = append(s.entries, entries...)

	return nil
}

func (s *MockStore) DeleteByKey(_ context.Context, category, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]

	for _, e := range s.entries {
		if e.Category == category && e.Key == key {
			continue
		}

		kept = append(kept, e)
	}

	s.entries = kept

	return nil
}

func (s *MockStore) Hashes(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hashes := make(map[string]string)
	for _, e := range s.entries {
		hashes[vectorstore.HashKey(e.Category, e.Key)] = e.Hash
	}

	return hashes, nil
}

func (s *MockStore) SearchByEmbedding(
	_ context.Context, embedding []float32, k int, category string,
) ([]vectorstore.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []vectorstore.Result

	for _, e := range s.entries {
		if category != "" && e.Category != category {
			continue
		}

		results = append(results, vectorstore.Result{
			Entry:    e,
			Distance: 1 - cosine(embedding, e.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

func (s *MockStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries), nil
}

func (s *MockStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil

	return nil
}

func (s *MockStore) Close() error { return nil }

// Entries returns a copy of the stored entries for assertions
func (s *MockStore) Entries() []vectorstore.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]vectorstore.Entry, len(s.entries))
	copy(out, s.entries)

	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ vectorstore.Store = (*MockStore)(nil)
