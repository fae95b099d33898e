// Package indexer drives the embed-and-upsert pipeline with hash-based
// change detection
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/singabi/dbkb/internal/chunker"
	"github.com/singabi/dbkb/internal/document"
	"github.com/singabi/dbkb/internal/embedding"
	"github.com/singabi/dbkb/internal/errors"
	"github.com/singabi/dbkb/internal/logging"
	"github.com/singabi/dbkb/internal/vectorstore"
)

// Options controls a single build run
type Options struct {
	// ForceRebuild clears the persisted index before loading. Destructive.
	ForceRebuild bool

	// BatchSize is the per-batch document count on the batched path
	BatchSize int

	// BulkThreshold is the corpus size at or below which everything is
	// embedded and upserted in one call
	BulkThreshold int

	ChunkSize    int
	ChunkOverlap int
}

// Builder loads both sources, diffs them against the persisted index, and
// embeds and upserts what changed
type Builder struct {
	store     vectorstore.Store
	embedder  embedding.Provider
	queryJSON string
	schemaSQL string
	indexDir  string
}

// NewBuilder wires a builder to its store, embedder, and source locations
func NewBuilder(
	store vectorstore.Store,
	embedder embedding.Provider,
	queryJSON, schemaSQL, indexDir string,
) *Builder {
	return &Builder{
		store:     store,
		embedder:  embedder,
		queryJSON: queryJSON,
		schemaSQL: schemaSQL,
		indexDir:  indexDir,
	}
}

// pending is one changed document expanded into its storable entries
type pending struct {
	category string
	key      string
	inStore  bool
	entries  []vectorstore.Entry
}

// Build runs one full pipeline pass. Batches already upserted before a
// failure stay persisted; the returned error reports the committed count.
//
// A source that fails to load degrades to an empty document set so the
// sibling source is still indexed; the load error is returned alongside the
// report in that case.
func (b *Builder) Build(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	if err := b.store.Initialize(ctx); err != nil {
		return nil, err
	}

	if opts.ForceRebuild {
		logging.Warnf("force rebuild requested, clearing persisted index")

		if err := b.store.Clear(ctx); err != nil {
			return nil, err
		}

		RemoveStats(b.indexDir)
	}

	report := &Report{}

	var srcErr error

	schemaDocs, err := document.LoadSchemaDocuments(b.schemaSQL)
	if err != nil {
		logging.ErrorWithErr("schema source failed to load, continuing without it", err)

		srcErr = err
	}

	queryDocs, err := document.LoadQueryDocuments(b.queryJSON)
	if err != nil {
		logging.ErrorWithErr("query source failed to load, continuing without it", err)

		if srcErr != nil {
			return nil, errors.Wrap(err, errors.ErrTypeSourceLoad, "both sources failed to load")
		}

		srcErr = err
	}

	report.SchemaDocuments = len(schemaDocs)
	report.QueryDocuments = len(queryDocs)
	report.TotalDocuments = len(schemaDocs) + len(queryDocs)

	stored, err := b.store.Hashes(ctx)
	if err != nil {
		return nil, err
	}

	// schema documents first, then query documents, never interleaved
	docs := make([]document.Document, 0, report.TotalDocuments)
	docs = append(docs, schemaDocs...)
	docs = append(docs, queryDocs...)

	var changed []pending

	for _, doc := range docs {
		hashKey := vectorstore.HashKey(string(doc.Category), doc.Key())

		prev, inStore := stored[hashKey]
		if inStore && prev == doc.Hash {
			report.Skipped++
			continue
		}

		chunks := chunker.Split(doc, opts.ChunkSize, opts.ChunkOverlap)
		if len(chunks) > 1 {
			report.ChunksCreated += len(chunks)
		}

		changed = append(changed, pending{
			category: string(doc.Category),
			key:      doc.Key(),
			inStore:  inStore,
			entries:  toEntries(chunks),
		})
	}

	if err := b.embedAndUpsert(ctx, changed, opts, report); err != nil {
		return nil, err
	}

	report.ElapsedSeconds = time.Since(start).Seconds()
	report.LastBuild = time.Now().Format(time.RFC3339)

	if err := SaveStats(b.indexDir, report); err != nil {
		logging.ErrorWithErr("failed to persist build stats", err)
	}

	if count, err := b.store.Count(ctx); err == nil {
		logging.Infof("index now holds %d entries", count)
	}

	return report, srcErr
}

// embedAndUpsert pushes the changed documents through the embedding service
// and into the store. Small corpora go in one shot; larger ones in fixed
// sequential batches with progress reporting.
func (b *Builder) embedAndUpsert(
	ctx context.Context, changed []pending, opts Options, report *Report,
) error {
	var entries []vectorstore.Entry

	for _, p := range changed {
		// stale rows for a changed key go first so a failed run never
		// leaves both versions behind
		if p.inStore {
			if err := b.store.DeleteByKey(ctx, p.category, p.key); err != nil {
				return err
			}
		}

		entries = append(entries, p.entries...)
	}

	if len(entries) == 0 {
		logging.Infof("index is up to date, nothing to embed")
		return nil
	}

	if len(entries) <= opts.BulkThreshold {
		if err := b.flush(ctx, entries); err != nil {
			return wrapBuildError(err, 0)
		}

		report.Embedded = len(entries)

		return nil
	}

	committed := 0

	for start := 0; start < len(entries); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(entries))

		if err := b.flush(ctx, entries[start:end]); err != nil {
			report.Embedded = committed
			return wrapBuildError(err, committed)
		}

		committed = end
		report.Embedded = committed

		logging.Infof("embedding progress: %d/%d (%.0f%%)",
			committed, len(entries), float64(committed)/float64(len(entries))*100)
	}

	return nil
}

// flush embeds one batch and upserts it
func (b *Builder) flush(ctx context.Context, entries []vectorstore.Entry) error {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Content
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	for i := range entries {
		entries[i].Embedding = vectors[i]
	}

	return b.store.Upsert(ctx, entries)
}

func toEntries(chunks []document.Document) []vectorstore.Entry {
	entries := make([]vectorstore.Entry, 0, len(chunks))

	for _, chunk := range chunks {
		entries = append(entries, vectorstore.Entry{
			ID:        fmt.Sprintf("%s:%s:%d", chunk.Category, chunk.Key(), chunk.Ordinal),
			Key:       chunk.Key(),
			Category:  string(chunk.Category),
			Content:   chunk.Content,
			Metadata:  chunk.Metadata(),
			Hash:      chunk.Hash,
			CreatedAt: chunk.CreatedAt,
		})
	}

	return entries
}

func wrapBuildError(err error, committed int) error {
	return errors.Wrapf(err, errors.ErrTypeVectorStore,
		"index build aborted, %d entries already committed", committed)
}
