package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/singabi/dbkb/internal/errors"
)

// DuckDBStore implements the Store interface using DuckDB
type DuckDBStore struct {
	db   *sql.DB
	path string
}

// NewDuckDBStore opens (or creates) the index database at dbPath
func NewDuckDBStore(dbPath string) (*DuckDBStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to create index directory")
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open index database")
	}

	// Single-writer workload; a small pool is plenty
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to ping index database")
	}

	return &DuckDBStore{db: db, path: dbPath}, nil
}

// Initialize creates the database schema using migrations
func (s *DuckDBStore) Initialize(ctx context.Context) error {
	return NewMigrationManager(s.db).MigrateUp(ctx)
}

// Upsert inserts the given entries in one transaction
func (s *DuckDBStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to begin transaction")
	}

	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, doc_key, category, content, metadata, content_hash, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, CAST(? AS FLOAT[]))
	`)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to prepare insert")
	}

	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		id := entry.ID
		if id == "" {
			id = uuid.New().String()
		}

		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore,
				"failed to encode metadata for %s", entry.Key)
		}

		embedding, err := json.Marshal(entry.Embedding)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore,
				"failed to encode embedding for %s", entry.Key)
		}

		createdAt := entry.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err = stmt.ExecContext(ctx, id, entry.Key, entry.Category, entry.Content,
			string(metadata), entry.Hash, createdAt, string(embedding))
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeVectorStore,
				"failed to insert entry %s/%s", entry.Category, entry.Key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to commit upsert")
	}

	return nil
}

// DeleteByKey removes all entries for one natural key
func (s *DuckDBStore) DeleteByKey(ctx context.Context, category, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE category = ? AND doc_key = ?", category, key)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTypeVectorStore,
			"failed to delete entries for %s/%s", category, key)
	}

	return nil
}

// Hashes returns the stored content hash per category/key pair
func (s *DuckDBStore) Hashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT category, doc_key, content_hash FROM documents")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to query stored hashes")
	}

	defer rows.Close()

	hashes := make(map[string]string)

	for rows.Next() {
		var category, key, hash string
		if err := rows.Scan(&category, &key, &hash); err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to scan hash row")
		}

		hashes[HashKey(category, key)] = hash
	}

	return hashes, rows.Err()
}

// SearchByEmbedding returns the k nearest entries by cosine distance
func (s *DuckDBStore) SearchByEmbedding(
	ctx context.Context, embedding []float32, k int, category string,
) ([]Result, error) {
	query, err := json.Marshal(embedding)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to encode query embedding")
	}

	sqlQuery := `
		SELECT id, doc_key, category, content, metadata, content_hash, created_at,
			1 - list_cosine_similarity(embedding, CAST(? AS FLOAT[])) AS distance
		FROM documents
		WHERE embedding IS NOT NULL
	`
	args := []any{string(query)}

	if category != "" {
		sqlQuery += " AND category = ?"

		args = append(args, category)
	}

	sqlQuery += " ORDER BY distance ASC LIMIT ?"
	args = append(args, k)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "similarity search failed")
	}

	defer rows.Close()

	var results []Result

	for rows.Next() {
		var (
			res      Result
			metadata sql.NullString
		)

		err := rows.Scan(&res.Entry.ID, &res.Entry.Key, &res.Entry.Category,
			&res.Entry.Content, &metadata, &res.Entry.Hash, &res.Entry.CreatedAt,
			&res.Distance)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to scan search result")
		}

		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &res.Entry.Metadata); err != nil {
				return nil, errors.Wrapf(err, errors.ErrTypeVectorStore,
					"corrupt metadata for entry %s", res.Entry.ID)
			}
		}

		results = append(results, res)
	}

	return results, rows.Err()
}

// Count returns the number of stored entries
func (s *DuckDBStore) Count(ctx context.Context) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrTypeVectorStore, "failed to count entries")
	}

	return count, nil
}

// Clear removes all entries. Destructive and irreversible.
func (s *DuckDBStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents")
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeVectorStore, "failed to clear index")
	}

	return nil
}

// Close closes the underlying database handle
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *DuckDBStore) Path() string {
	return s.path
}

var _ Store = (*DuckDBStore)(nil)

// String implements fmt.Stringer for debug logging
func (s *DuckDBStore) String() string {
	return fmt.Sprintf("duckdb(%s)", s.path)
}
