// Package document turns parsed schema tables and business-query records into
// canonical, hashable documents ready for embedding.
package document

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Category identifies which source a document was derived from
type Category string

const (
	CategorySchema Category = "table_schema"
	CategoryQuery  Category = "business_query"
)

// Document is the unit of indexing. Content is the fully rendered text and
// Hash its md5 digest; the hash plus the natural key (table name or query id)
// is the only identity used for change detection.
type Document struct {
	Content   string
	Category  Category
	Hash      string
	CreatedAt time.Time
	Ordinal   int // chunk index within the parent, 0 for unchunked documents

	Schema *SchemaMetadata
	Query  *QueryMetadata
}

// SchemaMetadata is carried by table_schema documents
type SchemaMetadata struct {
	TableName    string
	TableComment string
	FieldCount   int
}

// QueryMetadata is carried by business_query documents
type QueryMetadata struct {
	QueryID     string
	QueryName   string
	Requirement string
	Tables      []string
}

// Key returns the natural key of the document: the table name for schema
// documents, the query id for query documents
func (d *Document) Key() string {
	switch {
	case d.Schema != nil:
		return d.Schema.TableName
	case d.Query != nil:
		return d.Query.QueryID
	default:
		return ""
	}
}

// Metadata flattens the category-specific fields into the map persisted
// alongside the embedding
func (d *Document) Metadata() map[string]any {
	m := map[string]any{
		"type":         string(d.Category),
		"content_hash": d.Hash,
		"created_at":   d.CreatedAt.Format(time.RFC3339),
	}

	if d.Schema != nil {
		m["source"] = "database_schema"
		m["table_name"] = d.Schema.TableName
		m["table_comment"] = d.Schema.TableComment
		m["field_count"] = d.Schema.FieldCount
	}

	if d.Query != nil {
		m["source"] = "query_business_requirements"
		m["query_id"] = d.Query.QueryID
		m["query_name"] = d.Query.QueryName
		m["business_requirement"] = d.Query.Requirement
		m["tables"] = strings.Join(d.Query.Tables, ",")
	}

	return m
}

// ContentHash computes the content identity digest. md5 is fine here: the
// hash is a change-detection key, not a security boundary.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
