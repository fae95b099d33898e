package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singabi/dbkb/internal/schema"
)

func TestBuildSchemaDocument(t *testing.T) {
	table := schema.TableRecord{
		Name:    "sgo_orders",
		Comment: "order main table",
		Columns: []schema.ColumnRecord{
			{Name: "order_id", Type: "bigint(20) NOT NULL", Comment: "order primary key"},
			{Name: "status", Type: "tinyint(4) DEFAULT '0'"},
		},
		Indexes: []schema.IndexRecord{
			{Kind: schema.IndexPrimaryKey, Columns: "PRIMARY KEY (`order_id`)"},
			{Kind: schema.IndexSecondary, Name: "idx_status", Columns: "`status`"},
		},
		RawDefinition: "`order_id` bigint(20) NOT NULL,\n`status` tinyint(4) DEFAULT '0'",
	}

	doc := BuildSchemaDocument(table)

	assert.Equal(t, CategorySchema, doc.Category)
	assert.Equal(t, "sgo_orders", doc.Key())
	require.NotNil(t, doc.Schema)
	assert.Equal(t, 2, doc.Schema.FieldCount)

	assert.Contains(t, doc.Content, "Table: sgo_orders")
	assert.Contains(t, doc.Content, "Description: order main table")
	assert.Contains(t, doc.Content, "Fields (2 total):")
	assert.Contains(t, doc.Content, "  - order_id: bigint(20) NOT NULL  // order primary key")
	assert.Contains(t, doc.Content, "  - status: tinyint(4) DEFAULT '0'\n")
	assert.Contains(t, doc.Content, "  - PRIMARY KEY: PRIMARY KEY (`order_id`)")
	assert.Contains(t, doc.Content, "  - INDEX idx_status: `status`")
	assert.Contains(t, doc.Content, "CREATE TABLE `sgo_orders`")
}

func TestBuildSchemaDocumentNoFields(t *testing.T) {
	doc := BuildSchemaDocument(schema.TableRecord{Name: "ghost", Comment: "no description"})

	assert.Contains(t, doc.Content, "Fields (0 total):\nno field information")
	assert.Contains(t, doc.Content, "Indexes:\n  - no indexes")
}

func TestBuildQueryDocument(t *testing.T) {
	rec := QueryRecord{
		QueryID:             "42",
		Name:                "daily gmv",
		BusinessRequirement: "sum of paid order amounts per day",
		SQL:                 "SELECT SUM(amount) FROM sgo_orders o JOIN sgo_users u ON o.user_id = u.user_id",
	}

	doc := BuildQueryDocument(rec)

	assert.Equal(t, CategoryQuery, doc.Category)
	assert.Equal(t, "42", doc.Key())
	require.NotNil(t, doc.Query)
	assert.Equal(t, []string{"sgo_orders", "sgo_users"}, doc.Query.Tables)

	assert.Contains(t, doc.Content, "Query ID: 42")
	assert.Contains(t, doc.Content, "Referenced tables: sgo_orders, sgo_users")
}

func TestBuildQueryDocumentNoTables(t *testing.T) {
	doc := BuildQueryDocument(QueryRecord{QueryID: "1", Name: "n", SQL: "SHOW VARIABLES"})

	assert.Contains(t, doc.Content, "Referenced tables: unknown")
}

func TestExtractTables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "from and join",
			sql:  "SELECT * FROM orders o LEFT JOIN users u ON o.uid = u.id",
			want: []string{"orders", "users"},
		},
		{
			name: "subquery keyword excluded",
			sql:  "SELECT * FROM (SELECT id FROM orders) t",
			want: []string{"orders"},
		},
		{
			name: "database qualifier stripped",
			sql:  "INSERT INTO singa_bi.daily_stats SELECT * FROM singa_bi.orders",
			want: []string{"daily_stats", "orders"},
		},
		{
			name: "update and dedup",
			sql:  "UPDATE orders SET status = 1 WHERE id IN (SELECT oid FROM orders)",
			want: []string{"orders"},
		},
		{
			name: "case insensitive clauses",
			sql:  "select * from Orders join Users on 1=1",
			want: []string{"Orders", "Users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTables(tt.sql))
		})
	}
}

func TestContentHashDeterminism(t *testing.T) {
	a := BuildSchemaDocument(schema.TableRecord{Name: "t", Comment: "c"})
	b := BuildSchemaDocument(schema.TableRecord{Name: "t", Comment: "c"})
	c := BuildSchemaDocument(schema.TableRecord{Name: "t", Comment: "changed"})

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
	assert.Len(t, a.Hash, 32) // md5 hex
}

func TestDocumentMetadata(t *testing.T) {
	doc := BuildQueryDocument(QueryRecord{
		QueryID:             "7",
		Name:                "refund rate",
		BusinessRequirement: "refunds over orders",
		SQL:                 "SELECT 1 FROM refunds JOIN orders ON 1=1",
	})

	m := doc.Metadata()
	assert.Equal(t, "business_query", m["type"])
	assert.Equal(t, "7", m["query_id"])
	assert.Equal(t, "orders,refunds", m["tables"])
	assert.Equal(t, doc.Hash, m["content_hash"])
}

func TestLoadQueryDocumentsSortedByID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.json")

	payload := `{
		"20": {"name": "b", "business_requirement": "r2", "sql": "SELECT 1 FROM b"},
		"10": {"name": "a", "business_requirement": "r1", "sql": "SELECT 1 FROM a"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	docs, err := LoadQueryDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "10", docs[0].Key())
	assert.Equal(t, "20", docs[1].Key())
}

func TestLoadQueryDocumentsMissingFile(t *testing.T) {
	_, err := LoadQueryDocuments(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadSchemaDocumentsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")

	ddl := "CREATE TABLE `users` (\n" +
		"  `user_id` bigint(20) NOT NULL COMMENT 'user pk',\n" +
		"  `email` varchar(255) DEFAULT NULL,\n" +
		"  PRIMARY KEY (`user_id`)\n" +
		") ENGINE=InnoDB COMMENT='registered users';\n"
	require.NoError(t, os.WriteFile(path, []byte(ddl), 0o644))

	docs, err := LoadSchemaDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "users", doc.Key())
	assert.Equal(t, 2, doc.Schema.FieldCount)
	assert.True(t, strings.HasPrefix(doc.Content, "Table: users\n"))
	assert.Contains(t, doc.Content, "Description: registered users")
}
