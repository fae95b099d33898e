package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/singabi/dbkb/internal/schema"
)

const (
	noFieldInfo = "no field information"
	noIndexes   = "  - no indexes"
)

// BuildSchemaDocument renders one table into its canonical document text.
// The template is fixed: any formatting change invalidates every stored hash
// and forces a full re-embed on the next build.
func BuildSchemaDocument(table schema.TableRecord) Document {
	content := fmt.Sprintf(`Table: %s

Description: %s

Fields (%d total):
%s

Indexes:
%s

Full DDL:
CREATE TABLE `+"`%s`"+` (
%s
) COMMENT='%s';
`,
		table.Name,
		table.Comment,
		len(table.Columns),
		formatFields(table.Columns),
		formatIndexes(table.Indexes),
		table.Name,
		table.RawDefinition,
		table.Comment,
	)

	return Document{
		Content:   content,
		Category:  CategorySchema,
		Hash:      ContentHash(content),
		CreatedAt: time.Now(),
		Schema: &SchemaMetadata{
			TableName:    table.Name,
			TableComment: table.Comment,
			FieldCount:   len(table.Columns),
		},
	}
}

// BuildQueryDocument renders one business-query record into its canonical
// document text, deriving the referenced-table list from the SQL
func BuildQueryDocument(rec QueryRecord) Document {
	tables := ExtractTables(rec.SQL)

	tableList := "unknown"
	if len(tables) > 0 {
		tableList = strings.Join(tables, ", ")
	}

	content := fmt.Sprintf(`Query ID: %s
Query name: %s

Business requirement:
%s

Referenced tables: %s

SQL:
%s
`,
		rec.QueryID,
		rec.Name,
		rec.BusinessRequirement,
		tableList,
		rec.SQL,
	)

	return Document{
		Content:   content,
		Category:  CategoryQuery,
		Hash:      ContentHash(content),
		CreatedAt: time.Now(),
		Query: &QueryMetadata{
			QueryID:     rec.QueryID,
			QueryName:   rec.Name,
			Requirement: rec.BusinessRequirement,
			Tables:      tables,
		},
	}
}

func formatFields(cols []schema.ColumnRecord) string {
	if len(cols) == 0 {
		return noFieldInfo
	}

	lines := make([]string, 0, len(cols))

	for _, col := range cols {
		if col.Comment != "" {
			lines = append(lines, fmt.Sprintf("  - %s: %s  // %s", col.Name, col.Type, col.Comment))
		} else {
			lines = append(lines, fmt.Sprintf("  - %s: %s", col.Name, col.Type))
		}
	}

	return strings.Join(lines, "\n")
}

func formatIndexes(indexes []schema.IndexRecord) string {
	if len(indexes) == 0 {
		return noIndexes
	}

	lines := make([]string, 0, len(indexes))

	for _, idx := range indexes {
		if idx.Kind == schema.IndexPrimaryKey {
			lines = append(lines, "  - PRIMARY KEY: "+idx.Columns)
		} else {
			lines = append(lines, fmt.Sprintf("  - INDEX %s: %s", idx.Name, idx.Columns))
		}
	}

	return strings.Join(lines, "\n")
}

// Identifier scan after the clauses that introduce a table reference. The
// optional qualifier group swallows a database prefix so only the bare table
// name is captured.
var tableRefRes = []*regexp.Regexp{
	regexp.MustCompile("(?i)FROM\\s+`?(?:\\w+\\.)?(\\w+)`?"),
	regexp.MustCompile("(?i)JOIN\\s+`?(?:\\w+\\.)?(\\w+)`?"),
	regexp.MustCompile("(?i)INTO\\s+`?(?:\\w+\\.)?(\\w+)`?"),
	regexp.MustCompile("(?i)UPDATE\\s+`?(?:\\w+\\.)?(\\w+)`?"),
}

// sqlKeywords are identifiers the reference scan can match by accident, e.g.
// the SELECT of a subquery directly after FROM
var sqlKeywords = map[string]bool{
	"SELECT": true, "WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true,
}

// ExtractTables returns the sorted, deduplicated set of table names a SQL
// statement references
func ExtractTables(sql string) []string {
	seen := make(map[string]bool)

	for _, re := range tableRefRes {
		for _, m := range re.FindAllStringSubmatch(sql, -1) {
			name := m[1]
			if name == "" || sqlKeywords[strings.ToUpper(name)] {
				continue
			}

			seen[name] = true
		}
	}

	tables := make([]string, 0, len(seen))
	for name := range seen {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}
