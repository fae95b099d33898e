// Package schema extracts table definitions from MySQL-dialect DDL text.
//
// Parsing is regex-based and deliberately narrow: it understands the shape of
// a mysqldump-style `CREATE TABLE ... ENGINE=...;` block and treats anything
// it cannot match as noise. The package boundary (Parse returning
// TableRecords) keeps a future tokenizer-based parser drop-in compatible.
package schema

import (
	"regexp"
	"strings"

	"github.com/singabi/dbkb/internal/errors"
)

// IndexKind distinguishes the primary key from secondary indexes
type IndexKind string

const (
	IndexPrimaryKey IndexKind = "primary_key"
	IndexSecondary  IndexKind = "secondary"
)

// DefaultTableComment is used when a CREATE TABLE block carries no COMMENT
const DefaultTableComment = "no description"

// TableRecord is one parsed CREATE TABLE block
type TableRecord struct {
	Name          string
	Comment       string
	Columns       []ColumnRecord
	Indexes       []IndexRecord
	RawDefinition string // verbatim body between the outer parentheses
}

// ColumnRecord is a single column definition with its comment split out
type ColumnRecord struct {
	Name    string
	Type    string // type and constraints, verbatim with COMMENT stripped
	Comment string
}

// IndexRecord is a PRIMARY KEY or secondary index declaration
type IndexRecord struct {
	Kind    IndexKind
	Name    string // empty for the primary key
	Columns string // verbatim column list
}

var (
	tableRe = regexp.MustCompile(
		"(?is)CREATE TABLE `(\\w+)`\\s*\\((.*?)\\)\\s*ENGINE=.*?(?:COMMENT='(.*?)')?;",
	)
	columnRe       = regexp.MustCompile("^`(\\w+)`\\s+(.*?)(?:,\\s*)?$")
	commentRe      = regexp.MustCompile(`COMMENT\s+'(.*?)'`)
	commentStripRe = regexp.MustCompile(`\s*COMMENT\s+'.*?'`)
	secondaryRe    = regexp.MustCompile("^(?:KEY|INDEX)\\s+`?(\\w+)`?\\s*\\((.*?)\\)")
)

// Parse extracts all CREATE TABLE blocks from raw DDL text.
//
// Lines inside a block that match neither a column nor an index declaration
// are skipped silently; blank lines and comments are expected noise. A table
// with zero parseable columns still yields a TableRecord. Parse fails only
// when the input contains no CREATE TABLE block at all.
func Parse(schemaText string) ([]TableRecord, error) {
	matches := tableRe.FindAllStringSubmatch(schemaText, -1)
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrTypeParse,
			"no CREATE TABLE statements found in schema input")
	}

	records := make([]TableRecord, 0, len(matches))

	for _, m := range matches {
		name, body, comment := m[1], m[2], m[3]
		if comment == "" {
			comment = DefaultTableComment
		}

		rec := TableRecord{
			Name:          name,
			Comment:       comment,
			RawDefinition: strings.TrimSpace(body),
		}

		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if isConstraintLine(line) {
				if idx, ok := parseIndexLine(line); ok {
					rec.Indexes = append(rec.Indexes, idx)
				}

				continue
			}

			if col, ok := parseColumnLine(line); ok {
				rec.Columns = append(rec.Columns, col)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// isConstraintLine reports whether a trimmed line declares an index or
// constraint rather than a column
func isConstraintLine(line string) bool {
	return strings.HasPrefix(line, "PRIMARY KEY") ||
		strings.HasPrefix(line, "KEY ") ||
		strings.HasPrefix(line, "INDEX ") ||
		strings.HasPrefix(line, "CONSTRAINT")
}

// parseColumnLine extracts a column name, its type string, and an optional
// trailing COMMENT fragment
func parseColumnLine(line string) (ColumnRecord, bool) {
	m := columnRe.FindStringSubmatch(line)
	if m == nil {
		return ColumnRecord{}, false
	}

	col := ColumnRecord{Name: m[1], Type: m[2]}

	if cm := commentRe.FindStringSubmatch(col.Type); cm != nil {
		col.Comment = cm[1]
		col.Type = strings.TrimSpace(commentStripRe.ReplaceAllString(col.Type, ""))
	}

	return col, true
}

// parseIndexLine extracts a PRIMARY KEY or KEY/INDEX declaration. Constraint
// lines that match neither form (e.g. foreign keys) are dropped.
func parseIndexLine(line string) (IndexRecord, bool) {
	if strings.HasPrefix(line, "PRIMARY KEY") {
		return IndexRecord{
			Kind:    IndexPrimaryKey,
			Columns: strings.TrimSuffix(line, ","),
		}, true
	}

	if m := secondaryRe.FindStringSubmatch(line); m != nil {
		return IndexRecord{
			Kind:    IndexSecondary,
			Name:    m[1],
			Columns: m[2],
		}, true
	}

	return IndexRecord{}, false
}
