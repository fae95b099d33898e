package retrieval

import (
	"fmt"
	"strings"

	"github.com/singabi/dbkb/internal/vectorstore"
)

const rulerWidth = 80

// RelevancePercent turns a distance score into a 0-100 relevance figure.
// Scores below 1 are treated as distances on a 0-1 scale; scores at or above
// 1 are assumed to already be similarities and are scaled directly. The two
// branches exist because vector-store backends disagree on score direction.
func RelevancePercent(distance float64) int {
	var pct int
	if distance < 1 {
		pct = int((1 - distance) * 100)
	} else {
		pct = int(distance * 100)
	}

	if pct < 0 {
		return 0
	}

	if pct > 100 {
		return 100
	}

	return pct
}

// FormatTableResults renders ranked table-schema results as a textual report
func FormatTableResults(results []vectorstore.Result, query string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No matching tables found for %q.", query)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Found %d matching tables\n\n", len(results))
	b.WriteString(ruler("="))

	for rank, res := range results {
		tableName := metaString(res.Entry.Metadata, "table_name", res.Entry.Key)
		tableComment := metaString(res.Entry.Metadata, "table_comment", "")

		fmt.Fprintf(&b, "\n\n[%d] Table: %s | Relevance: %d%%\n",
			rank+1, tableName, RelevancePercent(res.Distance))

		if tableComment != "" {
			fmt.Fprintf(&b, "Description: %s\n", tableComment)
		}

		b.WriteString(ruler("-"))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(res.Entry.Content, "\n"))
		b.WriteString("\n\n")
		b.WriteString(ruler("="))
	}

	return b.String()
}

// FormatRequirementResults renders ranked business-query results. Each block
// repeats the query id prominently: it is the key a downstream execution tool
// uses to run the saved query.
func FormatRequirementResults(results []vectorstore.Result, query string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No matching business requirements found for %q.", query)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Found %d similar requirements\n\n", len(results))
	b.WriteString(ruler("="))

	for rank, res := range results {
		queryID := metaString(res.Entry.Metadata, "query_id", res.Entry.Key)
		name := metaString(res.Entry.Metadata, "query_name", "unnamed requirement")
		requirement := metaString(res.Entry.Metadata, "business_requirement", "")

		fmt.Fprintf(&b, "\n\n[%d] Query ID: %s | Name: %s | Relevance: %d%%\n",
			rank+1, queryID, name, RelevancePercent(res.Distance))
		b.WriteString(ruler("-"))
		b.WriteString("\n")

		if queryID != "" {
			fmt.Fprintf(&b, "Saved query ID: %s (use this ID to execute the saved query)\n\n", queryID)
		}

		if requirement != "" {
			b.WriteString("Business requirement:\n")
			b.WriteString(strings.TrimRight(requirement, "\n"))
		} else {
			b.WriteString(strings.TrimRight(res.Entry.Content, "\n"))
		}

		b.WriteString("\n\n")
		b.WriteString(ruler("="))
	}

	return b.String()
}

func ruler(ch string) string {
	return strings.Repeat(ch, rulerWidth)
}

func metaString(metadata map[string]any, key, fallback string) string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}

	return fallback
}
