package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/retrieval"
	"github.com/singabi/dbkb/internal/vectorstore"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the knowledge base",
}

var searchTablesCmd = &cobra.Command{
	Use:   "tables <query>",
	Short: "Find table schemas matching a natural-language description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("top-k")
		return runSearch(cmd.Context(), strings.Join(args, " "), k, tableSearch)
	},
}

var searchRequirementsCmd = &cobra.Command{
	Use:     "requirements <query>",
	Aliases: []string{"queries"},
	Short:   "Find historical business requirements similar to a description",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("top-k")
		return runSearch(cmd.Context(), strings.Join(args, " "), k, requirementSearch)
	},
}

func init() {
	searchCmd.AddCommand(searchTablesCmd)
	searchCmd.AddCommand(searchRequirementsCmd)

	for _, c := range []*cobra.Command{searchTablesCmd, searchRequirementsCmd} {
		c.Flags().IntP("top-k", "k", 5, "Number of results to return (1-20)")
	}
}

// searchKind selects the category-specific search and rendering
type searchKind int

const (
	tableSearch searchKind = iota
	requirementSearch
)

func runSearch(ctx context.Context, query string, k int, kind searchKind) error {
	retriever, store, err := newRetriever(appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Initialize(ctx); err != nil {
		return err
	}

	var (
		results []vectorstore.Result
		output  string
	)

	switch kind {
	case tableSearch:
		results, err = retriever.SearchTables(ctx, query, k)
		if err == nil {
			output = retrieval.FormatTableResults(results, query)
		}
	case requirementSearch:
		results, err = retriever.SearchRequirements(ctx, query, k)
		if err == nil {
			output = retrieval.FormatRequirementResults(results, query)
		}
	}

	if err != nil {
		return err
	}

	fmt.Println(output)

	return nil
}
