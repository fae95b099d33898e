package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/errors"
	"github.com/singabi/dbkb/internal/indexer"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics from the last build",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStats(cmd.Context())
	},
}

func runStats(ctx context.Context) error {
	cfg := appConfig

	report, err := indexer.LoadStats(collectionDir(cfg))
	if err != nil {
		if errors.IsType(err, errors.ErrTypeNotFound) {
			fmt.Println("No index has been built yet. Run 'dbkb build' first.")
			return nil
		}

		return err
	}

	fmt.Printf("Collection:        %s\n", cfg.Index.Collection)
	fmt.Printf("Last build:        %s\n", report.LastBuild)
	fmt.Printf("Schema documents:  %d\n", report.SchemaDocuments)
	fmt.Printf("Query documents:   %d\n", report.QueryDocuments)
	fmt.Printf("Chunks created:    %d\n", report.ChunksCreated)
	fmt.Printf("Embedded:          %d\n", report.Embedded)
	fmt.Printf("Skipped unchanged: %d\n", report.Skipped)
	fmt.Printf("Build time:        %.1fs\n", report.ElapsedSeconds)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Initialize(ctx); err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Stored entries:    %d\n", count)

	return nil
}
