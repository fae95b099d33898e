package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/indexer"
)

var buildCmd *cobra.Command

func init() {
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build or incrementally update the knowledge-base index",
		Long: `Parse the schema SQL and business-query JSON sources, embed new or changed
documents, and upsert them into the local vector index. Unchanged documents
are detected by content hash and skipped, so repeat builds only pay for what
actually changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return runBuild(cmd.Context(), force)
		},
	}

	buildCmd.Flags().BoolP("force", "f", false,
		"Delete the existing index and rebuild from scratch (destructive)")
	buildCmd.Flags().Int("batch-size", 0, "Override the embedding batch size")
	buildCmd.Flags().Int("chunk-size", 0, "Override the chunk size in characters")
}

func runBuild(ctx context.Context, force bool) error {
	cfg := appConfig

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	builder := indexer.NewBuilder(store, embedder,
		cfg.Sources.QueryJSON, cfg.Sources.SchemaSQL, collectionDir(cfg))

	opts := indexer.Options{
		ForceRebuild:  force,
		BatchSize:     cfg.Build.BatchSize,
		BulkThreshold: cfg.Build.BulkThreshold,
		ChunkSize:     cfg.Build.ChunkSize,
		ChunkOverlap:  cfg.Build.ChunkOverlap,
	}

	applyBuildFlags(&opts)

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	sp.Suffix = " building knowledge base..."
	sp.Start()

	report, err := builder.Build(ctx, opts)

	sp.Stop()

	if report != nil {
		printReport(report)
	}

	return err
}

// applyBuildFlags lets command-line flags override the configured tuning
func applyBuildFlags(opts *indexer.Options) {
	if v, err := buildCmd.Flags().GetInt("batch-size"); err == nil && v > 0 {
		opts.BatchSize = v
	}

	if v, err := buildCmd.Flags().GetInt("chunk-size"); err == nil && v > 0 {
		opts.ChunkSize = v
	}
}

func printReport(report *indexer.Report) {
	fmt.Println("Build complete:")
	fmt.Printf("  Schema documents:  %d\n", report.SchemaDocuments)
	fmt.Printf("  Query documents:   %d\n", report.QueryDocuments)
	fmt.Printf("  Chunks created:    %d\n", report.ChunksCreated)
	fmt.Printf("  Embedded:          %d\n", report.Embedded)
	fmt.Printf("  Skipped unchanged: %d\n", report.Skipped)
	fmt.Printf("  Elapsed:           %.1fs\n", report.ElapsedSeconds)
}
