package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/indexer"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all indexed documents",
	Long:  `Remove every entry from the vector index and the persisted build statistics. This action requires confirmation.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return runClear(cmd.Context(), force)
	},
}

func init() {
	clearCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
}

func runClear(ctx context.Context, force bool) error {
	cfg := appConfig

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

	if count == 0 {
		fmt.Println("Index is already empty.")
		return nil
	}

	fmt.Printf("This will delete %d indexed entries from collection %q.\n",
		count, cfg.Index.Collection)

	if !force {
		fmt.Printf("\nAre you sure? This action cannot be undone.\n")
		fmt.Printf("Type 'yes' to confirm: ")

		reader := bufio.NewReader(os.Stdin)

		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.Clear(ctx); err != nil {
		return err
	}

	indexer.RemoveStats(collectionDir(cfg))

	fmt.Println("Index cleared.")

	return nil
}
