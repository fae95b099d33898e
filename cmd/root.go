// Package cmd implements the dbkb command-line interface
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/config"
	"github.com/singabi/dbkb/internal/logging"
)

var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "dbkb",
	Short: "Build and search a database knowledge base",
	Long: `dbkb indexes a database schema and its historical business queries into a
local vector index. It parses CREATE TABLE statements and business-requirement
records into documents, embeds them through an OpenAI-compatible service, and
answers natural-language searches over tables and requirements, either from
the command line or as an MCP server for agent integration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			logging.SetupFallbackLogger()
			return err
		}

		if err := logging.InitializeLogger(cfg.Logging); err != nil {
			logging.SetupFallbackLogger()
			logging.Warnf("failed to initialize logger: %v", err)
		}

		appConfig = cfg

		return nil
	},
}

func Execute() error {
	ctx := context.Background()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(serveCmd)
}
