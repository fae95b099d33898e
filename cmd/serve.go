package cmd

import (
	"context"
	"os/signal"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/singabi/dbkb/internal/logging"
	"github.com/singabi/dbkb/internal/mcp"
)

const serverVersion = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base as MCP tools over stdio",
	Long: `Expose kb_search_tables and kb_search_requirements as Model Context
Protocol tools on standard input/output, for use by MCP-capable agents.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retriever, store, err := newRetriever(appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Initialize(ctx); err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:    "dbkb",
		Version: serverVersion,
	}, retriever)
	if err != nil {
		return err
	}

	logging.Infof("MCP server listening on stdio")

	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
