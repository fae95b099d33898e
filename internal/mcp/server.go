// Package mcp exposes the retrieval layer as Model Context Protocol tools
package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/singabi/dbkb/internal/logging"
	"github.com/singabi/dbkb/internal/retrieval"
)

// DefaultK is the result count used when a tool call omits top_k
const DefaultK = 5

// Server wraps the MCP SDK server around a retriever
type Server struct {
	mcpServer *mcp.Server
	retriever *retrieval.Retriever
}

// Config holds MCP server configuration
type Config struct {
	Name    string
	Version string
}

// NewServer creates the server and registers both knowledge-base tools
func NewServer(cfg Config, retriever *retrieval.Retriever) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}

	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		retriever: retriever,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport. Blocks until the
// context is canceled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// SearchInput is the shared input schema of both search tools
type SearchInput struct {
	Query string `json:"query" jsonschema:"Natural-language description of what to look for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of results to return (1-20, default 5)"`
}

type searchFunc func(ctx context.Context, query string, k int) (string, error)

func (s *Server) registerTools() error {
	tools := []struct {
		name        string
		description string
		search      searchFunc
	}{
		{
			name: "kb_search_tables",
			description: "Search the database knowledge base for table schemas matching a " +
				"natural-language description. Returns table names, comments, field listings, " +
				"and DDL ranked by relevance.",
			search: func(ctx context.Context, query string, k int) (string, error) {
				results, err := s.retriever.SearchTables(ctx, query, k)
				if err != nil {
					return "", err
				}

				return retrieval.FormatTableResults(results, query), nil
			},
		},
		{
			name: "kb_search_requirements",
			description: "Search historical business requirements and their saved queries. " +
				"Returns query IDs, names, and requirement text ranked by relevance; the query " +
				"ID is the key for executing the saved query.",
			search: func(ctx context.Context, query string, k int) (string, error) {
				results, err := s.retriever.SearchRequirements(ctx, query, k)
				if err != nil {
					return "", err
				}

				return retrieval.FormatRequirementResults(results, query), nil
			},
		},
	}

	inputSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	for _, t := range tools {
		search := t.search

		tool := &mcp.Tool{
			Name:        t.name,
			Description: t.description,
			InputSchema: inputSchema,
		}

		mcp.AddTool(s.mcpServer, tool,
			func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
				k := in.TopK
				if k == 0 {
					k = DefaultK
				}

				text, err := search(ctx, in.Query, retrieval.ClampK(k))
				if err != nil {
					logging.ErrorWithErr("tool call failed", err)

					// retrieval failures are tool-level errors, not
					// protocol errors
					return &mcp.CallToolResult{
						Content: []mcp.Content{&mcp.TextContent{Text: "Search failed: " + err.Error()}},
						IsError: true,
					}, nil, nil
				}

				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: text}},
				}, nil, nil
			})
	}

	return nil
}
