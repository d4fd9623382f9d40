package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mnemohq/mnemo/pkg/memory"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search stored memories by semantic similarity. Returns the most relevant memory records for the query text, optionally scoped to a project."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"the search query text to find relevant memories"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of results to return (default: 5)"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"restrict results to one project"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query   string          `json:"query"`
	Results []memory.Result `json:"results"`
	Count   int             `json:"count"`
}

// handleSearch processes a memory search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, SearchOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	logger.Debug("MCP memory search request", "query", input.Query, "limit", limit)

	results, err := s.config.Driver.Search(ctx, input.Query, limit, input.ProjectID)
	if err != nil {
		logger.Error("memory search failed", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Memory search failed: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	if results == nil {
		results = []memory.Result{}
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}

	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
