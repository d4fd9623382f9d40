package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/utils"
)

var (
	storeToolName    = "memory_store"
	storeDescription = "Persist a new memory record. Use this to save a durable piece of knowledge (a decision, solution, preference) for future sessions, optionally scoped to a project."
)

// StoreInput represents the input arguments for the memory_store tool.
type StoreInput struct {
	Title      string   `json:"title,omitempty" jsonschema:"short title for the memory"`
	Content    string   `json:"content" jsonschema:"the knowledge to persist"`
	Tags       []string `json:"tags,omitempty" jsonschema:"categorization tags"`
	Keywords   []string `json:"keywords,omitempty" jsonschema:"lookup keywords"`
	Importance int      `json:"importance,omitempty" jsonschema:"importance on a 1-10 scale (default: 5)"`
	Project    string   `json:"project,omitempty" jsonschema:"project name to scope the memory to"`
}

// StoreOutput represents the output of the memory_store tool.
type StoreOutput struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// handleStore persists one memory record via MCP.
func (s *Server) handleStore(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, StoreOutput, error) {
	logger := s.config.Logger

	if input.Content == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "content is required"},
			},
		}, StoreOutput{}, nil
	}

	rec := memory.Record{
		Title:      input.Title,
		Content:    input.Content,
		Tags:       input.Tags,
		Keywords:   input.Keywords,
		Importance: input.Importance,
	}
	if rec.Title == "" {
		rec.Title = utils.Truncate(input.Content, 60)
	}
	if rec.Importance <= 0 {
		rec.Importance = 5
	}

	if input.Project != "" {
		projectID, err := s.config.Driver.EnsureProject(ctx, input.Project, "")
		if err != nil {
			logger.Error("project resolution failed", "project", input.Project, "error", err)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: fmt.Sprintf("Project resolution failed: %v", err)},
				},
			}, StoreOutput{}, nil
		}
		rec.ProjectIDs = []string{projectID}
	}

	id, err := s.config.Driver.Store(ctx, rec)
	if err != nil {
		logger.Error("memory store failed", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Memory store failed: %v", err)},
			},
		}, StoreOutput{}, nil
	}

	output := StoreOutput{ID: id, Success: true}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}, StoreOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
