package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/journal"
)

// SyncTool handles the memory_sync MCP tool.
type SyncTool struct {
	journal *journal.Journal
}

// NewSyncTool creates a SyncTool.
func NewSyncTool(j *journal.Journal) *SyncTool {
	return &SyncTool{journal: j}
}

// Definition returns the MCP tool definition for memory_sync.
func (t *SyncTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_sync",
		mcp.WithDescription(
			"Push active notes to the configured sync target (webhook). Failures are reported "+
				"per note and never change stored data. Use dry_run to count first.",
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Only count what would be sent (default: false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Send at most this many notes (default: all)"),
		),
	)
}

// Handle processes the memory_sync tool call.
func (t *SyncTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := intArg(req, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := t.journal.SyncAll(ctx, boolArg(req, "dry_run", false), limit)
	if err != nil {
		return toolError("sync", err), nil
	}
	return jsonResult(report)
}
