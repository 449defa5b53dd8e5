package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/memory"
)

// ─── SearchTool ─────────────────────────────────────────────────────────────

// SearchTool handles the memory_search MCP tool.
type SearchTool struct {
	store *memory.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *memory.Store) *SearchTool {
	return &SearchTool{store: store}
}

// searchResponse is the memory_search payload.
type searchResponse struct {
	Count   int                `json:"count"`
	Message string             `json:"message,omitempty"`
	Results []memory.EntryView `json:"results,omitempty"`
}

// Definition returns the MCP tool definition for memory_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription(
			"Search personal memory by keywords, category, project and tags. Chinese queries "+
				"match any of their space-separated words as substrings; other queries must "+
				"match every word. Results are ordered by importance, then newest first.",
		),
		mcp.WithString("query",
			mcp.Description("Keywords (omit to list by filters only)"),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category"),
			mcp.Enum(memory.Categories()...),
		),
		mcp.WithString("project",
			mcp.Description("Filter by project name"),
		),
		mcp.WithArray("tags",
			mcp.Description("Only notes carrying all of these tags"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 5, max: 50)"),
		),
		mcp.WithString("detail_level",
			mcp.Description(
				"Level of detail: 'summary' (ids, titles and metadata only), "+
					"'standard' (default, 200-character content snippets), "+
					"'full' (complete content with source and update time).",
			),
			mcp.Enum(memory.DetailLevelValues()...),
		),
	)
}

// Handle processes the memory_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))
	limit, err := intArg(req, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := t.store.Search(ctx, memory.SearchParams{
		Query:    req.GetString("query", ""),
		Category: req.GetString("category", ""),
		Project:  req.GetString("project", ""),
		Tags:     listArg(req, "tags"),
		Limit:    limit,
	})
	if err != nil {
		return toolError("search", err), nil
	}

	if len(results) == 0 {
		return jsonResult(searchResponse{Count: 0, Message: MsgNoResults})
	}

	views := make([]memory.EntryView, len(results))
	for i := range results {
		views[i] = results[i].View(level)
	}
	return jsonResult(searchResponse{Count: len(views), Results: views})
}

// ─── ListTagsTool ───────────────────────────────────────────────────────────

// ListTagsTool handles the memory_list_tags MCP tool.
type ListTagsTool struct {
	store *memory.Store
}

// NewListTagsTool creates a ListTagsTool.
func NewListTagsTool(store *memory.Store) *ListTagsTool {
	return &ListTagsTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_tags.
func (t *ListTagsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_tags",
		mcp.WithDescription("List tags used by active notes with their counts, most used first."),
		mcp.WithString("project",
			mcp.Description("Only count notes in this project"),
		),
	)
}

// Handle processes the memory_list_tags tool call.
func (t *ListTagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := t.store.ListTags(ctx, req.GetString("project", ""))
	if err != nil {
		return toolError("list tags", err), nil
	}
	return jsonResult(map[string]any{"count": len(tags), "tags": tags})
}

// ─── StatsTool ──────────────────────────────────────────────────────────────

// StatsTool handles the memory_stats MCP tool.
type StatsTool struct {
	store *memory.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *memory.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for memory_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription("Show memory statistics: totals, archived count, and counts per category and project."),
		mcp.WithString("project",
			mcp.Description("Also break down this project by category"),
		),
	)
}

// Handle processes the memory_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx, req.GetString("project", ""))
	if err != nil {
		return toolError("get stats", err), nil
	}
	return jsonResult(stats)
}
