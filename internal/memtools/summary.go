package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/journal"
)

// ─── SummarizeTool ──────────────────────────────────────────────────────────

// SummarizeTool handles the memory_summarize MCP tool.
type SummarizeTool struct {
	journal *journal.Journal
}

// NewSummarizeTool creates a SummarizeTool.
func NewSummarizeTool(j *journal.Journal) *SummarizeTool {
	return &SummarizeTool{journal: j}
}

// Definition returns the MCP tool definition for memory_summarize.
func (t *SummarizeTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_summarize",
		mcp.WithDescription(
			"Summarize notes over a period: counts per category, most frequent tags, key "+
				"insights and decisions, and a markdown review. Set save_as_digest to store the "+
				"review as a digest note.",
		),
		mcp.WithString("start_date",
			mcp.Description("First day, YYYY-MM-DD (inclusive)"),
		),
		mcp.WithString("end_date",
			mcp.Description("Last day, YYYY-MM-DD (inclusive)"),
		),
		mcp.WithString("project",
			mcp.Description("Only summarize this project"),
		),
		mcp.WithArray("tags",
			mcp.Description("Only notes carrying all of these tags"),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("save_as_digest",
			mcp.Description("Store the summary as a digest note (default: false)"),
		),
	)
}

// Handle processes the memory_summarize tool call.
func (t *SummarizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := t.journal.Summarize(ctx, journal.SummaryRequest{
		StartDate:    req.GetString("start_date", ""),
		EndDate:      req.GetString("end_date", ""),
		Project:      req.GetString("project", ""),
		Tags:         listArg(req, "tags"),
		SaveAsDigest: boolArg(req, "save_as_digest", false),
	})
	if err != nil {
		return toolError("summarize", err), nil
	}
	return jsonResult(sum)
}

// ─── CompressConversationTool ───────────────────────────────────────────────

// CompressConversationTool handles the memory_compress_conversation MCP tool.
type CompressConversationTool struct {
	journal *journal.Journal
}

// NewCompressConversationTool creates a CompressConversationTool.
func NewCompressConversationTool(j *journal.Journal) *CompressConversationTool {
	return &CompressConversationTool{journal: j}
}

// Definition returns the MCP tool definition for memory_compress_conversation.
func (t *CompressConversationTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_compress_conversation",
		mcp.WithDescription(
			"Save a condensed conversation: a summary plus the decisions, insights and action "+
				"items it produced. Call this at the end of a substantial conversation.",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("What the conversation was about and where it ended"),
		),
		mcp.WithArray("key_decisions",
			mcp.Description("Decisions made"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("key_insights",
			mcp.Description("Insights gained"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("action_items",
			mcp.Description("Follow-up actions"),
			mcp.WithStringItems(),
		),
		mcp.WithString("project",
			mcp.Description("Project name"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for the note"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the memory_compress_conversation tool call.
func (t *CompressConversationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("summary", "")
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	res, err := t.journal.CompressConversation(ctx, journal.ConversationRequest{
		Summary:      summary,
		KeyDecisions: listArg(req, "key_decisions"),
		KeyInsights:  listArg(req, "key_insights"),
		ActionItems:  listArg(req, "action_items"),
		Project:      req.GetString("project", ""),
		Tags:         listArg(req, "tags"),
	})
	if err != nil {
		return toolError("save conversation", err), nil
	}
	return jsonResult(res)
}
