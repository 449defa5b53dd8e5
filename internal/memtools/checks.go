package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/classify"
	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

// ─── CheckConflictsTool ─────────────────────────────────────────────────────

// CheckConflictsTool handles the memory_check_conflicts MCP tool.
type CheckConflictsTool struct {
	journal *journal.Journal
}

// NewCheckConflictsTool creates a CheckConflictsTool.
func NewCheckConflictsTool(j *journal.Journal) *CheckConflictsTool {
	return &CheckConflictsTool{journal: j}
}

// Definition returns the MCP tool definition for memory_check_conflicts.
func (t *CheckConflictsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_check_conflicts",
		mcp.WithDescription(
			"Check notes for contradictions, staleness and duplicates. With new_entry_id, "+
				"one note is compared against similar notes of the same category and project; "+
				"otherwise the whole category/project scope is scanned.",
		),
		mcp.WithString("new_entry_id",
			mcp.Description("Check this note against its neighbours"),
		),
		mcp.WithString("category",
			mcp.Description("Limit the scan to a category"),
			mcp.Enum(memory.Categories()...),
		),
		mcp.WithString("project",
			mcp.Description("Limit the scan to a project"),
		),
		mcp.WithArray("check_type",
			mcp.Description("Checks to run: contradict, outdated, duplicate (default: all)"),
			mcp.WithStringItems(mcp.Enum(journal.CheckContradict, journal.CheckOutdated, journal.CheckDuplicate)),
		),
	)
}

// Handle processes the memory_check_conflicts tool call.
func (t *CheckConflictsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := t.journal.CheckConflicts(ctx, journal.ConflictOptions{
		NewEntryID: req.GetString("new_entry_id", ""),
		Scope: journal.Scope{
			Category: req.GetString("category", ""),
			Project:  req.GetString("project", ""),
		},
		Checks: listArg(req, "check_type"),
	})
	if err != nil {
		return toolError("check conflicts", err), nil
	}
	return jsonResult(report)
}

// ─── CheckDuplicatesTool ────────────────────────────────────────────────────

// CheckDuplicatesTool handles the memory_check_duplicates MCP tool.
type CheckDuplicatesTool struct {
	journal *journal.Journal
}

// NewCheckDuplicatesTool creates a CheckDuplicatesTool.
func NewCheckDuplicatesTool(j *journal.Journal) *CheckDuplicatesTool {
	return &CheckDuplicatesTool{journal: j}
}

// Definition returns the MCP tool definition for memory_check_duplicates.
func (t *CheckDuplicatesTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_check_duplicates",
		mcp.WithDescription(
			"Find pairs of near-identical notes, most similar first. Use the result to merge "+
				"or archive redundant notes.",
		),
		mcp.WithString("category",
			mcp.Description("Limit the scan to a category"),
			mcp.Enum(memory.Categories()...),
		),
		mcp.WithString("project",
			mcp.Description("Limit the scan to a project"),
		),
		mcp.WithNumber("similarity_threshold",
			mcp.Description("Minimum similarity 0-1 to report a pair (default: 0.8)"),
		),
	)
}

// Handle processes the memory_check_duplicates tool call.
func (t *CheckDuplicatesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := t.journal.CheckDuplicates(ctx, journal.Scope{
		Category: req.GetString("category", ""),
		Project:  req.GetString("project", ""),
	}, floatArg(req, "similarity_threshold", 0))
	if err != nil {
		return toolError("check duplicates", err), nil
	}
	return jsonResult(report)
}

// ─── CheckOutdatedTool ──────────────────────────────────────────────────────

// CheckOutdatedTool handles the memory_check_outdated MCP tool.
type CheckOutdatedTool struct {
	journal *journal.Journal
}

// NewCheckOutdatedTool creates a CheckOutdatedTool.
func NewCheckOutdatedTool(j *journal.Journal) *CheckOutdatedTool {
	return &CheckOutdatedTool{journal: j}
}

// Definition returns the MCP tool definition for memory_check_outdated.
func (t *CheckOutdatedTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_check_outdated",
		mcp.WithDescription(
			"Find stale notes: time-bound goals older than 6 months, plans older than 3 months, "+
				"and low-importance knowledge not updated for 6 months. With auto_fix, the stale "+
				"knowledge notes are archived.",
		),
		mcp.WithString("category",
			mcp.Description("Limit the scan to a category"),
			mcp.Enum(memory.Categories()...),
		),
		mcp.WithString("project",
			mcp.Description("Limit the scan to a project"),
		),
		mcp.WithBoolean("auto_fix",
			mcp.Description("Archive stale low-importance knowledge (default: false)"),
		),
	)
}

// Handle processes the memory_check_outdated tool call.
func (t *CheckOutdatedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := t.journal.CheckOutdated(ctx, journal.Scope{
		Category: req.GetString("category", ""),
		Project:  req.GetString("project", ""),
	}, boolArg(req, "auto_fix", false))
	if err != nil {
		return toolError("check outdated", err), nil
	}
	return jsonResult(report)
}

// ─── SuggestCategoryTool ────────────────────────────────────────────────────

// SuggestCategoryTool handles the memory_suggest_category MCP tool.
// It is stateless: the classifier needs no store.
type SuggestCategoryTool struct{}

// NewSuggestCategoryTool creates a SuggestCategoryTool.
func NewSuggestCategoryTool() *SuggestCategoryTool {
	return &SuggestCategoryTool{}
}

// Definition returns the MCP tool definition for memory_suggest_category.
func (t *SuggestCategoryTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_suggest_category",
		mcp.WithDescription(
			"Suggest whether a note is a personal insight or external knowledge, with a "+
				"confidence and the cues that decided it. Nothing is saved.",
		),
		mcp.WithString("title",
			mcp.Description("Note title"),
		),
		mcp.WithString("content",
			mcp.Description("Note content"),
		),
	)
}

// Handle processes the memory_suggest_category tool call.
func (t *SuggestCategoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	if title == "" && content == "" {
		return mcp.NewToolResultError("at least 'title' or 'content' is required"), nil
	}
	return jsonResult(classify.Suggest(title, content))
}
