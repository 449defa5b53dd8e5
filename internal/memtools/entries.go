package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

// ─── AddTool ────────────────────────────────────────────────────────────────

// AddTool handles the memory_add MCP tool.
type AddTool struct {
	journal *journal.Journal
}

// NewAddTool creates an AddTool.
func NewAddTool(j *journal.Journal) *AddTool {
	return &AddTool{journal: j}
}

// Definition returns the MCP tool definition for memory_add.
func (t *AddTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_add",
		mcp.WithDescription(
			"Save a note to personal memory. Omit category (or set auto_classify) to let the "+
				"classifier choose between insight and knowledge. The result lists possible "+
				"duplicates or contradictions with existing notes.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full note text"),
		),
		mcp.WithString("category",
			mcp.Description("Category (omit to auto-classify)"),
			mcp.Enum(memory.Categories()...),
		),
		mcp.WithBoolean("auto_classify",
			mcp.Description("Ignore category and let the classifier pick one"),
		),
		mcp.WithString("project",
			mcp.Description("Project name"),
		),
		mcp.WithNumber("importance",
			mcp.Description("Importance 1-5 (default: 3)"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for the note"),
			mcp.WithStringItems(),
		),
		mcp.WithString("source",
			mcp.Description("Where the note came from (default: manual)"),
			mcp.Enum(memory.SourceClaudeAI, memory.SourceCursor, memory.SourceManual),
		),
	)
}

// Handle processes the memory_add tool call.
func (t *AddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	importance, err := intArg(req, "importance")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.journal.Add(ctx, journal.AddRequest{
		AddParams: memory.AddParams{
			Category:   req.GetString("category", ""),
			Title:      title,
			Content:    content,
			Project:    req.GetString("project", ""),
			Importance: importance,
			Tags:       listArg(req, "tags"),
			Source:     req.GetString("source", ""),
		},
		AutoClassify: boolArg(req, "auto_classify", false),
	})
	if err != nil {
		return toolError("add entry", err), nil
	}
	return jsonResult(res)
}

// ─── GetTool ────────────────────────────────────────────────────────────────

// GetTool handles the memory_get MCP tool.
type GetTool struct {
	store *memory.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *memory.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for memory_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_get",
		mcp.WithDescription(
			"Get one note by id with its full content, including archived notes. "+
				"Use after memory_search to read a result in full.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry id (from memory_search results)"),
		),
	)
}

// Handle processes the memory_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	e, err := t.store.Get(ctx, id)
	if err != nil {
		return toolError("get entry "+id, err), nil
	}
	return jsonResult(e)
}

// ─── UpdateTool ─────────────────────────────────────────────────────────────

// UpdateTool handles the memory_update MCP tool.
type UpdateTool struct {
	journal *journal.Journal
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(j *journal.Journal) *UpdateTool {
	return &UpdateTool{journal: j}
}

// Definition returns the MCP tool definition for memory_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_update",
		mcp.WithDescription(
			"Update a note by id. Only the fields provided are changed. Pass "+
				"expected_updated_at (from a previous read) to reject the update if the note "+
				"changed in the meantime.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry id to update"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("content",
			mcp.Description("New content"),
		),
		mcp.WithBoolean("archived",
			mcp.Description("Archive (true) or restore (false) the note"),
		),
		mcp.WithString("expected_updated_at",
			mcp.Description("updated_at value the note must still have"),
		),
	)
}

// Handle processes the memory_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	res, err := t.journal.Update(ctx, id, memory.UpdateParams{
		Title:             optString(req, "title"),
		Content:           optString(req, "content"),
		Archived:          optBool(req, "archived"),
		ExpectedUpdatedAt: req.GetString("expected_updated_at", ""),
	})
	if err != nil {
		return toolError("update entry "+id, err), nil
	}
	return jsonResult(res)
}
