package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

var projectStatuses = []string{
	memory.StatusActive, memory.StatusPaused, memory.StatusCompleted, memory.StatusArchived,
}

// ─── ListProjectsTool ───────────────────────────────────────────────────────

// ListProjectsTool handles the memory_list_projects MCP tool.
type ListProjectsTool struct {
	store *memory.Store
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(store *memory.Store) *ListProjectsTool {
	return &ListProjectsTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_projects",
		mcp.WithDescription("List registered projects, newest first."),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(projectStatuses...),
		),
	)
}

// Handle processes the memory_list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.store.ListProjects(ctx, req.GetString("status", ""))
	if err != nil {
		return toolError("list projects", err), nil
	}
	return jsonResult(map[string]any{"count": len(projects), "projects": projects})
}

// ─── ProjectContextTool ─────────────────────────────────────────────────────

// ProjectContextTool handles the memory_get_project_context MCP tool.
type ProjectContextTool struct {
	journal *journal.Journal
}

// NewProjectContextTool creates a ProjectContextTool.
func NewProjectContextTool(j *journal.Journal) *ProjectContextTool {
	return &ProjectContextTool{journal: j}
}

// projectContextResponse adds paging and size hints to a project context.
type projectContextResponse struct {
	*journal.ProjectContext
	Hint            string `json:"hint,omitempty"`
	EstimatedTokens int    `json:"estimated_tokens"`
}

// Definition returns the MCP tool definition for memory_get_project_context.
func (t *ProjectContextTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_get_project_context",
		mcp.WithDescription(
			"Load a project before working on it: its description, status, baseline document "+
				"and the most important recent notes.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithBoolean("include_baseline",
			mcp.Description("Include the baseline document (default: true)"),
		),
		mcp.WithNumber("recent_limit",
			mcp.Description("Number of recent notes (default: 5)"),
		),
	)
}

// Handle processes the memory_get_project_context tool call.
func (t *ProjectContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("project", "")
	if name == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	recent, err := intArg(req, "recent_limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pc, err := t.journal.ProjectContext(ctx, name, boolArg(req, "include_baseline", true), recent)
	if err != nil {
		return toolError("load project "+name, err), nil
	}

	resp := projectContextResponse{ProjectContext: pc, EstimatedTokens: memory.EstimateTokens(pc.Baseline)}
	for _, e := range pc.RecentEntries {
		resp.EstimatedTokens += memory.EstimateTokens(e.Title) + memory.EstimateTokens(e.Content)
	}

	if stats, err := t.journal.Store().Stats(ctx, name); err == nil {
		total := 0
		for _, n := range stats.ProjectCategories {
			total += n
		}
		resp.Hint = memory.NavigationHint(len(pc.RecentEntries), total,
			fmt.Sprintf("Use memory_search with project=%q to see more.", name))
	}
	return jsonResult(resp)
}

// ─── CreateProjectTool ──────────────────────────────────────────────────────

// CreateProjectTool handles the memory_create_project MCP tool.
type CreateProjectTool struct {
	store *memory.Store
}

// NewCreateProjectTool creates a CreateProjectTool.
func NewCreateProjectTool(store *memory.Store) *CreateProjectTool {
	return &CreateProjectTool{store: store}
}

// Definition returns the MCP tool definition for memory_create_project.
func (t *CreateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_create_project",
		mcp.WithDescription(
			"Register a project so notes can be grouped under it. The optional baseline "+
				"document is stored alongside and returned by memory_get_project_context.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Unique project name"),
		),
		mcp.WithString("description",
			mcp.Description("What the project is about"),
		),
		mcp.WithString("baseline_doc",
			mcp.Description("Baseline document (markdown)"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: active)"),
			mcp.Enum(projectStatuses...),
		),
	)
}

// Handle processes the memory_create_project tool call.
func (t *CreateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	p, err := t.store.CreateProject(ctx, memory.CreateProjectParams{
		Name:        name,
		Description: req.GetString("description", ""),
		BaselineDoc: req.GetString("baseline_doc", ""),
		Status:      req.GetString("status", ""),
	})
	if err != nil {
		return toolError("create project", err), nil
	}
	return jsonResult(p)
}
