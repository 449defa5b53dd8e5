// Package prompts implements MCP prompt handlers for Lumen.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to run a sequence of memory tools. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// arg returns a prompt argument or def when absent or blank.
func arg(req mcp.GetPromptRequest, name, def string) string {
	if v, ok := req.Params.Arguments[name]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// ─── ReviewPrompt ───────────────────────────────────────────────────────────

// ReviewPrompt handles the lumen-review MCP prompt. It walks the AI through
// a periodic review: summarize the period, then clean up conflicts.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("lumen-review",
		mcp.WithPromptDescription(
			"Review what you recorded over a period: a summary of notes and themes, "+
				"then duplicates, contradictions and stale plans to clean up.",
		),
		mcp.WithArgument("start_date",
			mcp.ArgumentDescription("First day of the period (YYYY-MM-DD). Default: all time"),
		),
		mcp.WithArgument("end_date",
			mcp.ArgumentDescription("Last day of the period (YYYY-MM-DD), inclusive. Default: today"),
		),
	)
}

// Handle processes the lumen-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	start := arg(req, "start_date", "")
	end := arg(req, "end_date", "")

	var rangeArgs, period string
	switch {
	case start != "" && end != "":
		rangeArgs = fmt.Sprintf("start_date='%s', end_date='%s', ", start, end)
		period = start + " ~ " + end
	case start != "":
		rangeArgs = fmt.Sprintf("start_date='%s', ", start)
		period = start + " ~ now"
	case end != "":
		rangeArgs = fmt.Sprintf("end_date='%s', ", end)
		period = "up to " + end
	default:
		period = "all time"
	}

	return &mcp.GetPromptResult{
		Description: "Memory review: " + period,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Let's review my notes for %s.\n\n"+
						"Please:\n"+
						"1. Run `memory_summarize` with %ssave_as_digest=false and show me the summary\n"+
						"2. Run `memory_check_conflicts` and list duplicates and contradictions side by side\n"+
						"3. Run `memory_check_outdated` (without auto_fix) and list stale plans and goals\n"+
						"4. For each problem, propose update, archive or keep, and wait for my answer\n"+
						"5. When we are done, ask whether to save the summary as a digest",
					period, rangeArgs,
				)),
			},
		},
	}, nil
}

// ─── ProjectPrompt ──────────────────────────────────────────────────────────

// ProjectPrompt handles the lumen-project MCP prompt. It loads a project's
// context before work starts.
type ProjectPrompt struct{}

// NewProjectPrompt creates a ProjectPrompt.
func NewProjectPrompt() *ProjectPrompt {
	return &ProjectPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ProjectPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("lumen-project",
		mcp.WithPromptDescription(
			"Pick up work on a project: load its baseline and recent notes, "+
				"and remember new decisions under it.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project name"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the lumen-project prompt request.
func (p *ProjectPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	project := arg(req, "project", "")
	if project == "" {
		return nil, fmt.Errorf("prompt argument 'project' is required")
	}

	return &mcp.GetPromptResult{
		Description: "Project context: " + project,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm working on the project '%s'.\n\n"+
						"Please:\n"+
						"1. Run `memory_get_project_context` with project='%s'\n"+
						"2. If the project does not exist, ask me for a description and create it with `memory_create_project`\n"+
						"3. Summarize the baseline and recent notes in a few lines\n"+
						"4. While we work, save decisions and insights with `memory_add` and project='%s'",
					project, project, project,
				)),
			},
		},
	}, nil
}
