// Package resources implements MCP resource handlers for Lumen.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (lumen://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lumen/internal/memory"
)

// Resource URIs.
const (
	StatsURI    = "lumen://memory/stats"
	TagsURI     = "lumen://memory/tags"
	ProjectsURI = "lumen://projects"
)

// Handler serves memory resources.
type Handler struct {
	store *memory.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *memory.Store) *Handler {
	return &Handler{store: store}
}

// StatsResource returns the MCP resource definition for entry statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		StatsURI,
		"Memory Statistics",
		mcp.WithResourceDescription("Entry counts by category and project"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the entry statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats(ctx, "")
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, stats)
}

// TagsResource returns the MCP resource definition for tag usage.
func (h *Handler) TagsResource() mcp.Resource {
	return mcp.NewResource(
		TagsURI,
		"Memory Tags",
		mcp.WithResourceDescription("Tags in use, most used first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleTags returns tag usage as JSON.
func (h *Handler) HandleTags(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tags, err := h.store.ListTags(ctx, "")
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, tags)
}

// ProjectsResource returns the MCP resource definition for the project list.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"Projects",
		mcp.WithResourceDescription("Registered projects and their status"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns all projects as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.ListProjects(ctx, "")
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, projects)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
