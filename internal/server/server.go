// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it creates concrete implementations from
// the configuration and injects them into the tools that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/lumen/internal/config"
	"github.com/HendryAvila/lumen/internal/consistency"
	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
	"github.com/HendryAvila/lumen/internal/memtools"
	"github.com/HendryAvila/lumen/internal/notify"
	"github.com/HendryAvila/lumen/internal/prompts"
	"github.com/HendryAvila/lumen/internal/resources"
	"github.com/HendryAvila/lumen/internal/similarity"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name.
const Name = "lumen"

// App holds the long-lived components shared by every front end.
type App struct {
	Store   *memory.Store
	Journal *journal.Journal
	Log     *log.Logger
}

// Close releases the store.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Log.Warn("memory store close", "err", err)
	}
}

// Open builds the store, detector and notifiers described by cfg.
// The caller must Close the returned App.
func Open(cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	timeout, err := cfg.SyncTimeout()
	if err != nil {
		return nil, err
	}
	writeTimeout, err := cfg.SyncWriteTimeout()
	if err != nil {
		return nil, err
	}

	store, err := memory.New(cfg.ToMemoryConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Sync.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Sync.WebhookURL, timeout))
	}

	j := journal.New(store, journal.Options{
		Detector:           consistency.New(similarity.NewScorer(cfg.Algorithm()), nil),
		Notifier:           notifiers,
		Logger:             logger,
		DuplicateThreshold: cfg.Duplicates.Threshold,
		NotifyTimeout:      writeTimeout,
	})

	logger.Debug("memory store opened",
		"data_dir", store.DataDir(),
		"similarity", cfg.Algorithm(),
		"webhook", cfg.Sync.WebhookURL != "",
	)
	return &App{Store: store, Journal: j, Log: logger}, nil
}

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the memory store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg *config.Config, logger *log.Logger) (*server.MCPServer, func(), error) {
	app, err := Open(cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	return NewMCPServer(app), app.Close, nil
}

// NewMCPServer registers every memory tool, prompt and resource against app.
func NewMCPServer(app *App) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	registerMemoryTools(s, app.Journal)

	// --- Register prompts ---

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	projectPrompt := prompts.NewProjectPrompt()
	s.AddPrompt(projectPrompt.Definition(), projectPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(app.Store)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)
	s.AddResource(resourceHandler.TagsResource(), resourceHandler.HandleTags)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)

	return s
}

// noop is the cleanup returned when initialization fails.
func noop() {}

// registerMemoryTools registers all 16 memory MCP tools with the server.
func registerMemoryTools(s *server.MCPServer, j *journal.Journal) {
	store := j.Store()

	// --- Entries ---
	addTool := memtools.NewAddTool(j)
	s.AddTool(addTool.Definition(), addTool.Handle)

	getTool := memtools.NewGetTool(store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	updateTool := memtools.NewUpdateTool(j)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	// --- Query & retrieval ---
	searchTool := memtools.NewSearchTool(store)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	listTags := memtools.NewListTagsTool(store)
	s.AddTool(listTags.Definition(), listTags.Handle)

	statsTool := memtools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Consistency ---
	checkConflicts := memtools.NewCheckConflictsTool(j)
	s.AddTool(checkConflicts.Definition(), checkConflicts.Handle)

	checkDuplicates := memtools.NewCheckDuplicatesTool(j)
	s.AddTool(checkDuplicates.Definition(), checkDuplicates.Handle)

	checkOutdated := memtools.NewCheckOutdatedTool(j)
	s.AddTool(checkOutdated.Definition(), checkOutdated.Handle)

	suggestCategory := memtools.NewSuggestCategoryTool()
	s.AddTool(suggestCategory.Definition(), suggestCategory.Handle)

	// --- Summaries ---
	summarize := memtools.NewSummarizeTool(j)
	s.AddTool(summarize.Definition(), summarize.Handle)

	compress := memtools.NewCompressConversationTool(j)
	s.AddTool(compress.Definition(), compress.Handle)

	// --- Projects ---
	listProjects := memtools.NewListProjectsTool(store)
	s.AddTool(listProjects.Definition(), listProjects.Handle)

	projectContext := memtools.NewProjectContextTool(j)
	s.AddTool(projectContext.Definition(), projectContext.Handle)

	createProject := memtools.NewCreateProjectTool(store)
	s.AddTool(createProject.Definition(), createProject.Handle)

	// --- Sync ---
	syncTool := memtools.NewSyncTool(j)
	s.AddTool(syncTool.Definition(), syncTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use Lumen effectively.
func serverInstructions() string {
	return `You have access to Lumen, a personal memory store.

## WHAT TO SAVE

Save anything the user will want you to remember in a later conversation:
who they are, goals and plans, commitments, insights, principles, recurring
patterns, progress, decisions, and reference knowledge. Call memory_add with
a short title and the full content. If you are unsure of the category, set
auto_classify=true or ask memory_suggest_category first.

Importance runs from 1 (trivia) to 5 (core identity and goals). Default 3.

## BEFORE ANSWERING

When the user refers to something they told you before, search first:
memory_search with a short query. Chinese, Japanese and Korean queries are
matched by substring, other languages by full-text search. Start with
detail_level=summary and fetch single entries with memory_get.

## KEEPING MEMORY HEALTHY

- memory_add reports duplicates and contradictions with similar entries.
  Tell the user and offer to update or archive the older one.
- memory_check_conflicts scans for all three problems at once.
- memory_check_outdated finds stale plans and goals. auto_fix only archives
  low-importance knowledge; everything else needs the user's decision.
- memory_update with expected_updated_at refuses to overwrite a change you
  have not seen.

## PROJECTS

Group work under a project with memory_create_project. Before working on
a project, call memory_get_project_context to load its baseline and recent
notes.

## SUMMARIES

At the end of a long conversation, save it with memory_compress_conversation.
memory_summarize reviews a date range and can save the review as a digest.`
}
