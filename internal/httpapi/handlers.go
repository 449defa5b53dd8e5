package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/lumen/internal/classify"
	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

// msgNoResults matches the MCP search tool's empty response.
const msgNoResults = "没有找到相关记录"

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20 // 1MB

// ─── Errors ──────────────────────────────────────────────────────────────────

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case memory.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("http request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

func bindJSON(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid JSON body: %v", err)
		return false
	}
	return true
}

// queryInt parses an optional positive integer query parameter. An absent
// parameter yields 0, which selects the default.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "%s must be an integer, got %q", key, raw)
		return 0, false
	}
	if n < 1 {
		badRequest(c, "%s must be at least 1, got %d", key, n)
		return 0, false
	}
	return n, true
}

// ─── Entries ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// addEntryRequest tells an explicit importance apart from an omitted one.
type addEntryRequest struct {
	journal.AddRequest
	Importance *int `json:"importance"`
}

func (s *Server) handleAddEntry(c *gin.Context) {
	var req addEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Importance != nil {
		if *req.Importance < 1 {
			badRequest(c, "importance must be at least 1, got %d", *req.Importance)
			return
		}
		req.AddRequest.Importance = *req.Importance
	}
	res, err := s.journal.Add(c.Request.Context(), req.AddRequest)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) handleGetEntry(c *gin.Context) {
	e, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	var p memory.UpdateParams
	if !bindJSON(c, &p) {
		return
	}
	res, err := s.journal.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (s *Server) handleSearch(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	level := memory.ParseDetailLevel(c.Query("detail_level"))

	results, err := s.store.Search(c.Request.Context(), memory.SearchParams{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Project:  c.Query("project"),
		Tags:     c.QueryArray("tag"),
		Limit:    limit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if len(results) == 0 {
		c.JSON(http.StatusOK, gin.H{"count": 0, "message": msgNoResults})
		return
	}
	views := make([]memory.EntryView, len(results))
	for i := range results {
		views[i] = results[i].View(level)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "results": views})
}

func (s *Server) handleTags(c *gin.Context) {
	tags, err := s.store.ListTags(c.Request.Context(), c.Query("project"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(tags), "tags": tags})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context(), c.Query("project"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type classifyRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title == "" && req.Content == "" {
		badRequest(c, "title or content is required")
		return
	}
	c.JSON(http.StatusOK, classify.Suggest(req.Title, req.Content))
}

// ─── Conflicts ───────────────────────────────────────────────────────────────

func scope(c *gin.Context) journal.Scope {
	return journal.Scope{Category: c.Query("category"), Project: c.Query("project")}
}

func (s *Server) handleDuplicates(c *gin.Context) {
	threshold := 0.0
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(c, "threshold must be a number, got %q", raw)
			return
		}
		threshold = v
	}

	report, err := s.journal.CheckDuplicates(c.Request.Context(), scope(c), threshold)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleOutdated only reports; archiving is left to the MCP tool and CLI.
func (s *Server) handleOutdated(c *gin.Context) {
	report, err := s.journal.CheckOutdated(c.Request.Context(), scope(c), false)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ─── Projects ────────────────────────────────────────────────────────────────

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(projects), "projects": projects})
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var p memory.CreateProjectParams
	if !bindJSON(c, &p) {
		return
	}
	proj, err := s.store.CreateProject(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, proj)
}

func (s *Server) handleGetProject(c *gin.Context) {
	limit, ok := queryInt(c, "recent")
	if !ok {
		return
	}
	pc, err := s.journal.ProjectContext(c.Request.Context(), c.Param("name"), false, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

func (s *Server) handleProjectBaseline(c *gin.Context) {
	name := c.Param("name")
	baseline, err := s.store.GetProjectBaseline(c.Request.Context(), name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": name, "baseline": baseline})
}
