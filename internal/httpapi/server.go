// Package httpapi exposes the memory store as a small JSON API over gin.
//
// It is an adapter like the MCP tools: handlers parse the request, call the
// journal or store, and map errors to status codes. No business logic lives
// here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP API server.
type Server struct {
	journal *journal.Journal
	store   *memory.Store
	log     *log.Logger
	router  *gin.Engine
}

// New creates a Server with all routes registered. A nil logger uses
// log.Default().
func New(j *journal.Journal, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		journal: j,
		store:   j.Store(),
		log:     logger,
		router:  router,
	}

	router.GET("/healthz", s.handleHealth)

	router.POST("/entries", s.handleAddEntry)
	router.GET("/entries/:id", s.handleGetEntry)
	router.PATCH("/entries/:id", s.handleUpdateEntry)

	router.GET("/search", s.handleSearch)
	router.GET("/tags", s.handleTags)
	router.GET("/stats", s.handleStats)
	router.POST("/classify", s.handleClassify)

	conflicts := router.Group("/conflicts")
	{
		conflicts.GET("/duplicates", s.handleDuplicates)
		conflicts.GET("/outdated", s.handleOutdated)
	}

	projects := router.Group("/projects")
	{
		projects.GET("", s.handleListProjects)
		projects.POST("", s.handleCreateProject)
		projects.GET("/:name", s.handleGetProject)
		projects.GET("/:name/baseline", s.handleProjectBaseline)
	}

	return s
}

// Handler returns the router for use with net/http or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// requestLogger logs one debug line per request.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
