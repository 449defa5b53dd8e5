package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/lumen/internal/httpapi"
	lumenserver "github.com/HendryAvila/lumen/internal/server"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.open()
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer app.Close()

			app.Log.Info("mcp server starting", "version", lumenserver.Version)
			return server.ServeStdio(lumenserver.NewMCPServer(app))
		},
	}
}

func (c *cli) httpCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start the JSON API",
		Long: `Start the JSON API.

Examples:
  lumen http
  lumen http --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cfg, err := c.open()
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer app.Close()

			if addr == "" {
				addr = cfg.HTTP.Addr
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return httpapi.New(app.Journal, app.Log).Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config http.addr)")
	return cmd
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
