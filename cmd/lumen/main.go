// Lumen: a personal memory store for AI assistants.
//
// Notes are kept as JSON documents with a SQLite index, searchable in any
// language, and checked for duplicates, contradictions and stale plans.
//
// Usage:
//
//	lumen serve            # MCP server (stdio transport)
//	lumen http             # JSON API
//	lumen add --title ...  # store a note from the shell
//	lumen search QUERY
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/lumen/internal/config"
	"github.com/HendryAvila/lumen/internal/server"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries the persistent flags and the log destination.
type cli struct {
	configPath string
	dataDir    string
	logOut     io.Writer
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	c := &cli{logOut: logOut}

	root := &cobra.Command{
		Use:           "lumen",
		Short:         "Lumen - personal memory store for AI assistants",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "config file (YAML)")
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "data directory (overrides config)")

	root.AddCommand(
		c.serveCmd(),
		c.httpCmd(),
		c.addCmd(),
		c.searchCmd(),
		c.tagsCmd(),
		c.statsCmd(),
		c.seedCmd(),
		c.configCmd(),
		versionCmd(),
	)
	return root
}

// load reads the configuration and applies --data-dir.
func (c *cli) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	return cfg, nil
}

// logger writes to logOut so stdout stays free for MCP and command output.
func (c *cli) logger(cfg *config.Config) *log.Logger {
	logger := log.New(c.logOut)
	if lvl, err := cfg.LogLevel(); err == nil {
		logger.SetLevel(lvl)
	}
	logger.SetReportTimestamp(true)
	return logger
}

// open loads config and opens the store. The caller must Close the App.
func (c *cli) open() (*server.App, *config.Config, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	app, err := server.Open(cfg, c.logger(cfg))
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lumen v%s\n", server.Version)
		},
	}
}
