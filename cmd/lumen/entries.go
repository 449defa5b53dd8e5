package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// positiveFlag rejects an integer flag set explicitly below 1. An unset
// flag keeps 0, which selects the default.
func positiveFlag(cmd *cobra.Command, name string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	n, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("--%s must be at least 1, got %d", name, n)
	}
	return nil
}

// ─── add ─────────────────────────────────────────────────────────────────────

func (c *cli) addCmd() *cobra.Command {
	var (
		req    journal.AddRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a note",
		Long: `Store a note. Without --category (or with --auto) the category is
suggested from the text.

Examples:
  lumen add --title "用 sqlite" --content "单文件部署" --category decision
  lumen add --title "我意识到" --content "早起后更专注" --auto --tag 习惯`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := positiveFlag(cmd, "importance"); err != nil {
				return err
			}
			app, _, err := c.open()
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Journal.Add(commandContext(cmd), req)
			if err != nil {
				return fmt.Errorf("add failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "%s %s [%s] %s\n", res.Message, res.Entry.ID, res.Entry.Category, res.Entry.Title)
			if res.AutoClassified() {
				fmt.Fprintf(out, "  category suggested: %s (%.2f) %s\n",
					res.Classification.Category, res.Classification.Confidence, res.Classification.Reason)
			}
			for _, cf := range res.Conflicts {
				fmt.Fprintf(out, "  %s with %s %q (%.2f): %s\n",
					cf.Type, cf.Related.ID, cf.Related.Title, cf.Similarity, cf.Suggestion)
			}
			for _, d := range res.Diagnostics {
				fmt.Fprintf(out, "  warning (%s): %s\n", d.Stage, d.Message)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Title, "title", "t", "", "note title")
	f.StringVarP(&req.Content, "content", "c", "", "note content")
	f.StringVar(&req.Category, "category", "", "category ("+strings.Join(memory.Categories(), ", ")+")")
	f.StringVarP(&req.Project, "project", "p", "", "project name")
	f.IntVarP(&req.Importance, "importance", "i", 0, "importance 1-5 (default 3)")
	f.StringSliceVar(&req.Tags, "tag", nil, "tag (repeatable)")
	f.BoolVar(&req.AutoClassify, "auto", false, "let the classifier pick the category")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

// ─── search ──────────────────────────────────────────────────────────────────

func (c *cli) searchCmd() *cobra.Command {
	var (
		params memory.SearchParams
		level  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes",
		Long: `Search notes. CJK queries match by substring, others by full-text search.
An empty query lists the most important notes.

Examples:
  lumen search 退休
  lumen search "wal mode" --category knowledge --limit 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				params.Query = args[0]
			}
			if err := positiveFlag(cmd, "limit"); err != nil {
				return err
			}

			app, _, err := c.open()
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.Store.Search(commandContext(cmd), params)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			out := cmd.OutOrStdout()
			lvl := memory.ParseDetailLevel(level)
			views := make([]memory.EntryView, len(results))
			for i := range results {
				views[i] = results[i].View(lvl)
			}
			if asJSON {
				return writeJSON(out, map[string]any{"query": params.Query, "count": len(views), "results": views})
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "没有找到相关记录")
				return nil
			}
			for i, v := range views {
				fmt.Fprintf(out, "%d. [%s] %s (%s, importance %d)\n", i+1, v.Category, v.Title, v.ID, v.Importance)
				if v.Content != "" {
					fmt.Fprintf(out, "   %s\n", v.Content)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&params.Category, "category", "", "filter by category")
	f.StringVarP(&params.Project, "project", "p", "", "filter by project")
	f.StringSliceVar(&params.Tags, "tag", nil, "require tag (repeatable)")
	f.IntVarP(&params.Limit, "limit", "l", 0, "maximum results (default from config)")
	f.StringVar(&level, "detail", memory.DetailStandard, "detail level (summary, standard, full)")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// ─── tags / stats ────────────────────────────────────────────────────────────

func (c *cli) tagsCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags by usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.open()
			if err != nil {
				return err
			}
			defer app.Close()

			tags, err := app.Store.ListTags(commandContext(cmd), project)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tags {
				fmt.Fprintf(out, "%5d  %s\n", t.Count, t.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "only tags of this project")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var (
		project string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show note counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.open()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Store.Stats(commandContext(cmd), project)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}

			fmt.Fprintf(out, "total:    %d\n", stats.Total)
			fmt.Fprintf(out, "active:   %d\n", stats.Active)
			fmt.Fprintf(out, "archived: %d\n", stats.Archived)
			byCategory := stats.ByCategory
			if project != "" {
				byCategory = stats.ProjectCategories
			}
			for _, k := range sortedKeys(byCategory) {
				fmt.Fprintf(out, "  %-14s %d\n", k, byCategory[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "scope to one project")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ─── seed ────────────────────────────────────────────────────────────────────

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the starter notes (safe to repeat)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := c.open()
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Journal.Seed(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", len(report.Created), report.Skipped)
			return nil
		},
	}
}
