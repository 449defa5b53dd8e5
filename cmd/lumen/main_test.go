package main

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/lumen/internal/config"
	"github.com/HendryAvila/lumen/internal/server"
)

// runCLI executes lumen with an isolated config path and data dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(io.Discard)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--data-dir", filepath.Join(dir, "data"),
	}, args...))

	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	if err != nil {
		t.Fatalf("lumen %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestVersion(t *testing.T) {
	out := mustRun(t, t.TempDir(), "version")
	if out != "lumen v"+server.Version+"\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestAddAndSearch(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "add",
		"--title", "核心目标：50岁退休", "--content", "身体与精神的双重准备",
		"--category", "goal", "--importance", "5", "--tag", "人生,长期")
	if !strings.Contains(out, "[goal] 核心目标：50岁退休") {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, dir, "add", "--title", "wal mode", "--content", "sqlite journal", "--category", "knowledge")

	out = mustRun(t, dir, "search", "退休")
	if !strings.Contains(out, "1. [goal] 核心目标：50岁退休") || strings.Contains(out, "wal mode") {
		t.Errorf("search output = %q", out)
	}

	out = mustRun(t, dir, "search", "quantum computing")
	if !strings.Contains(out, "没有找到相关记录") {
		t.Errorf("empty search output = %q", out)
	}

	out = mustRun(t, dir, "search", "--tag", "长期", "--json")
	if !strings.Contains(out, `"count": 1`) {
		t.Errorf("json search output = %q", out)
	}

	out = mustRun(t, dir, "tags")
	if !strings.Contains(out, "人生") || !strings.Contains(out, "长期") {
		t.Errorf("tags output = %q", out)
	}

	out = mustRun(t, dir, "stats")
	if !strings.Contains(out, "total:    2") || !strings.Contains(out, "goal") {
		t.Errorf("stats output = %q", out)
	}
}

func TestAdd_AutoClassify(t *testing.T) {
	out := mustRun(t, t.TempDir(), "add", "--title", "我意识到", "--content", "我发现早起后专注力更好", "--auto")
	if !strings.Contains(out, "category suggested:") {
		t.Errorf("add output = %q", out)
	}
}

func TestAdd_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, dir, "add", "--content", "no title"); err == nil {
		t.Error("expected error for missing --title")
	}
	if _, err := runCLI(t, dir, "add", "--title", "t", "--content", "c", "--category", "bogus"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := runCLI(t, dir, "add", "--title", "t", "--content", "c", "--category", "plan", "--importance", "9"); err == nil {
		t.Error("expected error for importance out of range")
	}
	if _, err := runCLI(t, dir, "add", "--title", "t", "--content", "c", "--category", "plan", "--importance", "0"); err == nil {
		t.Error("expected error for explicit --importance 0")
	}
	if _, err := runCLI(t, dir, "search", "--limit", "0"); err == nil {
		t.Error("expected error for explicit --limit 0")
	}
}

func TestSeed_Repeatable(t *testing.T) {
	dir := t.TempDir()

	first := mustRun(t, dir, "seed")
	if strings.HasPrefix(first, "created 0,") {
		t.Fatalf("first seed created nothing: %q", first)
	}
	second := mustRun(t, dir, "seed")
	if !strings.HasPrefix(second, "created 0,") {
		t.Errorf("second seed output = %q", second)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "config", "init")
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("init output = %q", out)
	}

	_, err := runCLI(t, dir, "config", "init")
	if !errors.Is(err, config.ErrExists) {
		t.Errorf("second init err = %v, want ErrExists", err)
	}

	out = mustRun(t, dir, "config", "show")
	if !strings.Contains(out, "algorithm: tfidf") || !strings.Contains(out, filepath.Join(dir, "data")) {
		t.Errorf("show output = %q", out)
	}
}
