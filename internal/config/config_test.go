package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/lumen/internal/similarity"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// ─── Defaults ────────────────────────────────────────────────────────────────

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.DefaultLimit != 5 || cfg.Search.MaxResults != 50 {
		t.Errorf("Search = %+v, want 5/50", cfg.Search)
	}
	if cfg.Scan.MaxEntries != 1000 {
		t.Errorf("Scan.MaxEntries = %d, want 1000", cfg.Scan.MaxEntries)
	}
	if cfg.Duplicates.Threshold != 0.8 {
		t.Errorf("Duplicates.Threshold = %v, want 0.8", cfg.Duplicates.Threshold)
	}
	if cfg.Algorithm() != similarity.TFIDF {
		t.Errorf("Algorithm = %q, want tfidf", cfg.Algorithm())
	}
	if filepath.Base(cfg.DataDir) != ".lumen" {
		t.Errorf("DataDir = %s, want ~/.lumen", cfg.DataDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.MaxResults != 50 || cfg.Log.Level != "info" {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Sync.Timeout != "10s" {
		t.Errorf("Sync.Timeout = %q, want 10s", cfg.Sync.Timeout)
	}
}

// ─── Precedence ──────────────────────────────────────────────────────────────

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeYAML(t, `
data_dir: `+dataDir+`
search:
  max_results: 30
similarity:
  algorithm: jaccard
sync:
  webhook_url: http://localhost:9000/hook
  timeout: 3s
  write_timeout: 500ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, dataDir)
	}
	if cfg.Search.MaxResults != 30 {
		t.Errorf("MaxResults = %d, want 30", cfg.Search.MaxResults)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("DefaultLimit = %d, want default 5", cfg.Search.DefaultLimit)
	}
	if cfg.Algorithm() != similarity.Jaccard {
		t.Errorf("Algorithm = %q, want jaccard", cfg.Algorithm())
	}
	if cfg.Sync.WebhookURL != "http://localhost:9000/hook" {
		t.Errorf("WebhookURL = %q", cfg.Sync.WebhookURL)
	}
	if d, _ := cfg.SyncTimeout(); d != 3*time.Second {
		t.Errorf("SyncTimeout = %s, want 3s", d)
	}
	if d, _ := cfg.SyncWriteTimeout(); d != 500*time.Millisecond {
		t.Errorf("SyncWriteTimeout = %s, want 500ms", d)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "search:\n  max_results: 30\nduplicates:\n  threshold: 0.7\n")
	t.Setenv("LUMEN_SEARCH_MAX_RESULTS", "20")
	t.Setenv("LUMEN_DUPLICATES_THRESHOLD", "0.9")
	t.Setenv("LUMEN_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.MaxResults != 20 {
		t.Errorf("MaxResults = %d, want 20 from env", cfg.Search.MaxResults)
	}
	if cfg.Duplicates.Threshold != 0.9 {
		t.Errorf("Threshold = %v, want 0.9 from env", cfg.Duplicates.Threshold)
	}
	if lvl, _ := cfg.LogLevel(); lvl != log.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", lvl)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("LUMEN_HTTP_ADDR=0.0.0.0:9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := dotEnvFile
	dotEnvFile = envFile
	t.Cleanup(func() {
		dotEnvFile = old
		os.Unsetenv("LUMEN_HTTP_ADDR")
	})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != "0.0.0.0:9999" {
		t.Errorf("HTTP.Addr = %q, want value from .env", cfg.HTTP.Addr)
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	t.Setenv("LUMEN_DATA_DIR", "~/notes")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	home, _ := os.UserHomeDir()
	if cfg.DataDir != filepath.Join(home, "notes") {
		t.Errorf("DataDir = %s", cfg.DataDir)
	}
}

// ─── Validation ──────────────────────────────────────────────────────────────

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"limit", "search:\n  default_limit: 0\n", "search.default_limit"},
		{"max below default", "search:\n  default_limit: 10\n  max_results: 5\n", "search.max_results"},
		{"algorithm", "similarity:\n  algorithm: bm25\n", "similarity.algorithm"},
		{"threshold", "duplicates:\n  threshold: 1.5\n", "duplicates.threshold"},
		{"timeout", "sync:\n  timeout: soon\n", "sync.timeout"},
		{"write timeout", "sync:\n  write_timeout: 0s\n", "sync.write_timeout"},
		{"level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := Load(writeYAML(t, "search: [unclosed\n")); err == nil {
		t.Fatal("expected a parse error")
	}
}

// ─── WriteDefault ────────────────────────────────────────────────────────────

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load written file: %v", err)
	}
	def := DefaultConfig()
	if *cfg != *def {
		t.Errorf("round trip differs:\n got %+v\nwant %+v", cfg, def)
	}

	if err := WriteDefault(path); !errors.Is(err, ErrExists) {
		t.Errorf("second write: expected ErrExists, got %v", err)
	}
}

func TestToMemoryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/tmp/lumen"
	cfg.Cache.MaxEntries = 0

	mc := cfg.ToMemoryConfig(nil)
	if mc.DataDir != "/tmp/lumen" || mc.MaxSearchResults != 50 || mc.MaxScanEntries != 1000 || mc.CacheEntries != 0 {
		t.Errorf("memory config = %+v", mc)
	}
}
