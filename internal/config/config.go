// Package config loads Lumen's settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// LUMEN_* environment variables (a .env file in the working directory is
// read into the environment first). Nested keys map to env vars by
// upper-casing and replacing dots, so search.max_results is
// LUMEN_SEARCH_MAX_RESULTS.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/lumen/internal/memory"
	"github.com/HendryAvila/lumen/internal/similarity"
)

// Config is the full Lumen configuration.
type Config struct {
	// DataDir holds memory.db, entries/ and projects/. A leading ~ is
	// expanded to the home directory.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Scan       ScanConfig       `yaml:"scan" mapstructure:"scan"`
	Similarity SimilarityConfig `yaml:"similarity" mapstructure:"similarity"`
	Duplicates DuplicatesConfig `yaml:"duplicates" mapstructure:"duplicates"`
	Sync       SyncConfig       `yaml:"sync" mapstructure:"sync"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SearchConfig bounds search result sizes.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
	MaxResults   int `yaml:"max_results" mapstructure:"max_results"`
}

// ScanConfig bounds the entries loaded for detector scans.
type ScanConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// SimilarityConfig selects the similarity algorithm: tfidf or jaccard.
type SimilarityConfig struct {
	Algorithm string `yaml:"algorithm" mapstructure:"algorithm"`
}

// DuplicatesConfig sets the default duplicate threshold.
type DuplicatesConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// SyncConfig configures the sync notifier. An empty WebhookURL keeps
// notifications in the log only.
type SyncConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	// Timeout is a Go duration string such as "10s". It bounds one delivery
	// during memory_sync.
	Timeout string `yaml:"timeout" mapstructure:"timeout"`
	// WriteTimeout bounds the delivery made inline with every add and
	// update, so a slow webhook only delays a write by this much.
	WriteTimeout string `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// CacheConfig bounds the entry document cache. Zero disables it.
type CacheConfig struct {
	MaxEntries int64 `yaml:"max_entries" mapstructure:"max_entries"`
}

// HTTPConfig configures `lumen http`.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// ─── Derived values ──────────────────────────────────────────────────────────

// Validate checks value ranges and parseable fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("config: search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("config: search.max_results (%d) is below search.default_limit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Scan.MaxEntries <= 0 {
		return fmt.Errorf("config: scan.max_entries must be positive, got %d", c.Scan.MaxEntries)
	}
	switch similarity.Algorithm(strings.ToLower(c.Similarity.Algorithm)) {
	case similarity.TFIDF, similarity.Jaccard:
	default:
		return fmt.Errorf("config: similarity.algorithm %q is not tfidf or jaccard", c.Similarity.Algorithm)
	}
	if c.Duplicates.Threshold <= 0 || c.Duplicates.Threshold > 1 {
		return fmt.Errorf("config: duplicates.threshold must be within (0, 1], got %v", c.Duplicates.Threshold)
	}
	if _, err := c.SyncTimeout(); err != nil {
		return err
	}
	if _, err := c.SyncWriteTimeout(); err != nil {
		return err
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("config: cache.max_entries must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// SyncTimeout parses Sync.Timeout.
func (c *Config) SyncTimeout() (time.Duration, error) {
	return positiveDuration("sync.timeout", c.Sync.Timeout)
}

// SyncWriteTimeout parses Sync.WriteTimeout.
func (c *Config) SyncWriteTimeout() (time.Duration, error) {
	return positiveDuration("sync.write_timeout", c.Sync.WriteTimeout)
}

func positiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, d)
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return lvl, nil
}

// Algorithm returns the configured similarity algorithm.
func (c *Config) Algorithm() similarity.Algorithm {
	return similarity.ParseAlgorithm(c.Similarity.Algorithm)
}

// ToMemoryConfig maps the store settings onto memory.Config.
func (c *Config) ToMemoryConfig(logger *log.Logger) memory.Config {
	return memory.Config{
		DataDir:            c.DataDir,
		DefaultSearchLimit: c.Search.DefaultLimit,
		MaxSearchResults:   c.Search.MaxResults,
		MaxScanEntries:     c.Scan.MaxEntries,
		CacheEntries:       c.Cache.MaxEntries,
		Logger:             logger,
	}
}
