package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned by WriteDefault when the target file is present.
var ErrExists = errors.New("config: file already exists")

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxResults:   50,
		},
		Scan:       ScanConfig{MaxEntries: 1000},
		Similarity: SimilarityConfig{Algorithm: "tfidf"},
		Duplicates: DuplicatesConfig{Threshold: 0.8},
		Sync:       SyncConfig{Timeout: "10s", WriteTimeout: "2s"},
		Cache:      CacheConfig{MaxEntries: 1024},
		HTTP:       HTTPConfig{Addr: "127.0.0.1:7420"},
		Log:        LogConfig{Level: "info"},
	}
}

// DefaultDataDir returns ~/.lumen.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lumen")
}

// DefaultPath returns ~/.lumen/config.yaml.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// WriteDefault writes the default configuration as YAML. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("config: marshal defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}

	header := []byte("# Lumen configuration. Every key can be overridden by LUMEN_<SECTION>_<KEY>.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
