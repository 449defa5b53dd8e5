package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides.
const envPrefix = "LUMEN"

// dotEnvFile is read from the working directory when present.
var dotEnvFile = ".env"

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path or a missing file leaves the file layer
// out. The result is validated.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading %s: %w", dotEnvFile, err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("scan.max_entries", d.Scan.MaxEntries)
	v.SetDefault("similarity.algorithm", d.Similarity.Algorithm)
	v.SetDefault("duplicates.threshold", d.Duplicates.Threshold)
	v.SetDefault("sync.webhook_url", d.Sync.WebhookURL)
	v.SetDefault("sync.timeout", d.Sync.Timeout)
	v.SetDefault("sync.write_timeout", d.Sync.WriteTimeout)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("log.level", d.Log.Level)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
