package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://api.openbeta.io/graphql", cfg.Source.APIURL)
	require.Equal(t, "climb-harvester/1.0", cfg.Source.UserAgent)
	require.Equal(t, 120*time.Second, cfg.Source.FetchTimeout())
	require.Equal(t, 30*time.Second, cfg.Source.ListTimeout())
	require.Empty(t, cfg.Harvest.Regions)
	require.Equal(t, []string{"USA"}, cfg.Harvest.KnownLargeRegions)
	require.Equal(t, 1, cfg.Harvest.MaxSplitDepth)
	require.Equal(t, "openbeta-climbs.parquet", cfg.Export.Filename)
	require.Equal(t, "snappy", cfg.Export.Compression)
	require.True(t, cfg.Logging.Development)
	require.False(t, cfg.Status.Enabled)
	require.Equal(t, "noop", cfg.DB.Provider)
	require.Equal(t, "noop", cfg.Storage.Provider)
	require.Equal(t, "exports", cfg.Storage.Prefix)
	require.Equal(t, "noop", cfg.PubSub.Provider)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
source:
  fetch_timeout_seconds: 60
harvest:
  regions:
    - USA
    - Canada
  max_split_depth: 2
export:
  compression: zstd
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, cfg.Source.FetchTimeout())
	require.Equal(t, []string{"USA", "Canada"}, cfg.Harvest.Regions)
	require.Equal(t, 2, cfg.Harvest.MaxSplitDepth)
	require.Equal(t, "zstd", cfg.Export.Compression)
	// Untouched sections keep their defaults.
	require.Equal(t, "https://api.openbeta.io/graphql", cfg.Source.APIURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api url", func(c *Config) { c.Source.APIURL = "" }},
		{"zero fetch timeout", func(c *Config) { c.Source.FetchTimeoutSeconds = 0 }},
		{"zero list timeout", func(c *Config) { c.Source.ListTimeoutSeconds = 0 }},
		{"zero split depth", func(c *Config) { c.Harvest.MaxSplitDepth = 0 }},
		{"missing filename", func(c *Config) { c.Export.Filename = "" }},
		{"status enabled without port", func(c *Config) {
			c.Status.Enabled = true
			c.Status.Port = 0
		}},
		{"postgres without dsn", func(c *Config) { c.DB.Provider = "postgres" }},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs" }},
		{"local without base dir", func(c *Config) { c.Storage.Provider = "local" }},
		{"pubsub without topic", func(c *Config) {
			c.PubSub.Provider = "pubsub"
			c.PubSub.ProjectID = "proj"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
