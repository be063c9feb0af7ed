// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
	Status  StatusConfig  `mapstructure:"status"`
	DB      DBConfig      `mapstructure:"db"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// SourceConfig points the harvester at the GraphQL endpoint.
type SourceConfig struct {
	APIURL              string `mapstructure:"api_url"`
	UserAgent           string `mapstructure:"user_agent"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
	ListTimeoutSeconds  int    `mapstructure:"list_timeout_seconds"`
}

// HarvestConfig governs the adaptive fetch controller and the filter stage.
type HarvestConfig struct {
	// Regions restricts the export to these top-level region names; empty
	// means everything.
	Regions []string `mapstructure:"regions"`
	// KnownLargeRegions always split without a whole-country attempt.
	KnownLargeRegions []string `mapstructure:"known_large_regions"`
	// MaxSplitDepth caps recursive subdivision; 1 reproduces single-level
	// splitting.
	MaxSplitDepth int `mapstructure:"max_split_depth"`
}

// ExportConfig controls the Parquet output.
type ExportConfig struct {
	Filename    string `mapstructure:"filename"`
	Compression string `mapstructure:"compression"`
	SchemaFile  string `mapstructure:"schema_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// StatusConfig controls the optional status sidecar server.
type StatusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DBConfig controls the optional run-history database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// StorageConfig controls where output artifacts are published.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// PubSubConfig controls run-completion event publication.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from disk/environment. An empty path skips the file
// and uses defaults plus environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.api_url", "https://api.openbeta.io/graphql")
	v.SetDefault("source.user_agent", "climb-harvester/1.0")
	v.SetDefault("source.fetch_timeout_seconds", 120)
	v.SetDefault("source.list_timeout_seconds", 30)
	v.SetDefault("harvest.regions", []string{})
	v.SetDefault("harvest.known_large_regions", []string{"USA"})
	v.SetDefault("harvest.max_split_depth", 1)
	v.SetDefault("export.filename", "openbeta-climbs.parquet")
	v.SetDefault("export.compression", "snappy")
	v.SetDefault("logging.development", true)
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.port", 8080)
	v.SetDefault("db.provider", "noop")
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("storage.prefix", "exports")
	v.SetDefault("pubsub.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.APIURL == "" {
		return fmt.Errorf("source.api_url must be set")
	}
	if c.Source.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("source.fetch_timeout_seconds must be > 0")
	}
	if c.Source.ListTimeoutSeconds <= 0 {
		return fmt.Errorf("source.list_timeout_seconds must be > 0")
	}
	if c.Harvest.MaxSplitDepth <= 0 {
		return fmt.Errorf("harvest.max_split_depth must be > 0")
	}
	if c.Export.Filename == "" {
		return fmt.Errorf("export.filename must be set")
	}
	if c.Status.Enabled && c.Status.Port <= 0 {
		return fmt.Errorf("status.port must be > 0 when status is enabled")
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Storage.Provider == "gcs" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket must be set when storage.provider is gcs")
	}
	if c.Storage.Provider == "local" && c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir must be set when storage.provider is local")
	}
	if c.PubSub.Provider == "pubsub" && (c.PubSub.ProjectID == "" || c.PubSub.TopicID == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_id must be set when pubsub.provider is pubsub")
	}
	return nil
}

// FetchTimeout returns the bounded-region deadline.
func (c SourceConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// ListTimeout returns the enumeration deadline.
func (c SourceConfig) ListTimeout() time.Duration {
	return time.Duration(c.ListTimeoutSeconds) * time.Second
}
