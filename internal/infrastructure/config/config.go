package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/chatsrt/internal/adapters/otel"
	"github.com/emiliopalmerini/chatsrt/internal/subtitle"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

// Subtitle holds cue timing configuration.
type Subtitle struct {
	MaxDurationUsec int64 `envconfig:"CHATSRT_MAX_DURATION_USEC" default:"10000000"`
}

// Logging holds log handler configuration.
type Logging struct {
	Level  string `envconfig:"CHATSRT_LOG_LEVEL" default:"info"`
	Format string `envconfig:"CHATSRT_LOG_FORMAT" default:"text"`
}

// History holds conversion history store configuration. An empty URL
// resolves to a database file in the data directory.
type History struct {
	Enabled     bool   `envconfig:"CHATSRT_HISTORY_ENABLED" default:"true"`
	URL         string `envconfig:"CHATSRT_DATABASE_URL"`
	AuthToken   string `envconfig:"CHATSRT_AUTH_TOKEN"`
	ReplicaPath string `envconfig:"CHATSRT_REPLICA_PATH"`
}

// Archive holds chat log archive configuration. Backend is "file" or "db".
type Archive struct {
	Enabled bool   `envconfig:"CHATSRT_ARCHIVE_ENABLED" default:"false"`
	Backend string `envconfig:"CHATSRT_ARCHIVE_BACKEND" default:"file"`
	Dir     string `envconfig:"CHATSRT_ARCHIVE_DIR"`
}

// Config holds the configuration of the chatsrt CLI.
type Config struct {
	Subtitle Subtitle
	Logging  Logging
	History  History
	Archive  Archive
	OTEL     otel.Config
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given, without overriding the environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	sections := []any{&cfg.Subtitle, &cfg.Logging, &cfg.History, &cfg.Archive, &cfg.OTEL}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, err
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths() error {
	if c.History.URL != "" && (!c.Archive.Enabled || c.Archive.Dir != "") {
		return nil
	}

	dbPath, err := util.DataPath(util.AppName + ".db")
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if c.History.URL == "" {
		c.History.URL = "file:" + dbPath
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = filepath.Join(filepath.Dir(dbPath), "archive")
	}
	return nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.Subtitle.MaxDurationUsec <= 0 {
		return fmt.Errorf("CHATSRT_MAX_DURATION_USEC must be positive, got %d", c.Subtitle.MaxDurationUsec)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("CHATSRT_LOG_FORMAT must be text or json, got %q", c.Logging.Format)
	}

	switch c.Archive.Backend {
	case "file", "db":
	default:
		return fmt.Errorf("CHATSRT_ARCHIVE_BACKEND must be file or db, got %q", c.Archive.Backend)
	}
	if c.Archive.Enabled && c.Archive.Backend == "db" && !c.History.Enabled {
		return fmt.Errorf("CHATSRT_ARCHIVE_BACKEND=db requires the history store to be enabled")
	}
	return nil
}

// Timing returns cue timing anchored at first.
func (c *Config) Timing(first int64) subtitle.Timing {
	return subtitle.Timing{First: first, MaxDuration: c.Subtitle.MaxDurationUsec}
}
