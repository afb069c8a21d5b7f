// Package config loads and validates snapshot service configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	State     StateConfig     `mapstructure:"state"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// InputConfig locates the URL list consumed by a run.
type InputConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig sets the artifact tree root. Screenshot, HTML, text, and
// document subdirectories hang off this directory.
type OutputConfig struct {
	Root string `mapstructure:"root"`
}

// ProbeConfig governs content-type probes and document downloads. The user
// agent also identifies the headless browser during page captures.
type ProbeConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// RateLimitConfig paces outbound requests per host. An RPS of zero or less
// disables pacing.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// CaptureConfig controls the headless rendering subsystem.
type CaptureConfig struct {
	// DataDir is the persistent browser profile directory. Relative paths
	// resolve under the output root; empty means a throwaway profile.
	DataDir               string `mapstructure:"data_dir"`
	NavTimeoutSeconds     int    `mapstructure:"nav_timeout_seconds"`
	CaptureTimeoutSeconds int    `mapstructure:"capture_timeout_seconds"`
}

// StateConfig selects and configures the index and ledger backend.
type StateConfig struct {
	// Backend is one of "file", "postgres", or "memory".
	Backend string `mapstructure:"backend"`
	// IndexPath and FailuresPath apply to the file backend. Relative paths
	// resolve under the output root.
	IndexPath     string `mapstructure:"index_path"`
	FailuresPath  string `mapstructure:"failures_path"`
	DSN           string `mapstructure:"dsn"`
	IndexTable    string `mapstructure:"index_table"`
	FailuresTable string `mapstructure:"failures_table"`
	MaxConns      int32  `mapstructure:"max_conns"`
}

// MirrorConfig enables mirroring artifacts into a GCS bucket alongside the
// local tree.
type MirrorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for publish-subscribe capture notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	Port                  int  `mapstructure:"port"`
	RequestTimeoutSeconds int  `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. An empty path searches the
// usual config locations and falls back to defaults when nothing is found;
// a non-empty path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAGEVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pagevault/")
		v.AddConfigPath("$HOME/.pagevault")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
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
	v.SetDefault("input.path", "urls.json")
	v.SetDefault("output.root", "out")
	v.SetDefault("probe.user_agent", "pagevault-bot/0.1")
	v.SetDefault("probe.timeout_seconds", 15)
	v.SetDefault("probe.max_body_bytes", 32*1024*1024)
	v.SetDefault("probe.respect_robots", false)
	v.SetDefault("rate_limit.rps", 1.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("capture.data_dir", "data-dir")
	v.SetDefault("capture.nav_timeout_seconds", 5)
	v.SetDefault("capture.capture_timeout_seconds", 30)
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.index_path", "index.json")
	v.SetDefault("state.failures_path", "failed_urls.json")
	v.SetDefault("state.dsn", "")
	v.SetDefault("state.index_table", "snapshot_index")
	v.SetDefault("state.failures_table", "snapshot_failures")
	v.SetDefault("state.max_conns", 4)
	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.bucket", "")
	v.SetDefault("mirror.prefix", "snapshots")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input.path must be set")
	}
	if c.Output.Root == "" {
		return fmt.Errorf("output.root must be set")
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return fmt.Errorf("probe.timeout_seconds must be > 0")
	}
	if c.Capture.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("capture.nav_timeout_seconds must be > 0")
	}
	switch c.State.Backend {
	case "file", "memory":
	case "postgres":
		if c.State.DSN == "" {
			return fmt.Errorf("state.dsn must be set when state.backend is postgres")
		}
	default:
		return fmt.Errorf("state.backend must be one of file, postgres, memory")
	}
	if c.State.Backend == "file" && c.State.IndexPath == "" {
		return fmt.Errorf("state.index_path must be set when state.backend is file")
	}
	if c.Mirror.Enabled && c.Mirror.Bucket == "" {
		return fmt.Errorf("mirror.bucket must be set when mirror is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// ProbeTimeout converts the probe timeout into a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// NavigationTimeout bounds the navigate-until-DOM-parsed phase of a page
// capture.
func (c Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Capture.NavTimeoutSeconds) * time.Second
}

// CaptureTimeout bounds artifact extraction after the DOM is parsed.
func (c Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Capture.CaptureTimeoutSeconds) * time.Second
}

// RequestTimeout bounds a single operational API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// BrowserDataDir resolves the browser profile location, anchoring relative
// paths under the output root. Empty stays empty.
func (c Config) BrowserDataDir() string {
	return resolveUnder(c.Output.Root, c.Capture.DataDir)
}

// IndexFilePath resolves the index file location, anchoring relative paths
// under the output root.
func (c Config) IndexFilePath() string {
	return resolveUnder(c.Output.Root, c.State.IndexPath)
}

// FailuresFilePath resolves the failure ledger location, anchoring relative
// paths under the output root.
func (c Config) FailuresFilePath() string {
	return resolveUnder(c.Output.Root, c.State.FailuresPath)
}

func resolveUnder(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
