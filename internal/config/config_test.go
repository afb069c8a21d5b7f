package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
input:
  path: /data/urls.json
output:
  root: /data/snapshots
probe:
  user_agent: snapshot-agent
  timeout_seconds: 45
  max_body_bytes: 1048576
  respect_robots: true
rate_limit:
  rps: 2.5
  burst: 3
capture:
  data_dir: /var/lib/pagevault/profile
  nav_timeout_seconds: 8
  capture_timeout_seconds: 20
state:
  backend: postgres
  dsn: postgres://snapshots
  max_conns: 8
mirror:
  enabled: true
  bucket: snapshot-artifacts
  prefix: prod
pubsub:
  enabled: true
  project_id: proj
  topic_name: captures
server:
  enabled: true
  port: 9090
auth:
  enabled: true
  api_key: secret
logging:
  development: false
  level: warn
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.Path != "/data/urls.json" {
		t.Fatalf("expected input path override, got %q", cfg.Input.Path)
	}
	if cfg.Probe.UserAgent != "snapshot-agent" || !cfg.Probe.RespectRobots {
		t.Fatalf("expected probe overrides to apply: %+v", cfg.Probe)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 3 {
		t.Fatalf("expected rate limit overrides to apply: %+v", cfg.RateLimit)
	}
	if cfg.State.Backend != "postgres" || cfg.State.DSN != "postgres://snapshots" {
		t.Fatalf("expected postgres state backend: %+v", cfg.State)
	}
	if !cfg.Mirror.Enabled || cfg.Mirror.Bucket != "snapshot-artifacts" {
		t.Fatalf("expected mirror overrides to apply: %+v", cfg.Mirror)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9090 {
		t.Fatalf("expected server overrides to apply: %+v", cfg.Server)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if got := cfg.ProbeTimeout(); got != 45*time.Second {
		t.Fatalf("expected probe timeout 45s, got %v", got)
	}
	if got := cfg.NavigationTimeout(); got != 8*time.Second {
		t.Fatalf("expected navigation timeout 8s, got %v", got)
	}
	// Defaults survive for sections the file does not touch.
	if cfg.State.IndexTable != "snapshot_index" {
		t.Fatalf("expected default index table, got %q", cfg.State.IndexTable)
	}
}

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no ambient config.yaml is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Input.Path != "urls.json" {
		t.Fatalf("expected default input path, got %q", cfg.Input.Path)
	}
	if cfg.State.Backend != "file" {
		t.Fatalf("expected file state backend, got %q", cfg.State.Backend)
	}
	if cfg.Capture.NavTimeoutSeconds != 5 {
		t.Fatalf("expected 5s navigation deadline, got %d", cfg.Capture.NavTimeoutSeconds)
	}
	if got := cfg.BrowserDataDir(); got != filepath.Join("out", "data-dir") {
		t.Fatalf("expected browser profile under output root, got %q", got)
	}
	if cfg.Server.Enabled {
		t.Fatal("expected server disabled by default")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAGEVAULT_PROBE_USER_AGENT", "env-agent/1.0")
	t.Setenv("PAGEVAULT_STATE_BACKEND", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Probe.UserAgent != "env-agent/1.0" {
		t.Fatalf("expected env user agent, got %q", cfg.Probe.UserAgent)
	}
	if cfg.State.Backend != "memory" {
		t.Fatalf("expected env state backend, got %q", cfg.State.Backend)
	}
}

func TestStatePathsResolveUnderOutputRoot(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Output:  OutputConfig{Root: "/data/out"},
		Capture: CaptureConfig{DataDir: "data-dir"},
		State: StateConfig{
			IndexPath:    "index.json",
			FailuresPath: "/var/state/failed_urls.json",
		},
	}

	if got := cfg.IndexFilePath(); got != filepath.Join("/data/out", "index.json") {
		t.Fatalf("expected relative index path under root, got %q", got)
	}
	if got := cfg.FailuresFilePath(); got != "/var/state/failed_urls.json" {
		t.Fatalf("expected absolute failures path untouched, got %q", got)
	}
	if got := cfg.BrowserDataDir(); got != filepath.Join("/data/out", "data-dir") {
		t.Fatalf("expected relative data dir under root, got %q", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Input:   InputConfig{Path: "urls.json"},
		Output:  OutputConfig{Root: "out"},
		Probe:   ProbeConfig{TimeoutSeconds: 10},
		Capture: CaptureConfig{NavTimeoutSeconds: 5},
		State:   StateConfig{Backend: "file", IndexPath: "index.json"},
		Server:  ServerConfig{Port: 8080},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "missing input path",
			cfg: func() Config {
				c := base
				c.Input.Path = ""
				return c
			}(),
			want: "input.path",
		},
		{
			name: "missing output root",
			cfg: func() Config {
				c := base
				c.Output.Root = ""
				return c
			}(),
			want: "output.root",
		},
		{
			name: "invalid probe timeout",
			cfg: func() Config {
				c := base
				c.Probe.TimeoutSeconds = 0
				return c
			}(),
			want: "probe.timeout_seconds",
		},
		{
			name: "invalid nav timeout",
			cfg: func() Config {
				c := base
				c.Capture.NavTimeoutSeconds = 0
				return c
			}(),
			want: "capture.nav_timeout_seconds",
		},
		{
			name: "unknown state backend",
			cfg: func() Config {
				c := base
				c.State.Backend = "redis"
				return c
			}(),
			want: "state.backend",
		},
		{
			name: "postgres missing dsn",
			cfg: func() Config {
				c := base
				c.State.Backend = "postgres"
				c.State.DSN = ""
				return c
			}(),
			want: "state.dsn",
		},
		{
			name: "mirror missing bucket",
			cfg: func() Config {
				c := base
				c.Mirror.Enabled = true
				return c
			}(),
			want: "mirror.bucket",
		},
		{
			name: "pubsub missing topic",
			cfg: func() Config {
				c := base
				c.PubSub.Enabled = true
				c.PubSub.ProjectID = "proj"
				return c
			}(),
			want: "pubsub.project_id and pubsub.topic_name",
		},
		{
			name: "server enabled invalid port",
			cfg: func() Config {
				c := base
				c.Server.Enabled = true
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
