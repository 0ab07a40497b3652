package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"reelgen/internal/config"
)

func writeConfig(t *testing.T, dir string, cfg any) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "reelgen.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(dir, config.DefaultFileName) {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Engine.Backend != config.BackendSubprocess {
		t.Fatalf("unexpected backend %q", cfg.Engine.Backend)
	}
	if cfg.Assets.BackgroundVideo != filepath.Join(dir, "public", "assets", "background.mp4") {
		t.Fatalf("expected asset path resolved against cwd, got %q", cfg.Assets.BackgroundVideo)
	}
	if cfg.Engine.Script != filepath.Join(dir, "python", "generate_video.py") {
		t.Fatalf("unexpected script path %q", cfg.Engine.Script)
	}
	if cfg.Gap() != time.Second {
		t.Fatalf("expected 1s gap, got %s", cfg.Gap())
	}
	if cfg.EngineTimeout() != 0 {
		t.Fatalf("expected no engine timeout by default, got %s", cfg.EngineTimeout())
	}
	if cfg.Demo.Text != "Hello World" || !strings.HasPrefix(cfg.Demo.ImageURL, "https://") {
		t.Fatalf("unexpected demo defaults: %+v", cfg.Demo)
	}
	if cfg.Scratch.Dir == "" {
		t.Fatal("expected scratch dir to default to the system temp dir")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	custom := config.Default()
	custom.Engine.Executable = "python3"
	custom.Engine.Script = filepath.Join(dir, "render.py")
	custom.Engine.TimeoutSeconds = 90
	custom.Assets.GapSeconds = 0.5
	custom.Assets.Color = "yellow"
	custom.Logging.Format = "TEXT"
	path := writeConfig(t, dir, custom)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file %s to be used, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Engine.Executable != "python3" {
		t.Fatalf("bare executable must stay unresolved, got %q", cfg.Engine.Executable)
	}
	if cfg.EngineTimeout() != 90*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.EngineTimeout())
	}
	if cfg.Gap() != 500*time.Millisecond {
		t.Fatalf("unexpected gap %s", cfg.Gap())
	}
	if cfg.Assets.Color != "yellow" {
		t.Fatalf("unexpected color %q", cfg.Assets.Color)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, config.Default())

	t.Setenv("RENDER_ENGINE_EXECUTABLE", "/usr/bin/python3")
	t.Setenv("RENDER_TIMEOUT_SECONDS", "15")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/reelgen")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("LOG_SOURCE", "true")
	t.Setenv("FETCH_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.Executable != "/usr/bin/python3" {
		t.Fatalf("unexpected executable %q", cfg.Engine.Executable)
	}
	if cfg.EngineTimeout() != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.EngineTimeout())
	}
	if cfg.HTTP.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "postgres://localhost/reelgen" {
		t.Fatalf("unexpected database url %q", cfg.Database.URL)
	}
	if !cfg.Fetch.AllowPrivateNetworks {
		t.Fatal("expected private networks to be allowed")
	}
	if len(cfg.HTTP.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.HTTP.CORSAllowedOrigins)
	}
	if !cfg.Logging.AddSource {
		t.Fatal("expected LOG_SOURCE to enable source")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelgen.toml")
	if err := os.WriteFile(path, []byte("[engine]\nbinary = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults are valid", func(*config.Config) {}, ""},
		{"unknown backend", func(c *config.Config) { c.Engine.Backend = "grpc" }, "engine.backend"},
		{"subprocess without script", func(c *config.Config) { c.Engine.Script = "" }, "engine.script"},
		{"http without url", func(c *config.Config) { c.Engine.Backend = config.BackendHTTP }, "engine.http_base_url"},
		{"http with url", func(c *config.Config) {
			c.Engine.Backend = config.BackendHTTP
			c.Engine.HTTPBaseURL = "http://renderer:8000"
		}, ""},
		{"negative timeout", func(c *config.Config) { c.Engine.TimeoutSeconds = -1 }, "timeout_seconds"},
		{"negative gap", func(c *config.Config) { c.Assets.GapSeconds = -1 }, "gap_seconds"},
		{"zero font size", func(c *config.Config) { c.Assets.FontSize = 0 }, "font_size"},
		{"zero fetch cap", func(c *config.Config) { c.Fetch.MaxBytes = 0 }, "max_bytes"},
		{"gdrive without credentials", func(c *config.Config) { c.Storage.Provider = config.ProviderGDrive }, "gdrive"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
