package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when Load gets no path.
const DefaultFileName = "reelgen.toml"

// Engine describes how the render engine is reached.
type Engine struct {
	Backend        string   `toml:"backend"`
	Executable     string   `toml:"executable"`
	Script         string   `toml:"script"`
	Args           []string `toml:"args"`
	WorkDir        string   `toml:"work_dir"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	HTTPBaseURL    string   `toml:"http_base_url"`
}

// Assets lists the static media and styling every job references.
type Assets struct {
	BackgroundVideo string  `toml:"background_video"`
	BackgroundAudio string  `toml:"background_audio"`
	Voice           string  `toml:"voice"`
	Font            string  `toml:"font"`
	FontSize        int     `toml:"font_size"`
	Color           string  `toml:"color"`
	GapSeconds      float64 `toml:"gap_seconds"`
}

// Demo is the content of the default plan used when a request brings none.
type Demo struct {
	Text     string `toml:"text"`
	ImageURL string `toml:"image_url"`
}

// Fetch controls remote asset downloads.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBytes       int64  `toml:"max_bytes"`
	UserAgent      string `toml:"user_agent"`
	// AllowPrivateNetworks lets plans reference images on loopback, private
	// and link-local hosts. Off by default.
	AllowPrivateNetworks bool `toml:"allow_private_networks"`
}

// Scratch sets where per-job temporary files are created.
type Scratch struct {
	Dir string `toml:"dir"`
}

// HTTP configures the API server.
type HTTP struct {
	Port               string   `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	GenerateRateLimit  int      `toml:"generate_rate_limit"`
	RequestTimeout     int      `toml:"request_timeout_seconds"`
}

// Storage selects where published videos are kept.
type Storage struct {
	Provider           string `toml:"provider"`
	LocalRoot          string `toml:"local_root"`
	GDriveClientID     string `toml:"gdrive_client_id"`
	GDriveClientSecret string `toml:"gdrive_client_secret"`
	GDriveRefreshToken string `toml:"gdrive_refresh_token"`
	GDriveFolderID     string `toml:"gdrive_folder_id"`
}

// Database holds the optional PostgreSQL connection used for video records.
type Database struct {
	URL string `toml:"url"`
}

// Logging configures the slog handler.
type Logging struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	AddSource bool   `toml:"add_source"`
}

// Config is the full reelgen configuration.
type Config struct {
	Engine   Engine   `toml:"engine"`
	Assets   Assets   `toml:"assets"`
	Demo     Demo     `toml:"demo"`
	Fetch    Fetch    `toml:"fetch"`
	Scratch  Scratch  `toml:"scratch"`
	HTTP     HTTP     `toml:"http"`
	Storage  Storage  `toml:"storage"`
	Database Database `toml:"database"`
	Logging  Logging  `toml:"logging"`
}

// Load locates, parses and validates a configuration file. A missing file is
// not an error: defaults and environment overrides still apply. It returns the
// resolved path and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// EngineTimeout returns the render wall-clock limit; zero means none.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Gap returns the pause inserted between clips.
func (c *Config) Gap() time.Duration {
	return time.Duration(c.Assets.GapSeconds * float64(time.Second))
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFileName
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
