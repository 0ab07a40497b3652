package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. It does not check that asset
// files exist; that happens when a job is invoked.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if c.HTTP.GenerateRateLimit < 0 {
		return errors.New("http.generate_rate_limit must be >= 0")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.TimeoutSeconds < 0 {
		return errors.New("engine.timeout_seconds must be >= 0")
	}
	switch c.Engine.Backend {
	case BackendSubprocess:
		if c.Engine.Executable == "" {
			return errors.New("engine.executable must be set for the subprocess backend")
		}
		if c.Engine.Script == "" {
			return errors.New("engine.script must be set for the subprocess backend")
		}
	case BackendHTTP:
		u, err := url.Parse(c.Engine.HTTPBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("engine.http_base_url must be an http(s) URL, got %q", c.Engine.HTTPBaseURL)
		}
	default:
		return fmt.Errorf("engine.backend must be %q or %q, got %q", BackendSubprocess, BackendHTTP, c.Engine.Backend)
	}
	return nil
}

func (c *Config) validateAssets() error {
	if c.Assets.BackgroundVideo == "" || c.Assets.BackgroundAudio == "" {
		return errors.New("assets.background_video and assets.background_audio must be set")
	}
	if c.Assets.Voice == "" {
		return errors.New("assets.voice must be set")
	}
	if c.Assets.Font == "" {
		return errors.New("assets.font must be set")
	}
	if c.Assets.FontSize <= 0 {
		return errors.New("assets.font_size must be positive")
	}
	if c.Assets.Color == "" {
		return errors.New("assets.color must be set")
	}
	if c.Assets.GapSeconds < 0 {
		return errors.New("assets.gap_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Provider {
	case ProviderLocalFS:
		if c.Storage.LocalRoot == "" {
			return errors.New("storage.local_root must be set for the localfs provider")
		}
	case ProviderGDrive:
		if c.Storage.GDriveClientID == "" || c.Storage.GDriveClientSecret == "" || c.Storage.GDriveRefreshToken == "" {
			return errors.New("gdrive storage requires client id, client secret and refresh token")
		}
	default:
		return fmt.Errorf("storage.provider must be %q or %q, got %q", ProviderLocalFS, ProviderGDrive, c.Storage.Provider)
	}
	return nil
}
