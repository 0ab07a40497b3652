package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	if err := c.normalizeAssets(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Scratch.Dir) == "" {
		c.Scratch.Dir = os.TempDir()
	}
	var err error
	if c.Scratch.Dir, err = expandPath(c.Scratch.Dir); err != nil {
		return fmt.Errorf("scratch.dir: %w", err)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Demo.Text = strings.TrimSpace(c.Demo.Text)
	c.Demo.ImageURL = strings.TrimSpace(c.Demo.ImageURL)
	return nil
}

func (c *Config) normalizeEngine() error {
	c.Engine.Backend = strings.ToLower(strings.TrimSpace(c.Engine.Backend))
	c.Engine.HTTPBaseURL = strings.TrimRight(strings.TrimSpace(c.Engine.HTTPBaseURL), "/")

	var err error
	// A bare executable name is resolved through PATH at launch time.
	if strings.ContainsRune(c.Engine.Executable, filepath.Separator) || strings.HasPrefix(c.Engine.Executable, "~") {
		if c.Engine.Executable, err = expandPath(c.Engine.Executable); err != nil {
			return fmt.Errorf("engine.executable: %w", err)
		}
	}
	if c.Engine.Script, err = expandPath(c.Engine.Script); err != nil {
		return fmt.Errorf("engine.script: %w", err)
	}
	if c.Engine.WorkDir, err = expandPath(c.Engine.WorkDir); err != nil {
		return fmt.Errorf("engine.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssets() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"assets.background_video", &c.Assets.BackgroundVideo},
		{"assets.background_audio", &c.Assets.BackgroundAudio},
		{"assets.voice", &c.Assets.Voice},
		{"assets.font", &c.Assets.Font},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	c.Assets.Color = strings.TrimSpace(c.Assets.Color)
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Provider = strings.ToLower(strings.TrimSpace(c.Storage.Provider))
	var err error
	if c.Storage.LocalRoot, err = expandPath(c.Storage.LocalRoot); err != nil {
		return fmt.Errorf("storage.local_root: %w", err)
	}
	return nil
}
