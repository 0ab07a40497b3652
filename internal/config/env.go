package config

import (
	"os"
	"strconv"
	"strings"
)

// Env returns the trimmed value of k or def when unset.
func Env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

// BoolEnv reads an env var as bool. If empty or invalid, returns def.
// strconv.ParseBool accepts: 1,t,T,TRUE,true,True,0,f,F,FALSE,false,False.
func BoolEnv(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// IntEnv reads an env var as int. If empty or invalid, returns def.
func IntEnv(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// CSVEnv splits a comma separated env var, dropping empty items.
func CSVEnv(k string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return def
	}
	out := make([]string, 0, 4)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (c *Config) applyEnv() {
	c.Engine.Backend = Env("RENDER_BACKEND", c.Engine.Backend)
	c.Engine.Executable = Env("RENDER_ENGINE_EXECUTABLE", c.Engine.Executable)
	c.Engine.Script = Env("RENDER_ENGINE_SCRIPT", c.Engine.Script)
	c.Engine.TimeoutSeconds = IntEnv("RENDER_TIMEOUT_SECONDS", c.Engine.TimeoutSeconds)
	c.Engine.HTTPBaseURL = Env("RENDERER_HTTP_BASEURL", c.Engine.HTTPBaseURL)

	c.Assets.BackgroundVideo = Env("ASSET_BACKGROUND_VIDEO", c.Assets.BackgroundVideo)
	c.Assets.BackgroundAudio = Env("ASSET_BACKGROUND_AUDIO", c.Assets.BackgroundAudio)
	c.Assets.Voice = Env("ASSET_VOICE", c.Assets.Voice)
	c.Assets.Font = Env("ASSET_FONT", c.Assets.Font)

	c.Demo.ImageURL = Env("DEMO_IMAGE_URL", c.Demo.ImageURL)

	c.Fetch.AllowPrivateNetworks = BoolEnv("FETCH_ALLOW_PRIVATE_NETWORKS", c.Fetch.AllowPrivateNetworks)

	c.Scratch.Dir = Env("SCRATCH_DIR", c.Scratch.Dir)

	c.HTTP.Port = Env("HTTP_PORT", c.HTTP.Port)
	c.HTTP.CORSAllowedOrigins = CSVEnv("CORS_ALLOWED_ORIGINS", c.HTTP.CORSAllowedOrigins)

	c.Storage.Provider = Env("STORAGE_PROVIDER", c.Storage.Provider)
	c.Storage.LocalRoot = Env("STORAGE_LOCAL_ROOT", c.Storage.LocalRoot)
	c.Storage.GDriveClientID = Env("GDRIVE_CLIENT_ID", c.Storage.GDriveClientID)
	c.Storage.GDriveClientSecret = Env("GDRIVE_CLIENT_SECRET", c.Storage.GDriveClientSecret)
	c.Storage.GDriveRefreshToken = Env("GDRIVE_REFRESH_TOKEN", c.Storage.GDriveRefreshToken)
	c.Storage.GDriveFolderID = Env("GDRIVE_FOLDER_ID", c.Storage.GDriveFolderID)

	c.Database.URL = Env("DATABASE_URL", c.Database.URL)

	c.Logging.Level = Env("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = Env("LOG_FORMAT", c.Logging.Format)
	c.Logging.AddSource = BoolEnv("LOG_SOURCE", c.Logging.AddSource)
}
