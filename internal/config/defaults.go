package config

const (
	BackendSubprocess = "subprocess"
	BackendHTTP       = "http"

	ProviderLocalFS = "localfs"
	ProviderGDrive  = "gdrive"

	defaultDemoImageURL = "https://www.seagate.com/content/dam/seagate/migrated-assets/www-content/news/_shared/images/seagate-logo-image-center-374x328.png"
)

// Default returns the configuration used before the file and environment
// layers are applied. Relative paths resolve against the working directory.
func Default() Config {
	return Config{
		Engine: Engine{
			Backend:    BackendSubprocess,
			Executable: "python/venv/bin/python",
			Script:     "python/generate_video.py",
		},
		Assets: Assets{
			BackgroundVideo: "public/assets/background.mp4",
			BackgroundAudio: "public/assets/background.mp3",
			Voice:           "public/assets/seagate.mp3",
			Font:            "public/assets/Montserrat-ExtraBold.ttf",
			FontSize:        72,
			Color:           "white",
			GapSeconds:      1,
		},
		Demo: Demo{
			Text:     "Hello World",
			ImageURL: defaultDemoImageURL,
		},
		Fetch: Fetch{
			TimeoutSeconds: 30,
			MaxBytes:       25 << 20,
			UserAgent:      "reelgen/0.1",
		},
		HTTP: HTTP{
			Port: "8080",
			CORSAllowedOrigins: []string{
				"http://localhost:8081",
				"http://localhost:5173",
			},
			GenerateRateLimit: 6,
			RequestTimeout:    30,
		},
		Storage: Storage{
			Provider:  ProviderLocalFS,
			LocalRoot: "data",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}
