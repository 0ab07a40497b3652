package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"reelgen/internal/config"
	"reelgen/internal/httpapi"
	"reelgen/internal/httpapi/handlers"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/shutdown"
	"reelgen/internal/ports"
	"reelgen/internal/repositories"
	"reelgen/internal/storage"
	"reelgen/internal/worker"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "configuration file path (default reelgen.toml)")
	flag.Parse()

	// A missing .env file is fine; the environment and config file still apply.
	_ = godotenv.Load()

	boot := logger.NewDefault()
	cfg, resolved, found, err := config.Load(*configPath)
	if err != nil {
		boot.LogFatal("failed to load configuration", err)
	}

	log := logger.NewFromConfig(cfg.Logging, "reelgen-api", os.Stdout)

	log.Info("starting reelgen API",
		"version", version,
		"config", resolved,
		"config_found", found,
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	var (
		videos   ports.VideoRepository
		database ports.Pinger
	)
	if cfg.Database.URL != "" {
		log.Info("connecting to PostgreSQL")
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.LogFatal("failed to connect to PostgreSQL", err)
		}
		shutdownMgr.RegisterSimple("postgres", pool.Close)

		if err := pool.Ping(ctx); err != nil {
			log.LogFatal("failed to ping PostgreSQL", err)
		}
		repo := repositories.NewVideoRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.LogFatal("failed to prepare videos table", err)
		}
		videos, database = repo, repo
		log.Info("PostgreSQL connected")
	} else {
		log.Warn("database.url not set, video records are kept in memory")
		videos = repositories.NewMemoryVideos()
	}

	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	proc, err := worker.NewProcessor(cfg, log)
	if err != nil {
		log.LogFatal("failed to configure generation pipeline", err)
	}

	engine := ""
	if cfg.Engine.Backend == config.BackendSubprocess {
		engine = cfg.Engine.Executable
	}

	h := handlers.New(handlers.Deps{
		Generator:        proc,
		Storage:          sp,
		Videos:           videos,
		Database:         database,
		EngineExecutable: engine,
		Version:          version,
		Log:              log,
	})
	router := httpapi.NewRouter(httpapi.Deps{
		Handlers:           h,
		Log:                log,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		GenerateRateLimit:  cfg.HTTP.GenerateRateLimit,
		RequestTimeout:     time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
	})

	// No WriteTimeout: generation responses last as long as the render.
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	if err := shutdownMgr.Wait(ctx); err != nil {
		log.Error("shutdown finished with errors", "error", err.Error())
	}
}
