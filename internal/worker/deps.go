// Package worker assembles the generation pipeline from configuration.
package worker

import (
	"fmt"

	"reelgen/internal/config"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/worker/fetcher"
	"reelgen/internal/worker/processor"
	"reelgen/internal/worker/renderer"
	"reelgen/internal/worker/scratch"
)

// NewBackend returns the render backend selected by engine.backend.
func NewBackend(cfg *config.Config, log *logger.Logger) (renderer.Backend, error) {
	switch cfg.Engine.Backend {
	case config.BackendSubprocess:
		return renderer.NewSubprocess(renderer.SubprocessConfig{
			Executable: cfg.Engine.Executable,
			Script:     cfg.Engine.Script,
			Args:       cfg.Engine.Args,
			WorkDir:    cfg.Engine.WorkDir,
			Timeout:    cfg.EngineTimeout(),
		}, log), nil
	case config.BackendHTTP:
		return renderer.NewHTTPClient(cfg.Engine.HTTPBaseURL, cfg.EngineTimeout(), log), nil
	default:
		return nil, fmt.Errorf("unknown render backend %q", cfg.Engine.Backend)
	}
}

// NewProcessor wires fetcher, builder, render backend and scratch manager.
func NewProcessor(cfg *config.Config, log *logger.Logger) (*processor.Processor, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	backend, err := NewBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("generation pipeline configured",
		"backend", backend.Name(),
		"scratch_dir", cfg.Scratch.Dir,
		"engine_timeout", cfg.EngineTimeout().String(),
	)

	return processor.New(processor.Deps{
		Fetcher: fetcher.New(fetcher.Config{
			Timeout:   cfg.FetchTimeout(),
			MaxBytes:  cfg.Fetch.MaxBytes,
			UserAgent: cfg.Fetch.UserAgent,

			AllowPrivateNetworks: cfg.Fetch.AllowPrivateNetworks,
		}, log),
		Builder:     processor.NewBuilder(cfg.Assets, cfg.Gap()),
		Renderer:    backend,
		Scratch:     scratch.NewManager(cfg.Scratch.Dir, log),
		DefaultPlan: processor.DefaultPlan(cfg.Demo),
		Log:         log,
	}), nil
}
