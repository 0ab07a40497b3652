// Package handlers implements the reelgen HTTP endpoints.
package handlers

import (
	"context"

	"reelgen/internal/pkg/logger"
	"reelgen/internal/ports"
	"reelgen/internal/worker/processor"
)

// Generator runs one generation job. *processor.Processor implements it.
type Generator interface {
	Generate(ctx context.Context, req processor.Request) (string, bool)
}

type Deps struct {
	Generator Generator
	Storage   ports.StorageProvider
	Videos    ports.VideoRepository
	// Database is pinged by the deep health check; nil when records are kept
	// in memory.
	Database ports.Pinger
	// EngineExecutable is checked by the deep health check; empty for the
	// remote render backend.
	EngineExecutable string
	Version          string
	Log              *logger.Logger
}

type Handler struct {
	gen     Generator
	sp      ports.StorageProvider
	videos  ports.VideoRepository
	db      ports.Pinger
	engine  string
	version string
	log     *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		gen:     d.Generator,
		sp:      d.Storage,
		videos:  d.Videos,
		db:      d.Database,
		engine:  d.EngineExecutable,
		version: version,
		log:     log.WithComponent("http"),
	}
}

// Log returns the handler's logger for use with middleware.WrapHandler.
func (h *Handler) Log() *logger.Logger { return h.log }
