package handlers

import (
	"context"
	"net/http"
	"os/exec"
	"time"

	"reelgen/internal/httpkit"
	"reelgen/internal/ports"
)

const healthCheckTimeout = 5 * time.Second

// Health reports liveness. With ?deep=true it also checks the render engine,
// the storage provider and the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "reelgen",
		"version": h.version,
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if check["status"] == "error" {
				health["status"] = "degraded"
				log.Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	return map[string]map[string]any{
		"engine":   h.checkEngine(),
		"storage":  h.checkStorage(ctx),
		"database": h.checkDatabase(ctx),
	}
}

func (h *Handler) checkEngine() map[string]any {
	if h.engine == "" {
		return map[string]any{"status": "skipped"}
	}
	result := map[string]any{"status": "ok"}
	path, err := exec.LookPath(h.engine)
	if err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
		return result
	}
	result["path"] = path
	return result
}

func (h *Handler) checkStorage(ctx context.Context) map[string]any {
	result := map[string]any{
		"status":   "ok",
		"provider": h.sp.Provider(),
	}
	if p, ok := h.sp.(ports.Pinger); ok {
		ping(ctx, p.Ping, result)
	}
	return result
}

func (h *Handler) checkDatabase(ctx context.Context) map[string]any {
	if h.db == nil {
		return map[string]any{"status": "skipped"}
	}
	result := map[string]any{"status": "ok"}
	ping(ctx, h.db.Ping, result)
	return result
}

func ping(ctx context.Context, fn func(context.Context) error, result map[string]any) {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := fn(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
}
