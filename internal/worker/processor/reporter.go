package processor

import (
	"context"

	"reelgen/internal/pkg/errors"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/metrics"
	"reelgen/internal/worker/renderer"
)

// Reporter turns job outcomes into the caller's (path, ok) pair plus a log
// record and metrics.
type Reporter struct {
	log *logger.Logger
}

func NewReporter(log *logger.Logger) *Reporter {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Reporter{log: log.WithComponent("reporter")}
}

// Report handles the result of an engine invocation.
func (r *Reporter) Report(ctx context.Context, jobID string, result renderer.Result) (string, bool) {
	log := r.log.FromContext(ctx).WithJobID(jobID)

	if result.Succeeded() {
		metrics.GenerationsTotal.WithLabelValues(string(StateSucceeded)).Inc()
		log.Info("video generated", "output", result.OutputPath)
		return result.OutputPath, true
	}

	metrics.GenerationsTotal.WithLabelValues(string(StateFailed)).Inc()
	metrics.RenderFailures.WithLabelValues(string(result.Reason)).Inc()

	args := []any{"reason", string(result.Reason), "exit_code", result.ExitCode}
	if result.Stderr != "" {
		args = append(args, "stderr", result.Stderr)
	}
	if result.Err != nil {
		args = append(args, "error", result.Err.Error())
	}
	log.Error("video generation failed", args...)
	return "", false
}

// Abort handles a job that failed before the engine was invoked.
func (r *Reporter) Abort(ctx context.Context, jobID string, stage State, err error) (string, bool) {
	metrics.GenerationsTotal.WithLabelValues(string(StateFailed)).Inc()

	log := r.log.FromContext(ctx).WithJobID(jobID).WithStage(string(stage))
	var e *errors.Error
	if errors.As(err, &e) {
		log.Error("video generation failed", e.LogArgs()...)
	} else {
		log.WithError(err).Error("video generation failed")
	}
	return "", false
}
