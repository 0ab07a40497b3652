// Package renderer runs a JobSpec through a render engine and reports how the
// engine finished.
package renderer

import (
	"context"

	v0 "reelgen/internal/contracts/renderer/v0"
	"reelgen/internal/pkg/errors"
)

// Backend executes one render. Implementations never panic and never return
// a Go error: every outcome is a Result.
type Backend interface {
	Name() string
	Render(ctx context.Context, spec v0.JobSpec) Result
}

// Reason classifies an unsuccessful Result.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonExit     Reason = "exit"
	ReasonTimeout  Reason = "timeout"
	ReasonCanceled Reason = "canceled"
	ReasonInvalid  Reason = "invalid"
	ReasonOutput   Reason = "output"
)

// Result is the outcome of a render.
type Result struct {
	Reason     Reason
	OutputPath string
	ExitCode   int
	Stderr     string
	Err        error
}

// Success reports a finished render that wrote outputPath.
func Success(outputPath string) Result {
	return Result{OutputPath: outputPath}
}

// Failure reports a nonzero engine exit. exitCode is -1 when the engine could
// not be started or reached.
func Failure(exitCode int, stderr string) Result {
	return Result{Reason: ReasonExit, ExitCode: exitCode, Stderr: stderr}
}

// Timeout reports an engine killed at its wall-clock limit.
func Timeout(stderr string) Result {
	return Result{Reason: ReasonTimeout, ExitCode: -1, Stderr: stderr}
}

// Canceled reports a render abandoned because the caller went away.
func Canceled() Result {
	return Result{Reason: ReasonCanceled, ExitCode: -1}
}

// Invalid reports a job that was rejected before reaching the engine.
func Invalid(err error) Result {
	return Result{Reason: ReasonInvalid, ExitCode: -1, Err: err}
}

// OutputMissing reports an engine that exited 0 without leaving a usable
// output file.
func OutputMissing(err error) Result {
	return Result{Reason: ReasonOutput, Err: err}
}

func (r Result) Succeeded() bool { return r.Reason == ReasonNone }

// Error converts an unsuccessful Result into a coded error; nil on success.
func (r Result) Error() error {
	switch r.Reason {
	case ReasonNone:
		return nil
	case ReasonInvalid:
		if r.Err != nil {
			return errors.WrapWithCode(r.Err, errors.CodeValidation, "renderer.validate", "job spec rejected")
		}
		return errors.Validation("job spec rejected")
	case ReasonTimeout:
		return errors.RenderFailed(r.ExitCode, r.Stderr).WithField("reason", string(r.Reason))
	case ReasonOutput:
		if r.Err != nil {
			return errors.WrapWithCode(r.Err, errors.CodeResource, "renderer.output", "render output unavailable")
		}
		return errors.New(errors.CodeResource, "render output unavailable")
	case ReasonCanceled:
		return errors.WrapWithCode(context.Canceled, errors.CodeRender, "renderer.render", "render canceled")
	default:
		return errors.RenderFailed(r.ExitCode, r.Stderr)
	}
}
