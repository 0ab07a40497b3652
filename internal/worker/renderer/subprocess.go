package renderer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	v0 "reelgen/internal/contracts/renderer/v0"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/procgroup"
)

// SubprocessConfig describes the engine command line:
// <Executable> <Script> [Args...].
type SubprocessConfig struct {
	Executable string
	Script     string
	Args       []string
	WorkDir    string
	// Timeout is the wall-clock limit of one render; zero disables it.
	Timeout time.Duration
	// TailBytes bounds how much stdout and stderr is retained.
	TailBytes int
	// OutputGrace bounds how long output is still collected after the engine
	// exits; zero means defaultOutputGrace.
	OutputGrace time.Duration
}

const defaultOutputGrace = 2 * time.Second

// Subprocess renders by piping the JobSpec into a local engine process.
type Subprocess struct {
	cfg SubprocessConfig
	log *logger.Logger
}

func NewSubprocess(cfg SubprocessConfig, log *logger.Logger) *Subprocess {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Subprocess{cfg: cfg, log: log.WithComponent("renderer")}
}

func (s *Subprocess) Name() string { return "subprocess" }

// Render starts the engine, streams spec as JSON on its stdin and collects its
// stdout and stderr while it runs. Processes the engine leaves in its group are
// killed once it exits. Exit 0 is success; the engine is expected
// to have written spec.Output by then.
func (s *Subprocess) Render(ctx context.Context, spec v0.JobSpec) Result {
	log := s.log.FromContext(ctx)

	payload, err := json.Marshal(spec)
	if err != nil {
		return Invalid(err)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	args := make([]string, 0, len(s.cfg.Args)+1)
	if s.cfg.Script != "" {
		args = append(args, s.cfg.Script)
	}
	args = append(args, s.cfg.Args...)

	cmd := exec.CommandContext(runCtx, s.cfg.Executable, args...)
	cmd.Dir = s.cfg.WorkDir
	procgroup.Set(cmd)
	cmd.Cancel = func() error { return procgroup.Kill(cmd) }

	outTail := newTailBuffer(s.cfg.TailBytes)
	errTail := newTailBuffer(s.cfg.TailBytes)
	cmd.Stdout = outTail
	cmd.Stderr = errTail
	// Helpers the engine leaves behind may hold stdout and stderr open;
	// Wait stops copying this long after the engine exits.
	cmd.WaitDelay = s.cfg.OutputGrace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultOutputGrace
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Failure(-1, err.Error())
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.Error("failed to start render engine", "executable", s.cfg.Executable, "error", err.Error())
		return Failure(-1, err.Error())
	}
	log.Debug("render engine started", "pid", cmd.Process.Pid, "spec_bytes", len(payload))

	// Plain group: the stdin writer failing must not cancel the wait.
	var (
		g       errgroup.Group
		waitErr error
	)
	g.Go(func() error {
		_, werr := stdin.Write(payload)
		cerr := stdin.Close()
		if err := stderrors.Join(werr, cerr); err != nil {
			// The engine may exit without reading its input; its exit status decides.
			log.Debug("render engine stdin closed early", "error", err.Error())
		}
		return nil
	})
	g.Go(func() error {
		waitErr = cmd.Wait()
		return nil
	})
	_ = g.Wait()

	if err := procgroup.KillExited(cmd); err != nil {
		log.Warn("failed to stop leftover engine processes", "error", err.Error())
	}
	if stderrors.Is(waitErr, exec.ErrWaitDelay) {
		log.Warn("render engine left its output streams open", "grace", cmd.WaitDelay.String())
		waitErr = nil
	}
	elapsed := time.Since(start)

	outText := strings.TrimSpace(outTail.String())
	errText := strings.TrimSpace(errTail.String())
	if outText != "" {
		log.Debug("render engine stdout", "stdout", outText, "truncated", outTail.Truncated())
	}

	if waitErr == nil {
		if errText != "" {
			log.Debug("render engine stderr", "stderr", errText)
		}
		log.Info("render engine finished", "duration_ms", elapsed.Milliseconds())
		return Success(spec.Output)
	}

	if ctxErr := runCtx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			log.Warn("render engine timed out", "timeout", s.cfg.Timeout.String(), "duration_ms", elapsed.Milliseconds())
			return Timeout(errText)
		}
		log.Warn("render canceled", "duration_ms", elapsed.Milliseconds())
		return Canceled()
	}

	var exitErr *exec.ExitError
	if stderrors.As(waitErr, &exitErr) {
		return Failure(exitErr.ExitCode(), errText)
	}
	return Failure(-1, waitErr.Error())
}
