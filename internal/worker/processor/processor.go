package processor

import (
	"context"
	"time"

	"reelgen/internal/pkg/errors"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/worker/renderer"
	"reelgen/internal/worker/scratch"
	"reelgen/internal/worker/util"
)

// Fetcher downloads a remote asset into a job scope.
type Fetcher interface {
	Fetch(ctx context.Context, scope *scratch.Scope, rawURL string) (*scratch.File, error)
}

type Deps struct {
	Fetcher     Fetcher
	Builder     *Builder
	Renderer    renderer.Backend
	Scratch     *scratch.Manager
	DefaultPlan Plan
	Log         *logger.Logger
}

type Processor struct {
	fetcher     Fetcher
	builder     *Builder
	renderer    renderer.Backend
	scratch     *scratch.Manager
	reporter    *Reporter
	defaultPlan Plan
	log         *logger.Logger
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	return &Processor{
		fetcher:     d.Fetcher,
		builder:     d.Builder,
		renderer:    d.Renderer,
		scratch:     d.Scratch,
		reporter:    NewReporter(log),
		defaultPlan: d.DefaultPlan,
		log:         log.WithComponent("processor"),
	}
}

// Request describes one generation. An empty JobID gets a fresh one, a nil
// Plan uses the default plan and an empty OutputPath renders into a temp file
// whose ownership passes to the caller.
type Request struct {
	JobID      string
	Plan       *Plan
	OutputPath string
}

// Generate runs one job to completion: fetch remote images, build the job
// spec, invoke the engine and report. It returns the output path and true on
// success, or "" and false on any failure. Every temporary file except a
// successful output is gone when it returns.
func (p *Processor) Generate(ctx context.Context, req Request) (string, bool) {
	jobID := req.JobID
	if jobID == "" {
		jobID = util.NewID("job")
	}
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx)

	job := newJob(jobID)
	start := time.Now()

	scope := p.scratch.NewScope(jobID)
	defer func() {
		// Cleanup failures are logged by the scope and never change the outcome.
		_ = scope.Release()
		log.Debug("job finished", "state", string(job.State()), "duration_ms", time.Since(start).Milliseconds())
	}()

	plan := p.defaultPlan
	if req.Plan != nil && !req.Plan.IsEmpty() {
		plan = *req.Plan
	}
	if err := plan.Validate(); err != nil {
		return p.abort(ctx, job, err)
	}

	// 1. Fetch
	if err := job.advance(StateFetching); err != nil {
		return p.abort(ctx, job, err)
	}
	fetched, err := p.fetchImages(ctx, scope, plan)
	if err != nil {
		return p.abort(ctx, job, err)
	}

	// 2. Build
	if err := job.advance(StateBuilding); err != nil {
		return p.abort(ctx, job, err)
	}
	out, err := scope.Output(req.OutputPath)
	if err != nil {
		return p.abort(ctx, job, err)
	}
	spec, err := p.builder.Build(plan, fetched, out.Path())
	if err != nil {
		return p.abort(ctx, job, err)
	}

	// 3. Invoke
	if err := job.advance(StateInvoking); err != nil {
		return p.abort(ctx, job, err)
	}
	var result renderer.Result
	if err := spec.Validate(); err != nil {
		result = renderer.Invalid(err)
	} else {
		log.Info("invoking render engine", "backend", p.renderer.Name(), "clips", len(spec.Clips))
		result = p.renderer.Render(ctx, spec)
	}

	if result.Succeeded() {
		path, err := out.Commit()
		if err != nil {
			result = renderer.OutputMissing(err)
		} else {
			result.OutputPath = path
		}
	}

	next := StateSucceeded
	if !result.Succeeded() {
		next = StateFailed
	}
	if err := job.advance(next); err != nil {
		return p.abort(ctx, job, err)
	}
	return p.reporter.Report(ctx, jobID, result)
}

func (p *Processor) fetchImages(ctx context.Context, scope *scratch.Scope, plan Plan) (map[string]string, error) {
	urls := plan.ImageURLs()
	fetched := make(map[string]string, len(urls))
	for _, u := range urls {
		f, err := p.fetcher.Fetch(ctx, scope, u)
		if err != nil {
			return nil, errors.Wrap(err, "processor.fetch", "failed to fetch image")
		}
		fetched[u] = f.Path()
	}
	return fetched, nil
}

func (p *Processor) abort(ctx context.Context, job *Job, cause error) (string, bool) {
	stage := job.State()
	if !stage.Terminal() {
		_ = job.advance(StateFailed)
	}
	return p.reporter.Abort(ctx, job.ID, stage, cause)
}
