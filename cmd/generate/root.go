package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelgen/internal/config"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/worker"
	"reelgen/internal/worker/processor"
)

var errGenerationFailed = errors.New("video generation failed")

type options struct {
	configPath string
	planPath   string
	outPath    string
	printSpec  bool
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "generate",
		Short:         "Render one short-form video",
		Long:          "Fetches the plan's images, builds the job spec and runs the render engine once. Prints the output path on success.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default reelgen.toml)")
	cmd.Flags().StringVarP(&opts.planPath, "plan", "p", "", "JSON plan file; the configured demo plan is used when empty")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Output video path; a temp file is used when empty")
	cmd.Flags().BoolVar(&opts.printSpec, "print-spec", false, "Print the engine job spec without fetching or rendering")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts options) error {
	cfg, _, _, err := config.Load(strings.TrimSpace(opts.configPath))
	if err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Logging, "reelgen-generate", cmd.ErrOrStderr())

	plan := processor.DefaultPlan(cfg.Demo)
	if opts.planPath != "" {
		data, err := os.ReadFile(opts.planPath)
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		if plan, err = processor.ParsePlan(data); err != nil {
			return err
		}
	}

	if opts.printSpec {
		return printSpec(cmd, cfg, plan, opts.outPath)
	}

	proc, err := worker.NewProcessor(cfg, log)
	if err != nil {
		return err
	}

	path, ok := proc.Generate(ctx, processor.Request{Plan: &plan, OutputPath: opts.outPath})
	if !ok {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errGenerationFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// printSpec shows the engine input for plan. Image paths are left as their
// URLs since nothing is fetched.
func printSpec(cmd *cobra.Command, cfg *config.Config, plan processor.Plan, out string) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	urls := plan.ImageURLs()
	fetched := make(map[string]string, len(urls))
	for _, u := range urls {
		fetched[u] = u
	}
	if out == "" {
		out = "<temp>.mp4"
	}

	spec, err := processor.NewBuilder(cfg.Assets, cfg.Gap()).Build(plan, fetched, out)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}
