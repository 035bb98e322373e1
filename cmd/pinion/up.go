package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/converge"
	"github.com/pinionhq/pinion/internal/execute"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/prompt"
)

type upOptions struct {
	ConfigPath     string
	Verbose        bool
	DryRun         bool
	SkipDeps       bool
	RefreshConfig  bool
	AssumeYes      bool
	NonInteractive bool
}

var upCmdRunner = runUp

func newUpCmd(root *rootFlags) *cobra.Command {
	opts := upOptions{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Converge the machine onto the target document",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = root.configPath
			opts.Verbose = root.verbose
			opts.DryRun = root.dryRun
			opts.NonInteractive = !prompt.Interactive()

			return upCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipDeps, "skip-deps", false, "Skip the dependency manager step")
	cmd.Flags().BoolVar(&opts.RefreshConfig, "refresh-config", false, "Offer to overwrite the local config from its template")
	cmd.Flags().BoolVarP(&opts.AssumeYes, "yes", "y", false, "Answer yes to every confirmation")

	return cmd
}

func runUp(opts upOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	log, err := newLogger(opts.Verbose, !opts.NonInteractive)
	if err != nil {
		return err
	}

	runner := &cmdexec.System{Stdout: os.Stdout, Stderr: os.Stderr}
	registry, err := alternatives.NewSystem(cfg.Runtime, runner, log)
	if err != nil {
		return err
	}

	driver := converge.New(cfg, runner, registry,
		execute.NewSudoLease(runner, log),
		chooseDecider(opts),
		converge.Options{SkipDeps: opts.SkipDeps, RefreshConfig: opts.RefreshConfig},
		log,
	)

	ctx := context.Background()

	if opts.DryRun {
		p, _, err := driver.Plan(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, renderPlan(p))
		return nil
	}

	report := driver.Run(ctx)
	fmt.Fprint(os.Stdout, renderReport(report))

	os.Exit(report.ExitCode())
	return nil
}

// chooseDecider picks who answers confirmations: --yes approves
// everything, an interactive terminal asks the operator, and anything
// else declines.
func chooseDecider(opts upOptions) execute.Decider {
	switch {
	case opts.AssumeYes:
		return execute.AssumeYes()
	case opts.NonInteractive:
		return execute.AssumeNo()
	default:
		return prompt.NewTerminal()
	}
}

func newLogger(verbose, pretty bool) (*logger.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Options{Level: level, Pretty: pretty})
}
