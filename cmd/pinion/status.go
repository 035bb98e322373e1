package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinionhq/pinion/internal/alternatives"
	"github.com/pinionhq/pinion/internal/cmdexec"
	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/converge"
	"github.com/pinionhq/pinion/internal/execute"
	"github.com/pinionhq/pinion/internal/logger"
	"github.com/pinionhq/pinion/internal/model"
)

type statusOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

var statusCmdRunner = runStatus

func newStatusCmd(root *rootFlags) *cobra.Command {
	opts := statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report drift between the machine and the target without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = root.configPath
			opts.Verbose = root.verbose

			return statusCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output machine-readable JSON")

	return cmd
}

func runStatus(opts statusOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := newLogger(opts.Verbose, !opts.JSON)
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
		execute.AssumeNo(),
		converge.Options{},
		log,
	)

	p, observed, err := driver.Plan(context.Background())
	if err != nil {
		return err
	}

	if opts.JSON {
		if err := printStatusJSON(os.Stdout, opts.ConfigPath, cfg, p, observed); err != nil {
			return err
		}
	} else {
		fmt.Fprint(os.Stdout, renderStatus(cfg, p, observed))
	}

	code := 0
	if !p.Empty() {
		code = 1
	}
	os.Exit(code)
	return nil
}

func printStatusJSON(out io.Writer, configPath string, cfg *config.Config, p model.Plan, observed model.ObservedState) error {
	type jsonAction struct {
		Kind        string `json:"kind"`
		Description string `json:"description"`
		Class       string `json:"class"`
	}

	type jsonStatus struct {
		ConfigFile    string       `json:"config_file"`
		Converged     bool         `json:"converged"`
		TargetVersion string       `json:"target_version"`
		ActiveVersion string       `json:"active_version,omitempty"`
		Actions       []jsonAction `json:"actions,omitempty"`
		Notes         []string     `json:"notes,omitempty"`
	}

	status := jsonStatus{
		ConfigFile:    configPath,
		Converged:     p.Empty(),
		TargetVersion: cfg.Runtime.Version,
		ActiveVersion: observed.ActiveVersion,
		Notes:         p.Notes,
	}
	for _, action := range p.Actions {
		status.Actions = append(status.Actions, jsonAction{
			Kind:        string(action.Kind),
			Description: action.Description,
			Class:       string(action.Class),
		})
	}

	encoded, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}
