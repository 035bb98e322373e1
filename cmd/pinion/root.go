package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose    bool
	dryRun     bool
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "pinion",
		Short:         "Pinion converges a machine onto a pinned runtime target",
		Long:          "Pinion reads a target document, probes the machine, and runs the\nminimal set of actions that pin the runtime version, capabilities and\nproject files the document declares. Re-running is always safe.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Probe and plan, print the plan, change nothing")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "pinion.yaml", "Path to the target document")

	cmd.AddCommand(newUpCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
