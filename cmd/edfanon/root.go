package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:   "edfanon",
		Short: "De-identify clinical EEG recordings in EDF/EDF+ format",
		Long: `edfanon strips protected health information from clinical EEG
recordings: it rewrites identifying header fields, redacts identifying
annotation text, and re-anchors recording timestamps onto a de-identified
epoch while preserving relative timing across a subject session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the edfanon version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "edfanon", version)
			return nil
		},
	}
}
