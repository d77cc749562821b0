package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for casetally.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casetally",
		Short: "Tally incident records published as yearly HTML tables",
		Long: `casetally fetches one HTML table of incident records per year, maps each
table's columns onto a common schema, normalizes dates, classifies the
incident method and reports counts per month and per method, case status
and camera coverage, plus age statistics.

Sources are given as YEAR=URL pairs on the command line or in a .casetally
configuration file. Completed runs are saved to a local SQLite history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
