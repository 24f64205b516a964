// Command csvdash serves the CSV dashboard and runs its pipeline from the
// command line.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "csvdash",
		Short:         "Interactive dashboard for exploring CSV files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Overload lets .env win over variables already in the environment.
			if err := godotenv.Overload(); err != nil {
				slog.Debug("no .env file found, using environment variables")
			}
		},
		RunE: serve.RunE,
	}
	root.AddCommand(serve, newReportCmd())
	return root
}
