package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogitolabs/ruminate/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive reflection shell",
	Long: `Start an interactive shell where every line you type is treated as a
problem statement and run through a full reflection session.

Commands inside the shell:
- 'set' adjusts strategy, mode, domain, iterations, threshold, and meta
- 'history' shows the last session's score trajectory
- 'best' prints the best response from the last session

Type 'help' in the shell for the full list.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSessionConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		o, criticOverride, err := buildOracle(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		r, err := repl.New(&repl.Config{
			Oracle:  o,
			Critic:  criticOverride,
			Session: cfg,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create REPL: %v\n", err)
			os.Exit(1)
		}

		if err := r.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
