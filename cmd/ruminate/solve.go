package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cogitolabs/ruminate/internal/session"
	"github.com/cogitolabs/ruminate/internal/types"
)

var solveCmd = &cobra.Command{
	Use:   "solve [problem...]",
	Short: "Run one reflection session over a problem",
	Long: `Run the full generate-critique-refine loop over a problem statement and
print the score trajectory, the terminal verdict, and the best response.

Examples:
  ruminate solve "How do I optimize a recursive sorting algorithm?"
  ruminate solve --domain systems --strategy systematic "Design a caching layer"
  ruminate solve --oracle anthropic --meta "Explain backpropagation"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")

		cfg, err := loadSessionConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Flag overrides apply on top of file/default configuration
		if cmd.Flags().Changed("strategy") {
			s, _ := cmd.Flags().GetString("strategy")
			cfg.Strategy = types.Strategy(s)
		}
		if cmd.Flags().Changed("mode") {
			m, _ := cmd.Flags().GetString("mode")
			cfg.CritiqueMode = types.CritiqueMode(m)
		}
		if cmd.Flags().Changed("max-iterations") {
			cfg.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
		}
		if cmd.Flags().Changed("threshold") {
			cfg.ScoreThreshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		if cmd.Flags().Changed("min-improvement") {
			cfg.MinImprovement, _ = cmd.Flags().GetFloat64("min-improvement")
		}
		if cmd.Flags().Changed("meta") {
			cfg.MetaReflection, _ = cmd.Flags().GetBool("meta")
		}

		domainFlag, _ := cmd.Flags().GetString("domain")
		showCritiques, _ := cmd.Flags().GetBool("show-critiques")

		o, criticOverride, err := buildOracle(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		opts := []session.Option{}
		if criticOverride != nil {
			opts = append(opts, session.WithCritic(criticOverride))
		}
		collector := session.NewInMemoryCollector()
		opts = append(opts, session.WithMetrics(collector))

		orch, err := session.New(o, cfg, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Ctrl+C freezes the session at the last completed iteration
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, err := orch.Run(ctx, types.Problem{Text: text, Domain: types.Domain(domainFlag)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		renderSession(sess, showCritiques)
		renderMetrics(collector)
	},
}

func init() {
	solveCmd.Flags().String("strategy", "", "Generation strategy: technical, creative, or systematic")
	solveCmd.Flags().String("mode", "", "Critique mode: critical, constructive, or comprehensive")
	solveCmd.Flags().String("domain", "", "Problem domain: general, algorithms, machine_learning, or systems")
	solveCmd.Flags().Int("max-iterations", 0, "Maximum refinement cycles")
	solveCmd.Flags().Float64("threshold", 0, "Convergence score threshold (0.0-1.0)")
	solveCmd.Flags().Float64("min-improvement", 0, "Minimum per-iteration score gain before stalling")
	solveCmd.Flags().Bool("meta", false, "Enable the meta-reflection layer")
	solveCmd.Flags().Bool("show-critiques", false, "Print issues and suggestions for every iteration")

	rootCmd.AddCommand(solveCmd)
}
