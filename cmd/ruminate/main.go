package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cogitolabs/ruminate/internal/config"
	"github.com/cogitolabs/ruminate/internal/critic"
	"github.com/cogitolabs/ruminate/internal/oracle"
)

var (
	configPath string
	oracleKind string
	seed       int64
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ruminate",
	Short: "Iterative self-reflection engine",
	Long: `Ruminate generates a response to a problem, critiques it, and refines it
until the critique score converges, iterations run out, or progress stalls.

By default it runs fully offline against a deterministic simulated oracle.
Pass --oracle anthropic (with ANTHROPIC_API_KEY set) to use a real model.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML session configuration")
	rootCmd.PersistentFlags().StringVar(&oracleKind, "oracle", "simulated", "Oracle backend: simulated or anthropic")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 1, "Random seed for the simulated oracle")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadSessionConfig returns the file-based configuration when --config is
// set, defaults otherwise.
func loadSessionConfig() (config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFile(configPath)
}

// buildOracle constructs the oracle backend selected with --oracle. The
// second return value is the critic override: the simulated oracle cannot
// speak critique JSON, so it is paired with the deterministic rule-based
// critic; the Anthropic oracle uses the default oracle-backed critic (nil).
func buildOracle(cfg config.Config) (oracle.Oracle, critic.Critic, error) {
	switch oracleKind {
	case "simulated", "sim":
		return oracle.NewSimulator(seed), critic.NewRuleBased(cfg.CritiqueMode), nil
	case "anthropic":
		o, err := oracle.NewAnthropic(oracle.AnthropicConfig{})
		if err != nil {
			return nil, nil, err
		}
		return o, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown oracle backend %q (try simulated or anthropic)", oracleKind)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
