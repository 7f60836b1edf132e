// Package repl provides the interactive shell. Plain lines are treated as
// problem statements and run through a full reflection session; a small set
// of commands adjusts the session configuration between runs.
package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/cogitolabs/ruminate/internal/config"
	"github.com/cogitolabs/ruminate/internal/converge"
	"github.com/cogitolabs/ruminate/internal/critic"
	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/session"
	"github.com/cogitolabs/ruminate/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	oracle  oracle.Oracle
	critic  critic.Critic // nil = oracle-backed default
	cfg     config.Config
	domain  types.Domain
	rl      *readline.Instance
	ctx     context.Context
	last    *session.Session
	command map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	// Oracle answers generation, critique, and refinement prompts
	Oracle oracle.Oracle

	// Critic overrides the default oracle-backed critic (e.g., the
	// rule-based critic for offline runs). Optional.
	Critic critic.Critic

	// Session is the starting session configuration; adjustable at runtime
	// with the 'set' command
	Session config.Config
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}

	r := &REPL{
		oracle:  cfg.Oracle,
		critic:  cfg.Critic,
		cfg:     cfg.Session,
		domain:  types.DomainGeneral,
		command: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("ruminate> "),
		HistoryFile:       "",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput dispatches a command, or treats the line as a problem to solve
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	command := parts[0]
	args := parts[1:]

	if handler, ok := r.command[command]; ok {
		return handler(args)
	}
	return r.solve(line)
}

// solve runs one reflection session over the given problem text
func (r *REPL) solve(text string) error {
	orch, err := r.orchestrator()
	if err != nil {
		return err
	}

	sess, err := orch.Run(r.ctx, types.Problem{Text: text, Domain: r.domain})
	if err != nil {
		return err
	}
	r.last = sess

	printSession(sess)
	return nil
}

func (r *REPL) orchestrator() (*session.Orchestrator, error) {
	opts := []session.Option{}
	if r.critic != nil {
		opts = append(opts, session.WithCritic(r.critic))
	}
	return session.New(r.oracle, r.cfg, opts...)
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.command["help"] = r.cmdHelp
	r.command["?"] = r.cmdHelp
	r.command["exit"] = r.cmdExit
	r.command["quit"] = r.cmdExit
	r.command["set"] = r.cmdSet
	r.command["show"] = r.cmdShow
	r.command["history"] = r.cmdHistory
	r.command["best"] = r.cmdBest
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("Ruminate - iterative self-reflection engine"))
	fmt.Println("Type a problem to start a reflection session.")
	fmt.Println()
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the REPL"},
		{"show", "Show the current session configuration"},
		{"set <key> <value>", "Adjust configuration (strategy, mode, domain, iterations, threshold, meta)"},
		{"history", "Show the score trajectory of the last session"},
		{"best", "Print the best response from the last session"},
	}
	for _, cmd := range commands {
		fmt.Printf("  %-20s %s\n", green(cmd.name), cmd.desc)
	}

	fmt.Println()
	fmt.Println("Anything else is treated as a problem statement:")
	fmt.Println("  'How do I optimize a recursive sorting algorithm?'")
	fmt.Println("  'Design a scalable caching layer'")
	fmt.Println()
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Goodbye!\n", green("✓"))
	r.rl.Close()
	return io.EOF
}

// cmdSet adjusts one configuration key. Changes are validated before they
// take effect; an invalid value leaves the configuration untouched.
func (r *REPL) cmdSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	key, value := args[0], args[1]

	cfg := r.cfg
	domain := r.domain

	switch key {
	case "strategy":
		cfg.Strategy = types.Strategy(value)
	case "mode":
		cfg.CritiqueMode = types.CritiqueMode(value)
	case "domain":
		domain = types.Domain(value)
		if !domain.IsValid() {
			return fmt.Errorf("unknown domain %q", value)
		}
	case "iterations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("iterations must be an integer: %w", err)
		}
		cfg.MaxIterations = n
	case "threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("threshold must be a number: %w", err)
		}
		cfg.ScoreThreshold = f
	case "meta":
		cfg.MetaReflection = value == "on" || value == "true"
	default:
		return fmt.Errorf("unknown key %q (try strategy, mode, domain, iterations, threshold, meta)", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	r.domain = domain

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s = %s\n", green("✓"), key, value)
	return nil
}

// cmdShow prints the current configuration
func (r *REPL) cmdShow(args []string) error {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("\n%s\n", yellow("Session configuration:"))
	fmt.Printf("  strategy:    %s\n", r.cfg.Strategy)
	fmt.Printf("  mode:        %s\n", r.cfg.CritiqueMode)
	fmt.Printf("  domain:      %s\n", r.domain)
	fmt.Printf("  iterations:  %d\n", r.cfg.MaxIterations)
	fmt.Printf("  threshold:   %.2f\n", r.cfg.ScoreThreshold)
	fmt.Printf("  meta:        %v\n", r.cfg.MetaReflection)
	fmt.Println()
	return nil
}

// cmdHistory shows the score trajectory of the last session
func (r *REPL) cmdHistory(args []string) error {
	if r.last == nil {
		return fmt.Errorf("no session yet")
	}
	printTrajectory(r.last)
	return nil
}

// cmdBest prints the best response from the last session
func (r *REPL) cmdBest(args []string) error {
	if r.last == nil {
		return fmt.Errorf("no session yet")
	}
	best := r.last.Best()
	if best == nil {
		return fmt.Errorf("session has no responses")
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s (iteration %d, score %.2f)\n\n%s\n\n",
		green("Best response"), best.Response.Iteration, best.Critique.Score, best.Response.Content)
	return nil
}

// printSession renders a finished session: trajectory, verdict, and the best
// response.
func printSession(sess *session.Session) {
	printTrajectory(sess)

	statusColor := color.New(color.FgYellow).SprintFunc()
	if sess.Status == converge.StatusConverged {
		statusColor = color.New(color.FgGreen).SprintFunc()
	}
	last := sess.Last()
	if last != nil {
		fmt.Printf("%s %s\n", statusColor(strings.ToUpper(string(sess.Status))), last.Verdict.Reason)
	}

	if best := sess.Best(); best != nil {
		fmt.Printf("\n%s\n\n", best.Response.Content)
	}
}

// printTrajectory renders the per-iteration score history
func printTrajectory(sess *session.Session) {
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Println()
	for _, step := range sess.Steps {
		fmt.Printf("  iteration %d: score %.2f  %s\n",
			step.Response.Iteration, step.Critique.Score,
			gray(fmt.Sprintf("(%d issues)", len(step.Critique.Issues))))
	}
}
