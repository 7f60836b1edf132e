package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cogitolabs/ruminate/internal/converge"
	"github.com/cogitolabs/ruminate/internal/session"
)

// renderSession prints the score trajectory, verdict, and best response for a
// finished session.
func renderSession(sess *session.Session, showCritiques bool) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Reflection Session ==="))
	fmt.Printf("Session:  %s\n", gray(sess.ID))
	fmt.Printf("Domain:   %s\n", sess.Problem.Domain)
	fmt.Printf("Strategy: %s / %s\n\n", sess.Config.Strategy, sess.Config.CritiqueMode)

	for _, step := range sess.Steps {
		marker := "○"
		if step.Verdict.Status == converge.StatusConverged {
			marker = color.GreenString("●")
		}
		fmt.Printf("  %s iteration %d: score %.2f %s\n",
			marker, step.Response.Iteration, step.Critique.Score,
			gray(fmt.Sprintf("(%d issues)", len(step.Critique.Issues))))

		if showCritiques {
			for _, issue := range step.Critique.Issues {
				fmt.Printf("      - %s\n", issue)
			}
			for _, s := range step.Critique.Suggestions {
				fmt.Printf("      + %s\n", gray(s))
			}
		}
		if step.Meta != nil && step.Meta.Notes != "" {
			fmt.Printf("      %s %s\n", yellow("meta:"), step.Meta.Notes)
		}
	}

	statusColor := yellow
	switch sess.Status {
	case converge.StatusConverged:
		statusColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	case converge.StatusCanceled:
		statusColor = color.New(color.FgRed).SprintFunc()
	}
	reason := ""
	if last := sess.Last(); last != nil {
		reason = last.Verdict.Reason
	}
	fmt.Printf("\n%s %s\n", statusColor(strings.ToUpper(string(sess.Status))), reason)

	if best := sess.Best(); best != nil {
		fmt.Printf("\n%s (iteration %d, score %.2f)\n\n%s\n",
			cyan("Best response"), best.Response.Iteration, best.Critique.Score,
			best.Response.Content)
	}
}

// renderMetrics prints the one-line session summary from the collector.
func renderMetrics(collector *session.InMemoryCollector) {
	sessions := collector.Sessions()
	if len(sessions) == 0 {
		return
	}
	m := sessions[len(sessions)-1]
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("\n%s\n", gray(fmt.Sprintf("%d iterations, improvement %+.2f, %s",
		m.Iterations, m.ScoreImprovement, m.Duration.Round(time.Millisecond))))
}
