// Package converge decides when a reflection session should stop. The judge
// is stateless: every decision is derived from the recorded score history
// alone, so any verdict can be re-derived from a session trace.
package converge

import "fmt"

// Status is the terminal state of a reflection session.
type Status string

const (
	// StatusRunning indicates no stop condition has been met
	StatusRunning Status = "running"

	// StatusConverged indicates the latest score reached the threshold
	StatusConverged Status = "converged"

	// StatusExhausted indicates the refinement-cycle ceiling was reached
	StatusExhausted Status = "exhausted"

	// StatusStalled indicates two consecutive iterations improved by less
	// than the configured minimum
	StatusStalled Status = "stalled"

	// StatusCanceled indicates the caller's stop signal ended the session
	StatusCanceled Status = "canceled"
)

// IsTerminal reports whether the status ends a session
func (s Status) IsTerminal() bool {
	return s != StatusRunning && s != ""
}

// Judge evaluates the score history against the configured thresholds.
type Judge struct {
	// ScoreThreshold is the score at which the session converges
	ScoreThreshold float64

	// MaxIterations is the hard ceiling on refinement cycles, always
	// enforced regardless of score trend
	MaxIterations int

	// MinImprovement is the per-iteration gain below which an iteration
	// counts as a stall
	MinImprovement float64
}

// Decision is the judge's verdict after a critique.
type Decision struct {
	Status Status
	Reason string
}

// Stop reports whether the session should end
func (d Decision) Stop() bool {
	return d.Status.IsTerminal()
}

// Decide evaluates the full score history, where scores[i] is the critique
// score of the iteration-i response. Called after every critique.
//
// Priority order: CONVERGED wins over EXHAUSTED when both trigger on the
// same iteration, and both win over STALLED.
func (j *Judge) Decide(scores []float64) Decision {
	if len(scores) == 0 {
		return Decision{Status: StatusRunning}
	}

	latest := scores[len(scores)-1]
	if latest >= j.ScoreThreshold {
		return Decision{
			Status: StatusConverged,
			Reason: fmt.Sprintf("score %.3f reached threshold %.3f", latest, j.ScoreThreshold),
		}
	}

	// Refinement cycles completed = responses recorded minus the initial one
	if len(scores)-1 >= j.MaxIterations {
		return Decision{
			Status: StatusExhausted,
			Reason: fmt.Sprintf("reached max refinement cycles (%d)", j.MaxIterations),
		}
	}

	if len(scores) >= 3 {
		last := scores[len(scores)-1] - scores[len(scores)-2]
		prior := scores[len(scores)-2] - scores[len(scores)-3]
		if last < j.MinImprovement && prior < j.MinImprovement {
			return Decision{
				Status: StatusStalled,
				Reason: fmt.Sprintf("improvement below %.3f for two consecutive iterations (%.3f, %.3f)", j.MinImprovement, prior, last),
			}
		}
	}

	return Decision{Status: StatusRunning}
}
