// Package session drives the reflection loop: generate a response, critique
// it (optionally through the meta-reflection layer), judge convergence, and
// refine until a terminal status. The orchestrator is the only writer of
// session state; every other component is a pure function over its inputs
// plus the oracle.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/cogitolabs/ruminate/internal/config"
	"github.com/cogitolabs/ruminate/internal/converge"
	"github.com/cogitolabs/ruminate/internal/types"
)

// Step is one completed loop iteration: the response, its critique, the
// optional meta-critique, and the judge's verdict after it.
type Step struct {
	Response types.Response
	Critique types.Critique
	Meta     *types.MetaCritique
	Verdict  converge.Decision
}

// Session is the full record of one reflection run. It is appended to by the
// orchestrator only, and frozen once a terminal status is set; afterwards the
// history is read-only.
type Session struct {
	// ID uniquely identifies the session
	ID string

	// Problem is the immutable problem statement the session worked on
	Problem types.Problem

	// Config is the configuration snapshot taken at session start
	Config config.Config

	// Steps is the ordered iteration history
	Steps []Step

	// Status is the terminal status; StatusRunning until finalized
	Status converge.Status

	// StartedAt and FinishedAt bound the session in time
	StartedAt  time.Time
	FinishedAt time.Time

	finalized bool
}

// newSession creates a running session with a config snapshot
func newSession(problem types.Problem, cfg config.Config) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Problem:   problem,
		Config:    cfg,
		Status:    converge.StatusRunning,
		StartedAt: time.Now(),
	}
}

// append records a completed iteration. No-op once finalized.
func (s *Session) append(step Step) {
	if s.finalized {
		return
	}
	s.Steps = append(s.Steps, step)
}

// finalize freezes the session with its terminal status
func (s *Session) finalize(status converge.Status) {
	if s.finalized {
		return
	}
	s.Status = status
	s.FinishedAt = time.Now()
	s.finalized = true
}

// Finalized reports whether the session history is frozen
func (s *Session) Finalized() bool {
	return s.finalized
}

// Iterations returns the number of completed loop iterations
func (s *Session) Iterations() int {
	return len(s.Steps)
}

// Scores returns the critique score history in iteration order
func (s *Session) Scores() []float64 {
	scores := make([]float64, len(s.Steps))
	for i, step := range s.Steps {
		scores[i] = step.Critique.Score
	}
	return scores
}

// Best returns the step with the highest critique score seen so far - not
// necessarily the last one. Returns nil for an empty session.
func (s *Session) Best() *Step {
	var best *Step
	for i := range s.Steps {
		if best == nil || s.Steps[i].Critique.Score > best.Critique.Score {
			best = &s.Steps[i]
		}
	}
	return best
}

// Last returns the most recent step, or nil for an empty session
func (s *Session) Last() *Step {
	if len(s.Steps) == 0 {
		return nil
	}
	return &s.Steps[len(s.Steps)-1]
}
