package session

import (
	"sort"
	"time"

	"github.com/cogitolabs/ruminate/internal/converge"
)

// MetricsCollector provides optional instrumentation for reflection runs.
// Implementations can track per-iteration and per-session metrics to measure
// score progression, convergence behavior, and latency. Pass nil to the
// orchestrator to disable collection.
type MetricsCollector interface {
	// RecordIterationStart is called at the top of each loop iteration
	RecordIterationStart(iteration int)

	// RecordIterationEnd is called after each critique lands
	RecordIterationEnd(iteration int, m *IterationMetrics)

	// RecordSessionComplete is called once, when the session is frozen
	RecordSessionComplete(s *Session, m *SessionMetrics)

	// Aggregate returns rolled-up statistics across all recorded sessions
	Aggregate() *AggregateMetrics
}

// IterationMetrics captures one loop iteration.
type IterationMetrics struct {
	// Iteration is the 0-based iteration index
	Iteration int

	// Score is the critique score for this iteration
	Score float64

	// ScoreDelta is the change from the previous iteration's score
	// (zero for iteration 0)
	ScoreDelta float64

	// Issues is the number of issues the critique raised
	Issues int

	// Duration covers critique through judgment for this iteration
	Duration time.Duration
}

// SessionMetrics captures one finished session.
type SessionMetrics struct {
	SessionID  string
	Status     converge.Status
	Iterations int

	// BestScore is the highest critique score seen in the session
	BestScore float64

	// FinalScore is the last critique score
	FinalScore float64

	// ScoreImprovement is FinalScore minus the iteration-0 score
	ScoreImprovement float64

	Duration time.Duration

	// IterationMetrics holds the per-iteration records
	IterationMetrics []*IterationMetrics
}

// AggregateMetrics summarizes convergence behavior across sessions.
type AggregateMetrics struct {
	TotalSessions     int
	ConvergedSessions int
	ExhaustedSessions int
	StalledSessions   int
	CanceledSessions  int

	TotalIterations int
	MeanIterations  float64

	// P50Iterations and P95Iterations are iteration-count percentiles for
	// sessions that converged
	P50Iterations int
	P95Iterations int

	MeanScoreImprovement float64
	TotalDuration        time.Duration
}

// ConvergenceRate returns the percentage of sessions that converged
func (a *AggregateMetrics) ConvergenceRate() float64 {
	if a.TotalSessions == 0 {
		return 0.0
	}
	return float64(a.ConvergedSessions) / float64(a.TotalSessions) * 100
}

// InMemoryCollector is a simple in-memory MetricsCollector for analysis and
// testing. Not safe for concurrent sessions; give each session its own, or
// wrap access externally.
type InMemoryCollector struct {
	sessions          []*SessionMetrics
	currentIterations []*IterationMetrics
}

var _ MetricsCollector = (*InMemoryCollector)(nil)

// NewInMemoryCollector creates an empty collector
func NewInMemoryCollector() *InMemoryCollector {
	return &InMemoryCollector{}
}

// RecordIterationStart implements MetricsCollector
func (c *InMemoryCollector) RecordIterationStart(iteration int) {
	_ = iteration // recorded at iteration end
}

// RecordIterationEnd implements MetricsCollector
func (c *InMemoryCollector) RecordIterationEnd(iteration int, m *IterationMetrics) {
	if m == nil {
		return
	}
	c.currentIterations = append(c.currentIterations, m)
}

// RecordSessionComplete implements MetricsCollector
func (c *InMemoryCollector) RecordSessionComplete(_ *Session, m *SessionMetrics) {
	if m == nil {
		return
	}
	m.IterationMetrics = c.currentIterations
	c.sessions = append(c.sessions, m)
	c.currentIterations = nil
}

// Sessions returns all recorded session metrics
func (c *InMemoryCollector) Sessions() []*SessionMetrics {
	return c.sessions
}

// Aggregate implements MetricsCollector
func (c *InMemoryCollector) Aggregate() *AggregateMetrics {
	agg := &AggregateMetrics{}

	var convergedIterations []int
	var improvementSum float64

	for _, s := range c.sessions {
		agg.TotalSessions++
		agg.TotalIterations += s.Iterations
		agg.TotalDuration += s.Duration
		improvementSum += s.ScoreImprovement

		switch s.Status {
		case converge.StatusConverged:
			agg.ConvergedSessions++
			convergedIterations = append(convergedIterations, s.Iterations)
		case converge.StatusExhausted:
			agg.ExhaustedSessions++
		case converge.StatusStalled:
			agg.StalledSessions++
		case converge.StatusCanceled:
			agg.CanceledSessions++
		}
	}

	if agg.TotalSessions > 0 {
		agg.MeanIterations = float64(agg.TotalIterations) / float64(agg.TotalSessions)
		agg.MeanScoreImprovement = improvementSum / float64(agg.TotalSessions)
	}

	if len(convergedIterations) > 0 {
		sort.Ints(convergedIterations)
		agg.P50Iterations = percentile(convergedIterations, 50)
		agg.P95Iterations = percentile(convergedIterations, 95)
	}

	return agg
}

// percentile returns the Nth percentile from a sorted slice
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}
	index := (len(sorted) * p) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
