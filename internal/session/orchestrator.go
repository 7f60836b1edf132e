package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cogitolabs/ruminate/internal/config"
	"github.com/cogitolabs/ruminate/internal/converge"
	"github.com/cogitolabs/ruminate/internal/critic"
	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/types"
)

// Orchestrator drives the reflection state machine:
//
//	INIT -> GENERATING -> CRITIQUING -> (META_CRITIQUING) -> JUDGING
//	             ^                                              |
//	             +------------- REFINING <----- continue -------+
//	                                                            |
//	                                                stop -> DONE (frozen)
//
// It is the only caller of the generator, critics, refiner, and judge, and
// the only writer of session state. All side effects are oracle calls and
// in-memory history appends.
type Orchestrator struct {
	generator *Generator
	refiner   *Refiner
	critic    critic.Critic
	meta      *critic.MetaReflector
	judge     *converge.Judge
	cfg       config.Config
	collector MetricsCollector
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCritic overrides the default oracle-backed critic (e.g., with the
// deterministic rule-based critic for offline runs)
func WithCritic(c critic.Critic) Option {
	return func(o *Orchestrator) { o.critic = c }
}

// WithMetrics attaches a metrics collector. Pass nil to disable (default).
func WithMetrics(c MetricsCollector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// New validates the configuration and builds an orchestrator. Invalid
// configuration fails here, before any session exists.
func New(o oracle.Oracle, cfg config.Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	orch := &Orchestrator{
		generator: NewGenerator(o),
		refiner:   NewRefiner(o),
		critic:    critic.NewOracleCritic(o, cfg.CritiqueMode),
		judge: &converge.Judge{
			ScoreThreshold: cfg.ScoreThreshold,
			MaxIterations:  cfg.MaxIterations,
			MinImprovement: cfg.MinImprovement,
		},
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(orch)
	}

	if cfg.MetaReflection {
		orch.meta = critic.NewMetaReflector(orch.critic, o, cfg.EffectivePerspectives())
	}

	return orch, nil
}

// Run executes one full reflection session for the problem. Cancellation via
// ctx is checked at the top of every loop iteration, so a canceled session
// still returns valid, frozen history rather than a half-applied iteration.
func (o *Orchestrator) Run(ctx context.Context, problem types.Problem) (*Session, error) {
	if problem.Text == "" {
		return nil, fmt.Errorf("%w: problem text is empty", config.ErrInvalidConfig)
	}
	if problem.Domain == "" {
		problem.Domain = types.DomainGeneral
	}
	if !problem.Domain.IsValid() {
		return nil, fmt.Errorf("%w: unknown domain %q", config.ErrInvalidConfig, problem.Domain)
	}

	sess := newSession(problem, o.cfg)
	slog.Info("reflection session started",
		"session_id", sess.ID,
		"domain", problem.Domain,
		"strategy", o.cfg.Strategy,
		"critique_mode", o.cfg.CritiqueMode)

	// The stop signal is honored before generation too, so a session canceled
	// at entry ends StatusCanceled rather than surfacing a generate error.
	if ctx.Err() != nil {
		sess.finalize(converge.StatusCanceled)
		o.recordSession(sess)
		return sess, nil
	}

	current, err := o.generator.Generate(ctx, problem, o.cfg.Strategy)
	if err != nil {
		return nil, err
	}

	for {
		if ctx.Err() != nil {
			sess.finalize(converge.StatusCanceled)
			o.recordSession(sess)
			return sess, nil
		}

		iterStart := time.Now()
		if o.collector != nil {
			o.collector.RecordIterationStart(current.Iteration)
		}

		crit, metaCrit, err := o.critique(ctx, current, problem)
		if err != nil {
			return nil, err
		}

		verdict := o.judge.Decide(append(sess.Scores(), crit.Score))
		sess.append(Step{Response: current, Critique: crit, Meta: metaCrit, Verdict: verdict})
		o.recordIteration(sess, time.Since(iterStart))

		slog.Info("iteration complete",
			"session_id", sess.ID,
			"iteration", current.Iteration,
			"score", crit.Score,
			"issues", len(crit.Issues),
			"status", verdict.Status)

		if verdict.Stop() {
			sess.finalize(verdict.Status)
			o.recordSession(sess)
			return sess, nil
		}

		if ctx.Err() != nil {
			sess.finalize(converge.StatusCanceled)
			o.recordSession(sess)
			return sess, nil
		}

		current, err = o.refiner.Refine(ctx, current, crit, problem)
		if err != nil {
			return nil, err
		}
	}
}

// critique routes through the meta-reflection layer when enabled, otherwise
// through the base critic with the default perspective.
func (o *Orchestrator) critique(ctx context.Context, resp types.Response, problem types.Problem) (types.Critique, *types.MetaCritique, error) {
	if o.meta != nil {
		return o.meta.Critique(ctx, resp, problem)
	}
	crit, err := o.critic.Critique(ctx, resp, problem, types.DefaultPerspective)
	return crit, nil, err
}

func (o *Orchestrator) recordIteration(sess *Session, dur time.Duration) {
	if o.collector == nil {
		return
	}
	step := sess.Last()
	delta := 0.0
	if n := len(sess.Steps); n >= 2 {
		delta = step.Critique.Score - sess.Steps[n-2].Critique.Score
	}
	o.collector.RecordIterationEnd(step.Response.Iteration, &IterationMetrics{
		Iteration:  step.Response.Iteration,
		Score:      step.Critique.Score,
		ScoreDelta: delta,
		Issues:     len(step.Critique.Issues),
		Duration:   dur,
	})
}

func (o *Orchestrator) recordSession(sess *Session) {
	if o.collector == nil {
		return
	}
	m := &SessionMetrics{
		SessionID:  sess.ID,
		Status:     sess.Status,
		Iterations: sess.Iterations(),
		Duration:   sess.FinishedAt.Sub(sess.StartedAt),
	}
	if best := sess.Best(); best != nil {
		m.BestScore = best.Critique.Score
	}
	if last := sess.Last(); last != nil {
		m.FinalScore = last.Critique.Score
	}
	if len(sess.Steps) > 0 {
		m.ScoreImprovement = m.FinalScore - sess.Steps[0].Critique.Score
	}
	o.collector.RecordSessionComplete(sess, m)
}
