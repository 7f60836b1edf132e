package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cogitolabs/ruminate/internal/config"
	"github.com/cogitolabs/ruminate/internal/converge"
	"github.com/cogitolabs/ruminate/internal/critic"
	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/types"
)

// echoOracle returns numbered responses and records every prompt it sees.
type echoOracle struct {
	prompts []string
	failOn  int // 1-based call number to fail on; 0 = never
}

func (e *echoOracle) Generate(_ context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	if e.failOn > 0 && len(e.prompts) == e.failOn {
		return "", errors.New("oracle unavailable")
	}
	return fmt.Sprintf("response %d", len(e.prompts)), nil
}

// scriptedCritic replays a fixed score sequence. Scores below max carry a
// distinct issue and suggestion per call.
type scriptedCritic struct {
	scores []float64
	calls  int
	onCall func(n int)
}

func (s *scriptedCritic) Critique(_ context.Context, _ types.Response, _ types.Problem, _ types.Perspective) (types.Critique, error) {
	if s.calls >= len(s.scores) {
		return types.Critique{}, fmt.Errorf("scripted critic exhausted after %d calls", s.calls)
	}
	score := s.scores[s.calls]
	s.calls++
	if s.onCall != nil {
		s.onCall(s.calls)
	}

	c := types.Critique{
		Score:       score,
		Issues:      []string{},
		Suggestions: []string{},
		Mode:        types.ModeConstructive,
	}
	if score < types.MaxScore {
		c.Issues = []string{fmt.Sprintf("issue %d", s.calls)}
		c.Suggestions = []string{fmt.Sprintf("suggestion %d", s.calls)}
	}
	return c, nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxIterations = 3
	cfg.ScoreThreshold = 0.9
	cfg.MinImprovement = 0.01
	return cfg
}

var algoProblem = types.Problem{Text: "Reverse a linked list", Domain: types.DomainAlgorithms}

func TestRun_ConvergesOnThreshold(t *testing.T) {
	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{0.5, 0.75, 0.92}}

	orch, err := New(o, testConfig(), WithCritic(c))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sess.Status != converge.StatusConverged {
		t.Errorf("expected converged, got %s", sess.Status)
	}
	if !sess.Finalized() {
		t.Error("terminal session should be frozen")
	}
	if got := sess.Iterations(); got != 3 {
		t.Errorf("expected 3 iterations, got %d", got)
	}
	// 1 generation + 2 refinements; the third critique converged
	if len(o.prompts) != 3 {
		t.Errorf("expected 3 oracle calls, got %d", len(o.prompts))
	}

	wantScores := []float64{0.5, 0.75, 0.92}
	for i, s := range sess.Scores() {
		if s != wantScores[i] {
			t.Errorf("score[%d] = %v, want %v", i, s, wantScores[i])
		}
	}
	for i, step := range sess.Steps {
		if step.Response.Iteration != i {
			t.Errorf("step %d has response iteration %d", i, step.Response.Iteration)
		}
	}
	if best := sess.Best(); best == nil || best.Critique.Score != 0.92 {
		t.Errorf("unexpected best step: %+v", best)
	}
}

func TestRun_ExhaustsAfterMaxIterations(t *testing.T) {
	o := &echoOracle{}
	// Never reaches the threshold, never stalls (flat scores with zero
	// MinImprovement never trigger the stall check)
	c := &scriptedCritic{scores: []float64{0.5, 0.55, 0.6, 0.65}}

	cfg := testConfig()
	cfg.MinImprovement = 0
	orch, err := New(o, cfg, WithCritic(c))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sess.Status != converge.StatusExhausted {
		t.Errorf("expected exhausted, got %s", sess.Status)
	}
	// Initial response plus exactly MaxIterations refinement cycles
	if got := sess.Iterations(); got != 4 {
		t.Errorf("expected 4 steps (1 initial + 3 refinements), got %d", got)
	}
	if len(o.prompts) != 4 {
		t.Errorf("expected 4 oracle calls, got %d", len(o.prompts))
	}
}

func TestRun_ConvergedBeatsExhaustedOnFinalIteration(t *testing.T) {
	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{0.5, 0.6, 0.7, 0.95}}

	cfg := testConfig()
	cfg.MinImprovement = 0
	orch, _ := New(o, cfg, WithCritic(c))

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.Status != converge.StatusConverged {
		t.Errorf("threshold reached on the last allowed iteration should converge, got %s", sess.Status)
	}
}

func TestRun_StallsOnPlateau(t *testing.T) {
	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{0.5, 0.505, 0.508}}

	cfg := testConfig()
	cfg.MaxIterations = 10
	orch, _ := New(o, cfg, WithCritic(c))

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.Status != converge.StatusStalled {
		t.Errorf("expected stalled, got %s", sess.Status)
	}
	if got := sess.Iterations(); got != 3 {
		t.Errorf("expected stall detected at 3 steps, got %d", got)
	}
}

func TestRun_RefinementPromptCarriesAllFeedback(t *testing.T) {
	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{0.5, 0.95}}

	orch, _ := New(o, testConfig(), WithCritic(c))
	if _, err := orch.Run(context.Background(), algoProblem); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(o.prompts) != 2 {
		t.Fatalf("expected generation + one refinement, got %d prompts", len(o.prompts))
	}
	refinement := o.prompts[1]
	if !strings.Contains(refinement, "issue 1") {
		t.Error("refinement prompt missing the critique's issue")
	}
	if !strings.Contains(refinement, "suggestion 1") {
		t.Error("refinement prompt missing the critique's suggestion")
	}
	if !strings.Contains(refinement, "response 1") {
		t.Error("refinement prompt missing the previous response")
	}
}

func TestRun_BestSurvivesRegression(t *testing.T) {
	o := &echoOracle{}
	// Score regresses after the peak; best and last must differ
	c := &scriptedCritic{scores: []float64{0.5, 0.8, 0.6}}

	cfg := testConfig()
	cfg.MaxIterations = 2
	cfg.MinImprovement = 0
	orch, _ := New(o, cfg, WithCritic(c))

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.Status != converge.StatusExhausted {
		t.Fatalf("expected exhausted, got %s", sess.Status)
	}
	if best := sess.Best(); best.Critique.Score != 0.8 {
		t.Errorf("best score = %v, want 0.8", best.Critique.Score)
	}
	if last := sess.Last(); last.Critique.Score != 0.6 {
		t.Errorf("last score = %v, want 0.6", last.Critique.Score)
	}
}

func TestRun_CancellationFreezesSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{0.5, 0.6, 0.7}}
	c.onCall = func(n int) {
		if n == 1 {
			cancel()
		}
	}

	cfg := testConfig()
	cfg.MaxIterations = 10
	cfg.MinImprovement = 0
	orch, _ := New(o, cfg, WithCritic(c))

	sess, err := orch.Run(ctx, algoProblem)
	if err != nil {
		t.Fatalf("canceled run should still return the session, got error: %v", err)
	}
	if sess.Status != converge.StatusCanceled {
		t.Errorf("expected canceled, got %s", sess.Status)
	}
	if !sess.Finalized() {
		t.Error("canceled session should be frozen")
	}
	// The completed iteration is kept; no half-applied refinement follows
	if got := sess.Iterations(); got != 1 {
		t.Errorf("expected 1 completed iteration, got %d", got)
	}
	if len(o.prompts) != 1 {
		t.Errorf("no refinement call should happen after cancellation, got %d oracle calls", len(o.prompts))
	}

	// Frozen means frozen: further appends are dropped
	sess.append(Step{})
	if got := sess.Iterations(); got != 1 {
		t.Errorf("append after finalize should be a no-op, got %d steps", got)
	}
}

func TestRun_CanceledBeforeStartSkipsGeneration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &echoOracle{}
	orch, _ := New(o, testConfig(), WithCritic(&scriptedCritic{}))

	sess, err := orch.Run(ctx, algoProblem)
	if err != nil {
		t.Fatalf("canceled run should still return the session, got error: %v", err)
	}
	if sess.Status != converge.StatusCanceled {
		t.Errorf("expected canceled, got %s", sess.Status)
	}
	if !sess.Finalized() {
		t.Error("canceled session should be frozen")
	}
	if sess.Iterations() != 0 {
		t.Errorf("expected no iterations, got %d", sess.Iterations())
	}
	if len(o.prompts) != 0 {
		t.Errorf("no oracle call should happen after cancellation, got %d", len(o.prompts))
	}
}

func TestRun_MetaReflectionOfflineWithSimulator(t *testing.T) {
	// The no-API-key pairing must survive meta-reflection: the simulator has
	// to answer the second-order audit prompt with parsable JSON.
	cfg := testConfig()
	cfg.MetaReflection = true
	cfg.Perspectives = []types.Perspective{
		{Name: "optimist", Stance: "Look for what works."},
		{Name: "skeptic", Stance: "Look for what breaks."},
	}

	orch, err := New(oracle.NewSimulator(7), cfg, WithCritic(critic.NewRuleBased(cfg.CritiqueMode)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("offline meta-reflection run failed: %v", err)
	}

	if !sess.Finalized() || sess.Status == converge.StatusCanceled {
		t.Fatalf("expected a terminal status, got %s", sess.Status)
	}
	if sess.Iterations() == 0 {
		t.Fatal("expected at least one iteration")
	}
	for i, step := range sess.Steps {
		if step.Meta == nil {
			t.Fatalf("step %d missing meta-critique", i)
		}
		if step.Meta.Score <= 0 || step.Meta.Score > types.MaxScore {
			t.Errorf("step %d meta score %v outside the 0-1 scale", i, step.Meta.Score)
		}
		if step.Meta.Notes == "" {
			t.Errorf("step %d meta-critique has no notes", i)
		}
		if len(step.Meta.Perspectives) != 2 {
			t.Errorf("step %d has %d perspective critiques, want 2", i, len(step.Meta.Perspectives))
		}
	}
}

func TestRun_EmptyProblemRejected(t *testing.T) {
	orch, _ := New(&echoOracle{}, testConfig(), WithCritic(&scriptedCritic{}))
	_, err := orch.Run(context.Background(), types.Problem{})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_UnknownDomainRejected(t *testing.T) {
	orch, _ := New(&echoOracle{}, testConfig(), WithCritic(&scriptedCritic{}))
	_, err := orch.Run(context.Background(), types.Problem{Text: "x", Domain: "quantum"})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_EmptyDomainDefaultsToGeneral(t *testing.T) {
	o := &echoOracle{}
	c := &scriptedCritic{scores: []float64{1.0}}
	orch, _ := New(o, testConfig(), WithCritic(c))

	sess, err := orch.Run(context.Background(), types.Problem{Text: "anything"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sess.Problem.Domain != types.DomainGeneral {
		t.Errorf("expected general domain, got %s", sess.Problem.Domain)
	}
}

func TestNew_InvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 0
	if _, err := New(&echoOracle{}, cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_GenerationErrorCarriesPhase(t *testing.T) {
	o := &echoOracle{failOn: 1}
	orch, _ := New(o, testConfig(), WithCritic(&scriptedCritic{}))

	_, err := orch.Run(context.Background(), algoProblem)
	if err == nil {
		t.Fatal("expected error")
	}
	var oerr *oracle.Error
	if !errors.As(err, &oerr) {
		t.Fatalf("expected *oracle.Error, got %T: %v", err, err)
	}
	if oerr.Phase != types.PhaseGenerate {
		t.Errorf("expected generate phase, got %s", oerr.Phase)
	}
	if oerr.Iteration != 0 {
		t.Errorf("expected iteration 0, got %d", oerr.Iteration)
	}
}

func TestRun_RefinementErrorCarriesPhase(t *testing.T) {
	o := &echoOracle{failOn: 2}
	c := &scriptedCritic{scores: []float64{0.5}}
	orch, _ := New(o, testConfig(), WithCritic(c))

	_, err := orch.Run(context.Background(), algoProblem)
	if err == nil {
		t.Fatal("expected error")
	}
	var oerr *oracle.Error
	if !errors.As(err, &oerr) {
		t.Fatalf("expected *oracle.Error, got %T: %v", err, err)
	}
	if oerr.Phase != types.PhaseRefine {
		t.Errorf("expected refine phase, got %s", oerr.Phase)
	}
	if oerr.Iteration != 1 {
		t.Errorf("expected iteration 1, got %d", oerr.Iteration)
	}
}

func TestRun_MetaReflectionAttachesMetaCritique(t *testing.T) {
	// The meta layer needs the oracle for its audit call, so the echo oracle
	// must answer with parsable JSON there. Use a rule-based critic under the
	// meta layer and a JSON-speaking oracle.
	o := oracle.GenerateFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "auditing the quality of a critique") {
			return `{"score": 0.8, "notes": "reasonable critique"}`, nil
		}
		return "A thorough answer: consider the approach step by step.", nil
	})

	cfg := testConfig()
	cfg.MetaReflection = true
	cfg.MaxIterations = 1
	cfg.MinImprovement = 0
	cfg.Perspectives = []types.Perspective{
		{Name: "optimist", Stance: "find strengths"},
		{Name: "skeptic", Stance: "find flaws"},
	}

	orch, err := New(o, cfg, WithCritic(critic.NewRuleBased(cfg.CritiqueMode)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sess, err := orch.Run(context.Background(), algoProblem)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, step := range sess.Steps {
		if step.Meta == nil {
			t.Fatalf("step %d missing meta-critique", i)
		}
		if step.Meta.Score != 0.8 {
			t.Errorf("step %d meta score = %v, want 0.8", i, step.Meta.Score)
		}
		if len(step.Meta.Perspectives) != 2 {
			t.Errorf("step %d has %d perspective critiques, want 2", i, len(step.Meta.Perspectives))
		}
	}
}

func TestRun_SimulatorWithRuleBasedCriticIsDeterministic(t *testing.T) {
	run := func() *Session {
		cfg := testConfig()
		orch, err := New(oracle.NewSimulator(7), cfg, WithCritic(critic.NewRuleBased(cfg.CritiqueMode)))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		sess, err := orch.Run(context.Background(), algoProblem)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return sess
	}

	a, b := run(), run()

	if !a.Finalized() || a.Status == converge.StatusRunning || a.Status == converge.StatusCanceled {
		t.Fatalf("expected a terminal status, got %s", a.Status)
	}
	if a.Iterations() == 0 {
		t.Fatal("expected at least one iteration")
	}
	if a.Status != b.Status || a.Iterations() != b.Iterations() {
		t.Errorf("offline runs diverged: %s/%d vs %s/%d", a.Status, a.Iterations(), b.Status, b.Iterations())
	}
	for i, s := range a.Scores() {
		if s < 0 || s > types.MaxScore {
			t.Errorf("score[%d] = %v outside the 0-1 scale", i, s)
		}
		if s != b.Scores()[i] {
			t.Errorf("score[%d] diverged between identical runs", i)
		}
	}
}
