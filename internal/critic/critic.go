// Package critic evaluates candidate responses into structured critiques:
// a score on the fixed 0.0-1.0 scale, concrete issues, and actionable
// suggestions. Two implementations exist - an oracle-backed critic that
// parses structured LLM output, and a deterministic rule-based critic that
// needs no oracle at all.
package critic

import (
	"context"
	"errors"
	"fmt"

	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/prompt"
	"github.com/cogitolabs/ruminate/internal/types"
)

// ErrMalformedCritique is wrapped when critic output cannot be parsed into a
// valid critique even after the single strict-prompt retry.
var ErrMalformedCritique = errors.New("malformed critique")

// Critic evaluates a response under one perspective and produces a
// well-formed critique.
type Critic interface {
	Critique(ctx context.Context, resp types.Response, problem types.Problem, perspective types.Perspective) (types.Critique, error)
}

// critiquePayload is the structured response expected from the oracle.
// Sub-scores are only present in comprehensive mode.
type critiquePayload struct {
	Score        float64  `json:"score"`
	Correctness  *float64 `json:"correctness,omitempty"`
	Clarity      *float64 `json:"clarity,omitempty"`
	Completeness *float64 `json:"completeness,omitempty"`
	Issues       []string `json:"issues"`
	Suggestions  []string `json:"suggestions"`
}

// OracleCritic asks the oracle to evaluate a response against the mode's
// rubric. A malformed reply gets exactly one retry with a stricter prompt;
// a second failure surfaces as ErrMalformedCritique.
type OracleCritic struct {
	oracle oracle.Oracle
	mode   types.CritiqueMode
}

var _ Critic = (*OracleCritic)(nil)

// NewOracleCritic creates an oracle-backed critic for the given mode
func NewOracleCritic(o oracle.Oracle, mode types.CritiqueMode) *OracleCritic {
	return &OracleCritic{oracle: o, mode: mode}
}

// Critique implements Critic
func (c *OracleCritic) Critique(ctx context.Context, resp types.Response, problem types.Problem, perspective types.Perspective) (types.Critique, error) {
	critique, err := c.attempt(ctx, resp, problem, perspective, false)
	if err == nil {
		return critique, nil
	}
	if !errors.Is(err, ErrMalformedCritique) {
		return types.Critique{}, err
	}

	// One retry with a stricter prompt; no further fallback after that.
	critique, retryErr := c.attempt(ctx, resp, problem, perspective, true)
	if retryErr != nil {
		return types.Critique{}, fmt.Errorf("critique retry failed: %w", retryErr)
	}
	return critique, nil
}

func (c *OracleCritic) attempt(ctx context.Context, resp types.Response, problem types.Problem, perspective types.Perspective, strict bool) (types.Critique, error) {
	p := prompt.Critique(resp, c.mode, problem, perspective, strict)

	raw, err := c.oracle.Generate(ctx, p)
	if err != nil {
		return types.Critique{}, oracle.WrapError(types.PhaseCritique, resp.Iteration, p, err)
	}

	parsed := parseJSON[critiquePayload](raw, "critique")
	if !parsed.Success {
		return types.Critique{}, fmt.Errorf("%w: %s", ErrMalformedCritique, parsed.Error)
	}

	payload := parsed.Data

	score := payload.Score
	if c.mode == types.ModeComprehensive && payload.Correctness != nil && payload.Clarity != nil && payload.Completeness != nil {
		// The overall score is defined as the sub-score average; recompute
		// rather than trusting the oracle's arithmetic.
		score = (*payload.Correctness + *payload.Clarity + *payload.Completeness) / 3
	}

	critique := types.Critique{
		Score:       score,
		Issues:      payload.Issues,
		Suggestions: payload.Suggestions,
		Mode:        c.mode,
	}
	if critique.Issues == nil {
		critique.Issues = []string{}
	}
	if critique.Suggestions == nil {
		critique.Suggestions = []string{}
	}

	if err := critique.Validate(); err != nil {
		return types.Critique{}, fmt.Errorf("%w: %v", ErrMalformedCritique, err)
	}
	return critique, nil
}
