package types

import (
	"fmt"
	"time"
)

// Scores are on a fixed 0.0-1.0 scale for the lifetime of a session.
// MaxScore is the top of that scale; a critique at MaxScore may have an
// empty issues list, anything below it must name at least one issue.
const MaxScore = 1.0

// Response is one candidate answer in the reflection chain. Iteration 0 comes
// from the generator; every later iteration comes from the refiner and is
// motivated by the critique of its predecessor. Immutable once created.
type Response struct {
	// Iteration is the 0-based position in the session history
	Iteration int

	// Content is the generated text
	Content string

	// Strategy is the generation strategy that produced this response
	Strategy Strategy

	// CreatedAt orders responses within a session
	CreatedAt time.Time
}

// Critique is the structured evaluation of a single response.
type Critique struct {
	// Score is the quality judgment on the 0.0-1.0 scale
	Score float64

	// Issues lists concrete flaws. Never nil; empty only at MaxScore.
	Issues []string

	// Suggestions lists actionable improvements. Never nil.
	Suggestions []string

	// Mode is the rubric emphasis used to produce this critique
	Mode CritiqueMode
}

// Validate checks the critique's well-formedness contract: score in range,
// lists non-nil, and a non-empty issues list whenever the score is below max.
func (c *Critique) Validate() error {
	if c.Score < 0 || c.Score > MaxScore {
		return fmt.Errorf("critique score %.3f outside [0, %.1f]", c.Score, MaxScore)
	}
	if c.Issues == nil {
		return fmt.Errorf("critique issues list is nil")
	}
	if c.Suggestions == nil {
		return fmt.Errorf("critique suggestions list is nil")
	}
	if c.Score < MaxScore && len(c.Issues) == 0 {
		return fmt.Errorf("critique score %.3f below max but no issues listed", c.Score)
	}
	return nil
}

// PerspectiveCritique pairs a lens with the critique it produced. Retained in
// the MetaCritique so blended scores stay inspectable.
type PerspectiveCritique struct {
	Perspective Perspective
	Critique    Critique
}

// MetaCritique is the second-order assessment of the critique process itself.
// Produced only when meta-reflection is enabled for the session.
type MetaCritique struct {
	// Score rates the critique's own quality (bias, thoroughness,
	// actionable value) on the same 0.0-1.0 scale
	Score float64

	// BlendedScore is the weighted combination of perspective scores that
	// became the effective critique score. Equals the base critique score
	// when only one perspective ran.
	BlendedScore float64

	// Notes is the meta-critic's prose assessment
	Notes string

	// Perspectives holds the individual lens critiques that were blended
	Perspectives []PerspectiveCritique
}
