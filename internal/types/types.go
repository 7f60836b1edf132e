// Package types defines the shared value types for the reflection engine:
// problems, generation strategies, critique modes, and the structured
// critique/response records that flow between the engine components.
package types

// Domain classifies a problem so prompts and rubrics can be domain-aware.
type Domain string

const (
	// DomainGeneral is the fallback for problems with no specific domain
	DomainGeneral Domain = "general"

	// DomainAlgorithms covers algorithms and CS fundamentals
	DomainAlgorithms Domain = "algorithms"

	// DomainMachineLearning covers ML/data problems
	DomainMachineLearning Domain = "machine_learning"

	// DomainSystems covers systems and architecture problems
	DomainSystems Domain = "systems"
)

// IsValid checks if the domain value is valid
func (d Domain) IsValid() bool {
	switch d {
	case DomainGeneral, DomainAlgorithms, DomainMachineLearning, DomainSystems:
		return true
	}
	return false
}

// Strategy selects the phrasing and tone of generation prompts.
//
// Each strategy maps to a fixed prompt-construction function (see the prompt
// package). The set is closed; dispatch over it is exhaustive.
type Strategy string

const (
	// StrategyTechnical requests precise, implementation-focused responses
	StrategyTechnical Strategy = "technical"

	// StrategyCreative requests exploratory, unconventional responses
	StrategyCreative Strategy = "creative"

	// StrategySystematic requests step-by-step structured responses
	StrategySystematic Strategy = "systematic"
)

// IsValid checks if the strategy value is valid
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyTechnical, StrategyCreative, StrategySystematic:
		return true
	}
	return false
}

// CritiqueMode selects the evaluation rubric's emphasis.
type CritiqueMode string

const (
	// ModeCritical maximizes weight on flaws and limitations
	ModeCritical CritiqueMode = "critical"

	// ModeConstructive balances flaws with actionable fixes
	ModeConstructive CritiqueMode = "constructive"

	// ModeComprehensive scores correctness, clarity, and completeness
	// as three sub-scores averaged into one
	ModeComprehensive CritiqueMode = "comprehensive"
)

// IsValid checks if the critique mode value is valid
func (m CritiqueMode) IsValid() bool {
	switch m {
	case ModeCritical, ModeConstructive, ModeComprehensive:
		return true
	}
	return false
}

// Problem is the immutable statement the engine works on. Created by the
// caller and never mutated by the engine.
type Problem struct {
	// Text is the problem statement
	Text string

	// Domain classifies the problem for domain-aware prompts and rubrics
	Domain Domain

	// Metadata carries optional caller-supplied context (never interpreted
	// by the engine, surfaced in traces only)
	Metadata map[string]string
}

// Perspective is an independent critique lens. When a session configures
// multiple perspectives, the critic runs once per perspective and the scores
// are blended by weight into the critique handed to the refiner and judge.
type Perspective struct {
	// Name identifies the lens (e.g., "optimist", "skeptic", "pragmatist")
	Name string

	// Stance is injected into the critique prompt to bias the lens
	Stance string

	// Weight is the blending weight. Zero means "share equally with the
	// other zero-weight perspectives".
	Weight float64
}

// DefaultPerspective is the single lens used when none are configured.
var DefaultPerspective = Perspective{
	Name:   "default",
	Stance: "Evaluate the response as a careful, impartial reviewer.",
}
