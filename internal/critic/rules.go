package critic

import (
	"context"
	"strings"

	"github.com/cogitolabs/ruminate/internal/types"
)

// rule is one deterministic quality check. When check returns true the rule's
// issue and suggestion are added to the critique.
type rule struct {
	check      func(resp string, problem types.Problem) bool
	issue      string
	suggestion string
	modes      []types.CritiqueMode // empty = applies in every mode
}

// scorePenalty is deducted per triggered rule, floored at minRuleScore.
const (
	scorePenalty   = 0.12
	minRuleScore   = 0.1
	minResponseLen = 100
	maxResponseLen = 1500
)

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// baseRules are quality checks applied regardless of mode.
var baseRules = []rule{
	{
		check:      func(r string, _ types.Problem) bool { return len(r) < minResponseLen },
		issue:      "Response needs more depth and detailed explanation",
		suggestion: "Expand with concrete mechanisms, edge cases, and production considerations",
	},
	{
		check:      func(r string, _ types.Problem) bool { return len(r) > maxResponseLen },
		issue:      "Response may be too verbose",
		suggestion: "Tighten the prose and cut redundant passages",
	},
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "step", "approach", "consider", "implement", "strategy", "method")
		},
		issue:      "Missing clear methodology or actionable approach",
		suggestion: "Structure the answer around an explicit method the reader can follow",
	},
	{
		check:      func(r string, _ types.Problem) bool { return strings.Count(r, ".") < 2 },
		issue:      "Should include multiple points or considerations",
		suggestion: "Cover at least two distinct aspects of the problem",
	},
	{
		check: func(r string, p types.Problem) bool {
			lower := strings.ToLower(r)
			return p.Domain == types.DomainAlgorithms &&
				!containsAny(lower, "o(", "complexity", "time", "space", "performance")
		},
		issue:      "Algorithm discussions should address complexity analysis",
		suggestion: "Add time and space complexity for the proposed approach",
	},
	{
		check: func(r string, p types.Problem) bool {
			lower := strings.ToLower(r)
			return p.Domain == types.DomainMachineLearning &&
				!containsAny(lower, "data", "validation", "overfitting", "accuracy", "metrics")
		},
		issue:      "ML discussions should address data quality and model validation",
		suggestion: "Describe the validation strategy and the metrics that matter here",
	},
	{
		check: func(r string, p types.Problem) bool {
			lower := strings.ToLower(r)
			return p.Domain == types.DomainSystems &&
				!containsAny(lower, "scalability", "scaling", "performance", "monitoring", "availability")
		},
		issue:      "System design should consider scalability and reliability",
		suggestion: "Address scaling strategy, failure handling, and monitoring",
	},
}

// modeRules add the rubric emphasis on top of the base checks.
var modeRules = []rule{
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "trade-off", "tradeoff")
		},
		issue:      "Should explicitly discuss trade-offs and limitations",
		suggestion: "Name the costs of the chosen approach, not just its benefits",
		modes:      []types.CritiqueMode{types.ModeCritical, types.ModeComprehensive},
	},
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "risk", "challenge", "limitation", "constraint", "drawback")
		},
		issue:      "Should acknowledge potential challenges or limitations",
		suggestion: "Call out where this approach breaks down",
		modes:      []types.CritiqueMode{types.ModeCritical},
	},
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "example", "e.g.", "in practice")
		},
		issue:      "Could strengthen with concrete examples or use cases",
		suggestion: "Ground at least one claim in a concrete scenario",
		modes:      []types.CritiqueMode{types.ModeCritical, types.ModeComprehensive},
	},
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "best practice", "recommended", "established")
		},
		issue:      "Could include industry best practices or recommendations",
		suggestion: "Reference established patterns the reader can adopt",
		modes:      []types.CritiqueMode{types.ModeConstructive, types.ModeComprehensive},
	},
	{
		check: func(r string, _ types.Problem) bool {
			return !containsAny(strings.ToLower(r), "testing", "validation", "verification", "quality")
		},
		issue:      "Should mention testing or quality assurance aspects",
		suggestion: "State how correctness of the solution would be verified",
		modes:      []types.CritiqueMode{types.ModeConstructive},
	},
}

// RuleBased is a deterministic critic built on length and keyword heuristics.
// It makes no oracle calls, which keeps sessions fully reproducible - the
// default pairing with the simulator oracle.
type RuleBased struct {
	mode types.CritiqueMode
}

var _ Critic = (*RuleBased)(nil)

// NewRuleBased creates a rule-based critic for the given mode
func NewRuleBased(mode types.CritiqueMode) *RuleBased {
	return &RuleBased{mode: mode}
}

// Critique implements Critic. The perspective is accepted for interface
// compatibility; the heuristics themselves are lens-independent.
func (c *RuleBased) Critique(_ context.Context, resp types.Response, problem types.Problem, _ types.Perspective) (types.Critique, error) {
	issues := []string{}
	suggestions := []string{}

	apply := func(r rule) {
		if r.check(resp.Content, problem) {
			issues = append(issues, r.issue)
			suggestions = append(suggestions, r.suggestion)
		}
	}

	for _, r := range baseRules {
		apply(r)
	}
	for _, r := range modeRules {
		for _, m := range r.modes {
			if m == c.mode {
				apply(r)
				break
			}
		}
	}

	score := types.MaxScore - scorePenalty*float64(len(issues))
	if score < minRuleScore {
		score = minRuleScore
	}

	return types.Critique{
		Score:       score,
		Issues:      issues,
		Suggestions: suggestions,
		Mode:        c.mode,
	}, nil
}
