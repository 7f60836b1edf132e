// Package prompt constructs the prompts the engine sends across the oracle
// boundary. Each enumerated strategy and critique mode maps to a fixed
// prompt-construction function through a dispatch table, so dispatch is
// exhaustive and statically checkable rather than relying on dynamic
// "personality" objects.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cogitolabs/ruminate/internal/types"
)

// Markers give prompts a stable structure that both the simulator oracle and
// the refinement-completeness tests key on.
const (
	RefinementMarker  = "ISSUES TO ADDRESS:"
	SuggestionsMarker = "SUGGESTIONS TO INCORPORATE:"
	MetaAuditMarker   = "auditing the quality of a critique"
)

// domainGuidance steers generation toward domain-appropriate concerns.
var domainGuidance = map[types.Domain]string{
	types.DomainGeneral:         "Give a practical, well-reasoned answer.",
	types.DomainAlgorithms:      "Address correctness, time and space complexity, and edge cases.",
	types.DomainMachineLearning: "Address data quality, validation strategy, and overfitting risks.",
	types.DomainSystems:         "Address scalability, failure modes, and operational concerns.",
}

// generationBuilders is the strategy dispatch table for initial generation.
var generationBuilders = map[types.Strategy]func(types.Problem) string{
	types.StrategyTechnical:  buildTechnical,
	types.StrategyCreative:   buildCreative,
	types.StrategySystematic: buildSystematic,
}

// Generation builds the iteration-0 prompt for the given problem and strategy.
func Generation(problem types.Problem, strategy types.Strategy) string {
	build, ok := generationBuilders[strategy]
	if !ok {
		// Config validation rejects unknown strategies before any session
		// starts, so this is unreachable in practice.
		build = buildTechnical
	}
	return build(problem)
}

func buildTechnical(p types.Problem) string {
	return fmt.Sprintf(`Solve the following problem with precise, formal, implementation-focused reasoning.

PROBLEM:
%s

%s

Be specific about implementation details, performance characteristics, and technical constraints. Prefer concrete mechanisms over generalities.`,
		p.Text, domainGuidance[p.Domain])
}

func buildCreative(p types.Problem) string {
	return fmt.Sprintf(`Solve the following problem with exploratory, unconventional thinking.

PROBLEM:
%s

%s

Challenge the standard approach. Consider ideas from adjacent fields, hybrid techniques, or reframings of the problem itself, while keeping the answer actionable.`,
		p.Text, domainGuidance[p.Domain])
}

func buildSystematic(p types.Problem) string {
	return fmt.Sprintf(`Solve the following problem with a step-by-step, structured methodology.

PROBLEM:
%s

%s

Structure your answer as numbered phases: problem analysis, solution design, implementation, and validation. Each phase should state what is done and why.`,
		p.Text, domainGuidance[p.Domain])
}

// critiqueRubrics is the mode dispatch table for critique emphasis.
var critiqueRubrics = map[types.CritiqueMode]string{
	types.ModeCritical: `Weigh flaws heavily. Hunt for errors, unstated trade-offs, missing limitations, and unsupported claims. A response without acknowledged limitations or concrete examples should score lower.`,
	types.ModeConstructive: `Balance flaws against actionable fixes. For every issue you raise, provide a suggestion that would resolve it. Credit the response for methodology, testing and quality-assurance considerations.`,
	types.ModeComprehensive: `Score three sub-dimensions separately - correctness, clarity, and completeness - each 0.0-1.0, and report the overall score as their average. Cover all three even when one dominates.`,
}

// Critique builds the evaluation prompt for a response. The perspective's
// stance is injected so multiple lenses can critique the same response.
// When strict is set (the one retry after a malformed critique), the prompt
// demands bare JSON with no surrounding prose.
func Critique(resp types.Response, mode types.CritiqueMode, problem types.Problem, perspective types.Perspective, strict bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are evaluating a candidate response to a problem.

PERSPECTIVE: %s

PROBLEM (domain: %s):
%s

RESPONSE (iteration %d):
%s

RUBRIC:
%s

%s
`,
		perspective.Stance,
		problem.Domain, problem.Text,
		resp.Iteration, resp.Content,
		critiqueRubrics[mode],
		domainGuidance[problem.Domain])

	if mode == types.ModeComprehensive {
		b.WriteString(`
Respond with JSON:
{
  "score": 0.0-1.0,
  "correctness": 0.0-1.0,
  "clarity": 0.0-1.0,
  "completeness": 0.0-1.0,
  "issues": ["..."],
  "suggestions": ["..."]
}
The score must equal the average of the three sub-scores.`)
	} else {
		b.WriteString(`
Respond with JSON:
{
  "score": 0.0-1.0,
  "issues": ["..."],
  "suggestions": ["..."]
}`)
	}

	b.WriteString(`
A score below 1.0 requires at least one issue. Issues and suggestions must be concrete and specific to this response.`)

	if strict {
		b.WriteString(`

IMPORTANT: Your previous reply could not be parsed. Respond with ONLY the JSON object - no code fences, no commentary, no text before or after it.`)
	}

	return b.String()
}

// Refinement builds the prompt that turns a critiqued response into the next
// iteration. Every issue and suggestion from the critique appears verbatim;
// dropping any would break the addresses-feedback contract between critic
// and refiner.
func Refinement(prev types.Response, critique types.Critique, strategy types.Strategy, problem types.Problem) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Improve the following response to a problem. Keep what works; fix what the critique found.

PROBLEM (domain: %s):
%s

PREVIOUS RESPONSE (iteration %d, scored %.2f):
%s

%s
`, problem.Domain, problem.Text, prev.Iteration, critique.Score, prev.Content, RefinementMarker)

	for _, issue := range critique.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}

	if len(critique.Suggestions) > 0 {
		b.WriteString("\n" + SuggestionsMarker + "\n")
		for _, s := range critique.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	fmt.Fprintf(&b, `
Address every listed issue. %s Produce the complete improved response, not a diff.`,
		strategyReminder(strategy))

	return b.String()
}

func strategyReminder(s types.Strategy) string {
	switch s {
	case types.StrategyCreative:
		return "Keep the exploratory tone of the original."
	case types.StrategySystematic:
		return "Preserve the step-by-step structure."
	default:
		return "Stay precise and implementation-focused."
	}
}

// MetaCritique builds the second-order prompt that evaluates the critique
// process itself.
func MetaCritique(critique types.Critique, resp types.Response, problem types.Problem) string {
	return fmt.Sprintf(`You are `+MetaAuditMarker+`, not the response it evaluated.

PROBLEM (domain: %s):
%s

RESPONSE BEING CRITIQUED (iteration %d):
%s

THE CRITIQUE (mode: %s, score: %.2f):
Issues: %s
Suggestions: %s

Assess the critique itself on three dimensions:
1. Bias - does it over- or under-weight certain kinds of flaws?
2. Thoroughness - did it miss obvious problems or invent trivial ones?
3. Actionable value - could the author act on it to improve the response?

Respond with JSON:
{
  "score": 0.0-1.0,
  "notes": "1-3 sentences on the critique's quality"
}`,
		problem.Domain, problem.Text,
		resp.Iteration, resp.Content,
		critique.Mode, critique.Score,
		bulleted(critique.Issues), bulleted(critique.Suggestions))
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return "\n- " + strings.Join(items, "\n- ")
}
