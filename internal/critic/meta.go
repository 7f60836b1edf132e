package critic

import (
	"context"
	"fmt"

	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/prompt"
	"github.com/cogitolabs/ruminate/internal/types"
)

// MetaReflector wraps a base critic with second-order reflection: it runs the
// critic once per configured perspective, blends the scores into a single
// composite critique, then asks the oracle to assess the critique process
// itself. The orchestrator always receives one critique plus one
// MetaCritique, regardless of how many internal oracle calls were made.
type MetaReflector struct {
	critic       Critic
	oracle       oracle.Oracle
	perspectives []types.Perspective
}

// NewMetaReflector creates the meta-reflection layer around a base critic.
// An empty perspective list falls back to the single default lens.
func NewMetaReflector(c Critic, o oracle.Oracle, perspectives []types.Perspective) *MetaReflector {
	if len(perspectives) == 0 {
		perspectives = []types.Perspective{types.DefaultPerspective}
	}
	return &MetaReflector{critic: c, oracle: o, perspectives: perspectives}
}

// metaPayload is the structured meta-critique response from the oracle.
type metaPayload struct {
	Score float64 `json:"score"`
	Notes string  `json:"notes"`
}

// Critique runs the perspective critiques, blends them, and issues the
// second-order oracle call.
func (m *MetaReflector) Critique(ctx context.Context, resp types.Response, problem types.Problem) (types.Critique, *types.MetaCritique, error) {
	perCritiques := make([]types.PerspectiveCritique, 0, len(m.perspectives))
	for _, p := range m.perspectives {
		c, err := m.critic.Critique(ctx, resp, problem, p)
		if err != nil {
			return types.Critique{}, nil, fmt.Errorf("perspective %q critique failed: %w", p.Name, err)
		}
		perCritiques = append(perCritiques, types.PerspectiveCritique{Perspective: p, Critique: c})
	}

	blended := Blend(perCritiques)

	metaPrompt := prompt.MetaCritique(blended, resp, problem)
	raw, err := m.oracle.Generate(ctx, metaPrompt)
	if err != nil {
		return types.Critique{}, nil, oracle.WrapError(types.PhaseMetaCritique, resp.Iteration, metaPrompt, err)
	}

	parsed := parseJSON[metaPayload](raw, "meta-critique")
	if !parsed.Success {
		return types.Critique{}, nil, oracle.WrapError(types.PhaseMetaCritique, resp.Iteration, metaPrompt,
			fmt.Errorf("unparsable meta-critique: %s", parsed.Error))
	}

	meta := &types.MetaCritique{
		Score:        parsed.Data.Score,
		BlendedScore: blended.Score,
		Notes:        parsed.Data.Notes,
		Perspectives: perCritiques,
	}
	return blended, meta, nil
}

// Blend combines perspective critiques into one composite critique using a
// weighted score average (equal weights when none are configured) and the
// deduplicated union of issues and suggestions.
func Blend(perCritiques []types.PerspectiveCritique) types.Critique {
	if len(perCritiques) == 1 {
		return perCritiques[0].Critique
	}

	total := 0.0
	for _, pc := range perCritiques {
		total += pc.Perspective.Weight
	}

	score := 0.0
	for _, pc := range perCritiques {
		w := pc.Perspective.Weight / total
		if total == 0 {
			w = 1.0 / float64(len(perCritiques))
		}
		score += w * pc.Critique.Score
	}

	seen := make(map[string]bool)
	issues := []string{}
	suggestions := []string{}
	for _, pc := range perCritiques {
		for _, issue := range pc.Critique.Issues {
			if !seen["i:"+issue] {
				seen["i:"+issue] = true
				issues = append(issues, issue)
			}
		}
		for _, s := range pc.Critique.Suggestions {
			if !seen["s:"+s] {
				seen["s:"+s] = true
				suggestions = append(suggestions, s)
			}
		}
	}

	return types.Critique{
		Score:       score,
		Issues:      issues,
		Suggestions: suggestions,
		Mode:        perCritiques[0].Critique.Mode,
	}
}
