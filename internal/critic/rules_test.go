package critic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogitolabs/ruminate/internal/types"
)

// strongAnswer satisfies every base and constructive-mode heuristic: method
// keywords, algorithmic complexity, testing, best practices, adequate length.
const strongAnswer = `The recommended approach is iterative pointer reversal. Step one: walk the
list with three pointers (prev, curr, next), flipping each next pointer as you
go. This method runs in O(n) time and O(1) space, the best possible complexity
for this problem. Validation: unit testing should cover the empty list, a
single node, and a long chain. This is the established best practice for
in-place reversal.`

func TestRuleBased_StrongAnswerScoresMax(t *testing.T) {
	c := NewRuleBased(types.ModeConstructive)
	problem := types.Problem{Text: "Reverse a linked list", Domain: types.DomainAlgorithms}
	resp := types.Response{Content: strongAnswer}

	critique, err := c.Critique(context.Background(), resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	assert.Empty(t, critique.Issues)
	assert.InDelta(t, types.MaxScore, critique.Score, 1e-9)
	assert.NoError(t, critique.Validate())
}

func TestRuleBased_ShortAnswerFlagsDepth(t *testing.T) {
	c := NewRuleBased(types.ModeConstructive)
	problem := types.Problem{Text: "Reverse a linked list", Domain: types.DomainAlgorithms}
	resp := types.Response{Content: "Flip the pointers."}

	critique, err := c.Critique(context.Background(), resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	assert.Contains(t, critique.Issues, "Response needs more depth and detailed explanation")
	assert.Contains(t, critique.Issues, "Algorithm discussions should address complexity analysis")
	assert.Less(t, critique.Score, types.MaxScore)
	assert.NoError(t, critique.Validate())
}

func TestRuleBased_ScorePenaltyPerIssue(t *testing.T) {
	c := NewRuleBased(types.ModeCritical)
	critique, err := c.Critique(context.Background(),
		types.Response{Content: "Flip the pointers."},
		types.Problem{Text: "x", Domain: types.DomainGeneral},
		types.DefaultPerspective)
	require.NoError(t, err)

	want := types.MaxScore - scorePenalty*float64(len(critique.Issues))
	assert.InDelta(t, want, critique.Score, 1e-9)
	assert.Len(t, critique.Suggestions, len(critique.Issues))
}

func TestRuleBased_ModeChangesChecks(t *testing.T) {
	// The answer never mentions trade-offs or limitations; only critical and
	// comprehensive modes penalize that.
	answer := strings.Replace(strongAnswer, "best possible", "efficient", 1)
	problem := types.Problem{Text: "Reverse a linked list", Domain: types.DomainAlgorithms}
	resp := types.Response{Content: answer}
	ctx := context.Background()

	constructive, err := NewRuleBased(types.ModeConstructive).Critique(ctx, resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	assert.NotContains(t, constructive.Issues, "Should explicitly discuss trade-offs and limitations")

	critical, err := NewRuleBased(types.ModeCritical).Critique(ctx, resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	assert.Contains(t, critical.Issues, "Should explicitly discuss trade-offs and limitations")
}

func TestRuleBased_Deterministic(t *testing.T) {
	c := NewRuleBased(types.ModeComprehensive)
	problem := types.Problem{Text: "Design a cache", Domain: types.DomainSystems}
	resp := types.Response{Content: "Use an LRU cache with a hash map and a doubly linked list."}
	ctx := context.Background()

	first, err := c.Critique(ctx, resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	second, err := c.Critique(ctx, resp, problem, types.DefaultPerspective)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRuleBased_DomainSpecificChecks(t *testing.T) {
	ctx := context.Background()
	c := NewRuleBased(types.ModeConstructive)
	// Long enough to dodge the depth check, no ML vocabulary at all.
	content := "Consider the overall approach first and then implement it carefully. The method should be applied consistently across the project. Review the results."

	mlCritique, err := c.Critique(ctx, types.Response{Content: content},
		types.Problem{Text: "x", Domain: types.DomainMachineLearning}, types.DefaultPerspective)
	require.NoError(t, err)
	assert.Contains(t, mlCritique.Issues, "ML discussions should address data quality and model validation")

	generalCritique, err := c.Critique(ctx, types.Response{Content: content},
		types.Problem{Text: "x", Domain: types.DomainGeneral}, types.DefaultPerspective)
	require.NoError(t, err)
	assert.NotContains(t, generalCritique.Issues, "ML discussions should address data quality and model validation")
}
