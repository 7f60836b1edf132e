package critic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scored struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

func TestParseJSON_Direct(t *testing.T) {
	result := parseJSON[scored](`{"score": 0.8, "issues": ["x"]}`, "test")
	require.True(t, result.Success)
	assert.InDelta(t, 0.8, result.Data.Score, 1e-9)
	assert.Equal(t, []string{"x"}, result.Data.Issues)
}

func TestParseJSON_CodeFences(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json fence", "```json\n{\"score\": 0.5, \"issues\": []}\n```"},
		{"bare fence", "```\n{\"score\": 0.5, \"issues\": []}\n```"},
		{"fence with prose", "Here is my evaluation:\n```json\n{\"score\": 0.5, \"issues\": []}\n```\nLet me know if you need more."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseJSON[scored](tt.text, "test")
			require.True(t, result.Success, "error: %s", result.Error)
			assert.InDelta(t, 0.5, result.Data.Score, 1e-9)
		})
	}
}

func TestParseJSON_TrailingCommasAndComments(t *testing.T) {
	text := `{
		"score": 0.7, // looks decent
		"issues": ["too vague",],
	}`
	result := parseJSON[scored](text, "test")
	require.True(t, result.Success, "error: %s", result.Error)
	assert.InDelta(t, 0.7, result.Data.Score, 1e-9)
	assert.Equal(t, []string{"too vague"}, result.Data.Issues)
}

func TestParseJSON_EmbeddedInProse(t *testing.T) {
	text := `Sure! After reviewing the response carefully, my verdict is {"score": 0.9, "issues": []} as requested.`
	result := parseJSON[scored](text, "test")
	require.True(t, result.Success, "error: %s", result.Error)
	assert.InDelta(t, 0.9, result.Data.Score, 1e-9)
}

func TestParseJSON_Failure(t *testing.T) {
	result := parseJSON[scored]("I cannot evaluate this response.", "critique")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "critique")
}

func TestParseJSON_Empty(t *testing.T) {
	result := parseJSON[scored]("   \n ", "test")
	assert.False(t, result.Success)
	assert.Equal(t, "empty input", result.Error)
}
