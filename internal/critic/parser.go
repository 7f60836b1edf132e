package critic

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning up LLM JSON output. Compiling per parse
// is an order of magnitude slower than reusing these.
var (
	// Matches ```json ... ``` and bare ``` ... ``` fences
	codeFenceRegex = regexp.MustCompile("(?s)`{3}(?:json)?\\s*\n?([\\s\\S]*?)\n?`{3}")

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)

	// Greedy object extraction for JSON embedded in prose
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// parseResult carries a parse outcome without panicking on bad oracle output.
type parseResult[T any] struct {
	Success bool
	Data    T
	Error   string
}

// parseJSON parses structured oracle output with fallback strategies for the
// usual LLM formatting quirks:
//
//  1. Direct JSON parse
//  2. Strip code fences and retry
//  3. Fix trailing commas and comments and retry
//  4. Extract a JSON object from surrounding prose and retry
func parseJSON[T any](text, context string) parseResult[T] {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseResult[T]{Error: "empty input"}
	}

	if data, err := tryParse[T](trimmed); err == nil {
		return parseResult[T]{Success: true, Data: data}
	} else {
		slog.Debug("direct JSON parse failed, trying cleanup strategies",
			"error", err.Error(), "context", context)
	}

	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		if data, err := tryParse[T](strings.TrimSpace(m[1])); err == nil {
			return parseResult[T]{Success: true, Data: data}
		}
	}

	cleaned := trailingCommaRegex.ReplaceAllString(trimmed, "$1")
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	if data, err := tryParse[T](cleaned); err == nil {
		return parseResult[T]{Success: true, Data: data}
	}

	if obj := objectRegex.FindString(cleaned); obj != "" {
		if data, err := tryParse[T](obj); err == nil {
			return parseResult[T]{Success: true, Data: data}
		}
	}

	return parseResult[T]{Error: fmt.Sprintf("no parse strategy succeeded for %s output", context)}
}

func tryParse[T any](text string) (T, error) {
	var data T
	err := json.Unmarshal([]byte(text), &data)
	return data, err
}
