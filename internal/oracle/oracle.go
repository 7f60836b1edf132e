// Package oracle defines the text-generation boundary of the reflection
// engine. The engine treats the oracle as an opaque prompt-to-text function;
// everything behind the interface (API transport, retries, rate limits,
// simulation) is the oracle implementation's concern.
package oracle

import (
	"context"
	"fmt"

	"github.com/cogitolabs/ruminate/internal/types"
)

// Oracle is the pluggable text-generation backend. Implementations must be
// safe to call repeatedly (no required memory between calls) and, if shared
// across concurrent sessions, safe for concurrent use.
type Oracle interface {
	// Generate produces text for the given prompt. A failure surfaces as a
	// plain error here; engine components wrap it into *Error with the
	// phase and iteration at which it occurred.
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a plain function to the Oracle interface. Used
// throughout the tests for scripted and echoing stubs.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Oracle
func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Error is an oracle failure annotated with enough session context to
// reproduce it: the loop phase, the iteration index, and the prompt that
// failed (truncated for readability).
type Error struct {
	// Phase is the loop phase that issued the call
	Phase types.Phase

	// Iteration is the 0-based iteration the call belonged to
	Iteration int

	// Prompt is the (possibly truncated) prompt that failed
	Prompt string

	// Err is the underlying failure
	Err error
}

// promptContextLen bounds how much of the failed prompt is kept on the error.
const promptContextLen = 500

// WrapError annotates an oracle failure with its loop position. Returns nil
// if err is nil.
func WrapError(phase types.Phase, iteration int, prompt string, err error) error {
	if err == nil {
		return nil
	}
	if len(prompt) > promptContextLen {
		prompt = prompt[:promptContextLen] + "... (truncated)"
	}
	return &Error{Phase: phase, Iteration: iteration, Prompt: prompt, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("oracle call failed (phase=%s, iteration=%d): %v", e.Phase, e.Iteration, e.Err)
}

// Unwrap returns the underlying failure
func (e *Error) Unwrap() error {
	return e.Err
}
