package session

import (
	"context"
	"time"

	"github.com/cogitolabs/ruminate/internal/oracle"
	"github.com/cogitolabs/ruminate/internal/prompt"
	"github.com/cogitolabs/ruminate/internal/types"
)

// Generator produces the iteration-0 response from a strategy-conditioned
// prompt. One oracle call, no retries; a failure surfaces with the phase and
// iteration attached.
type Generator struct {
	oracle oracle.Oracle
}

// NewGenerator creates a generator over the given oracle
func NewGenerator(o oracle.Oracle) *Generator {
	return &Generator{oracle: o}
}

// Generate builds the initial response for the problem
func (g *Generator) Generate(ctx context.Context, problem types.Problem, strategy types.Strategy) (types.Response, error) {
	p := prompt.Generation(problem, strategy)
	content, err := g.oracle.Generate(ctx, p)
	if err != nil {
		return types.Response{}, oracle.WrapError(types.PhaseGenerate, 0, p, err)
	}
	return types.Response{
		Iteration: 0,
		Content:   content,
		Strategy:  strategy,
		CreatedAt: time.Now(),
	}, nil
}

// Refiner turns a critiqued response into the next iteration. The refinement
// prompt carries every issue and suggestion from the critique; none are
// dropped.
type Refiner struct {
	oracle oracle.Oracle
}

// NewRefiner creates a refiner over the given oracle
func NewRefiner(o oracle.Oracle) *Refiner {
	return &Refiner{oracle: o}
}

// Refine produces the response at iteration prev.Iteration+1
func (r *Refiner) Refine(ctx context.Context, prev types.Response, critique types.Critique, problem types.Problem) (types.Response, error) {
	p := prompt.Refinement(prev, critique, prev.Strategy, problem)
	content, err := r.oracle.Generate(ctx, p)
	if err != nil {
		return types.Response{}, oracle.WrapError(types.PhaseRefine, prev.Iteration+1, p, err)
	}
	return types.Response{
		Iteration: prev.Iteration + 1,
		Content:   content,
		Strategy:  prev.Strategy,
		CreatedAt: time.Now(),
	}, nil
}
