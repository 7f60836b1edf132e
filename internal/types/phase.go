package types

// Phase identifies where in the reflection loop an operation happened.
// Errors crossing the oracle boundary carry the phase and iteration so any
// failure can be reproduced from the session trace.
type Phase string

const (
	PhaseGenerate     Phase = "generate"
	PhaseCritique     Phase = "critique"
	PhaseMetaCritique Phase = "meta_critique"
	PhaseRefine       Phase = "refine"
)
