package mindquantum

import "errors"

// Sentinel errors for the failure taxonomy of the engine. Callers can match
// them with errors.Is after any wrapping applied at the call site.
var (
	// ErrQubitOutOfRange is returned when a gate or Hamiltonian references a
	// qubit index outside [0, nQubits).
	ErrQubitOutOfRange = errors.New("qubit index out of range")

	// ErrMissingParameter is returned when a circuit references a symbolic
	// parameter that has no value in the supplied binding. The operation
	// fails before any buffer mutation.
	ErrMissingParameter = errors.New("missing parameter binding")

	// ErrDimensionMismatch is returned when imported amplitude data does not
	// match the state's expected buffer length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrZeroNorm signals a near-zero norm encountered during collapse or
	// channel renormalization. It is surfaced instead of letting NaNs
	// propagate through the buffer.
	ErrZeroNorm = errors.New("state norm too close to zero")

	// ErrNotVectorState is returned by operations that are only defined for
	// the state-vector representation, such as adjoint differentiation.
	ErrNotVectorState = errors.New("operation requires a state-vector representation")

	// ErrNotDifferentiable is returned when a derivative is requested for a
	// gate without an analytic derivative rule.
	ErrNotDifferentiable = errors.New("gate is not differentiable")

	// ErrInvalidCircuit covers structural circuit problems: duplicate
	// measurement keys, collapsing gates inside gradient circuits, empty
	// Kraus sets and the like.
	ErrInvalidCircuit = errors.New("invalid circuit")
)
