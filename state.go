package mindquantum

import (
	"fmt"
	"math/rand/v2"

	"github.com/theapemachine/errnie"
)

const defaultSeed uint64 = 42

// Qubit caps keep the buffer length addressable: the density matrix squares
// the dimension, so its cap is half the exponent.
const (
	maxVectorQubits  = 30
	maxDensityQubits = 15
)

/*
State owns one amplitude buffer, the qubit count and a seeded random source,
and exposes the evolution, measurement, expectation and sampling API. All
numerical work is delegated to the composed gate-dispatch engine, one
implementation per representation.

A State is not safe for concurrent mutation. Batched operations that need
concurrency clone it and give every worker a private copy.
*/
type State struct {
	eng     qsEngine
	n       int
	seed    uint64
	rng     *rand.Rand
	metrics *Metrics
	density bool
}

// NewVectorState builds a pure |0...0> state over nQubits qubits.
func NewVectorState(nQubits int, opts ...StateOption) (*State, error) {
	if nQubits < 1 || nQubits > maxVectorQubits {
		return nil, fmt.Errorf("nQubits %d outside [1, %d]: %w",
			nQubits, maxVectorQubits, ErrQubitOutOfRange)
	}
	s := &State{n: nQubits, seed: defaultSeed, metrics: NewMetrics()}
	for _, opt := range opts {
		opt(s)
	}
	s.eng = newVectorEngine(nQubits)
	s.rng = newRand(s.seed)
	errnie.Info("NewVectorState - %d qubits, seed %d", nQubits, s.seed)
	return s, nil
}

// NewDensityMatrixState builds the |0...0><0...0| state over nQubits qubits.
func NewDensityMatrixState(nQubits int, opts ...StateOption) (*State, error) {
	if nQubits < 1 || nQubits > maxDensityQubits {
		return nil, fmt.Errorf("nQubits %d outside [1, %d]: %w",
			nQubits, maxDensityQubits, ErrQubitOutOfRange)
	}
	s := &State{n: nQubits, seed: defaultSeed, metrics: NewMetrics(), density: true}
	for _, opt := range opts {
		opt(s)
	}
	s.eng = newDensityEngine(nQubits)
	s.rng = newRand(s.seed)
	errnie.Info("NewDensityMatrixState - %d qubits, seed %d", nQubits, s.seed)
	return s, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// subSeed derives a decorrelated child seed for parallel or per-shot work,
// splitmix64 style.
func subSeed(base, idx uint64) uint64 {
	z := base + 0x9e3779b97f4a7c15*(idx+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *State) NQubits() int          { return s.n }
func (s *State) Dim() int              { return s.eng.dim() }
func (s *State) Seed() uint64          { return s.seed }
func (s *State) IsDensityMatrix() bool { return s.density }
func (s *State) Metrics() *Metrics     { return s.metrics }

// Clone returns an independent copy with its own buffer and random source.
// The clone shares the parent's metrics collector.
func (s *State) Clone() *State {
	return &State{
		eng:     s.eng.clone(),
		n:       s.n,
		seed:    s.seed,
		rng:     newRand(s.seed),
		metrics: s.metrics,
		density: s.density,
	}
}

// reseed rewinds the random source onto a fresh seed.
func (s *State) reseed(seed uint64) {
	s.seed = seed
	s.rng = newRand(seed)
}

// Reset returns the state to |0...0>.
func (s *State) Reset() {
	s.eng.reset()
}

// GetQS exports the buffer as a flat slice: 2^n amplitudes for a vector,
// (2^n)^2 row-major entries for a density matrix.
func (s *State) GetQS() []complex128 {
	return s.eng.data()
}

// SetQS imports a flat buffer. The length must match the representation
// exactly; anything else is rejected without touching the current buffer.
func (s *State) SetQS(data []complex128) error {
	return s.eng.setData(data)
}

// Norm is the vector norm or density-matrix trace.
func (s *State) Norm() float64 { return s.eng.norm() }

// Purity is tr(rho^2) for density matrices and exactly one for vectors.
func (s *State) Purity() float64 { return s.eng.purity() }

/*
ApplyGate applies one gate descriptor. Measurement gates sample and collapse,
returning the observed bit; every other gate returns -1. With diff set, a
single-parameter gate applies its derivative matrix instead of the unitary
(restricted to the control subspace), which the differentiation engine uses
on scratch clones. Validation happens before any buffer mutation.
*/
func (s *State) ApplyGate(g *Gate, pb ParameterBinding, diff bool) (int, error) {
	if g == nil {
		return -1, fmt.Errorf("nil gate: %w", ErrInvalidCircuit)
	}
	if err := g.validate(s.n, pb); err != nil {
		return -1, err
	}
	switch {
	case g.IsMeasure():
		if diff {
			return -1, fmt.Errorf("measurement %q: %w", g.Key, ErrNotDifferentiable)
		}
		return s.ApplyMeasure(g)
	case g.IsChannel():
		if diff {
			return -1, fmt.Errorf("channel %s: %w", g.ID, ErrNotDifferentiable)
		}
		return -1, s.ApplyChannel(g)
	}
	if diff {
		return -1, s.applyGateDiff(g, pb)
	}
	if err := applyUnitaryGate(s.eng, g, pb); err != nil {
		return -1, err
	}
	s.metrics.recordGate()
	return -1, nil
}

func (s *State) applyGateDiff(g *Gate, pb ParameterBinding) error {
	if !g.Parameterized() {
		return fmt.Errorf("gate %s has no free parameter: %w", g.ID, ErrNotDifferentiable)
	}
	if len(g.Params) != 1 {
		return fmt.Errorf("gate %s has %d angles, use the ExpectDiff helpers: %w",
			g.ID, len(g.Params), ErrNotDifferentiable)
	}
	ve, err := s.vectorEngine()
	if err != nil {
		return err
	}
	m, err := g.diffMatrix(pb, 0)
	if err != nil {
		return err
	}
	ctrl := maskOf(g.Controls)
	ve.applyMatrix(m, g.Targets, ctrl)
	ve.maskCtrl(ctrl)
	s.metrics.recordGate()
	return nil
}

// applyUnitaryGate routes a unitary gate through the diagonal fast path when
// one exists, the dense kernel otherwise.
func applyUnitaryGate(eng qsEngine, g *Gate, pb ParameterBinding) error {
	if g.ID == GateI {
		return nil
	}
	if d, ok, err := g.diagonal(pb); err != nil {
		return err
	} else if ok {
		eng.applyDiagonal(d, g.Targets, maskOf(g.Controls))
		return nil
	}
	m, err := g.unitary(pb)
	if err != nil {
		return err
	}
	eng.applyMatrix(m, g.Targets, maskOf(g.Controls))
	return nil
}

// ApplyMeasure samples the target qubit by the Born rule, collapses the
// buffer in place and renormalizes. The outcome is reproducible for a fixed
// state seed.
func (s *State) ApplyMeasure(g *Gate) (int, error) {
	if !g.IsMeasure() {
		return -1, fmt.Errorf("gate %s is not a measurement: %w", g.ID, ErrInvalidCircuit)
	}
	if err := g.validate(s.n, nil); err != nil {
		return -1, err
	}
	target := g.Targets[0]
	outcome := 0
	if s.rng.Float64() < s.eng.probability(target) {
		outcome = 1
	}
	if err := s.eng.collapse(target, outcome); err != nil {
		return -1, err
	}
	s.metrics.recordMeasure()
	return outcome, nil
}

/*
ApplyChannel applies a noise channel. On a state vector one Kraus branch is
sampled and the state renormalized (trajectory semantics); on a density
matrix the full operator sum is applied deterministically.
*/
func (s *State) ApplyChannel(g *Gate) error {
	if !g.IsChannel() {
		return fmt.Errorf("gate %s is not a channel: %w", g.ID, ErrInvalidCircuit)
	}
	if err := g.validate(s.n, nil); err != nil {
		return err
	}
	ops, err := g.krausOperators()
	if err != nil {
		return err
	}
	if _, err := s.eng.applyKraus(ops, g.Targets, s.rng.Float64); err != nil {
		return err
	}
	s.metrics.recordChannelBranch()
	return nil
}

// ApplyPauliChannel applies a PL channel gate.
func (s *State) ApplyPauliChannel(g *Gate) error {
	if g.ID != GatePL {
		return fmt.Errorf("gate %s is not a pauli channel: %w", g.ID, ErrInvalidCircuit)
	}
	return s.ApplyChannel(g)
}

// ApplyKrausChannel applies a custom KRAUS channel gate.
func (s *State) ApplyKrausChannel(g *Gate) error {
	if g.ID != GateKRAUS {
		return fmt.Errorf("gate %s is not a kraus channel: %w", g.ID, ErrInvalidCircuit)
	}
	return s.ApplyChannel(g)
}

// ApplyDampingChannel applies an amplitude- or phase-damping gate.
func (s *State) ApplyDampingChannel(g *Gate) error {
	if g.ID != GateAD && g.ID != GatePD {
		return fmt.Errorf("gate %s is not a damping channel: %w", g.ID, ErrInvalidCircuit)
	}
	return s.ApplyChannel(g)
}

/*
ApplyCircuit applies every gate strictly in circuit order and returns the
measurement outcomes keyed by their labels. The whole circuit is validated
against the binding first, so a bad circuit never partially evolves the
state.
*/
func (s *State) ApplyCircuit(circ Circuit, pb ParameterBinding) (map[string]int, error) {
	if err := circ.Validate(s.n, pb); err != nil {
		return nil, err
	}
	outcomes := make(map[string]int)
	for i, g := range circ {
		res, err := s.ApplyGate(g, pb, false)
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		if g.IsMeasure() {
			outcomes[g.Key] = res
		}
	}
	s.metrics.recordCircuitRun()
	return outcomes, nil
}

// ApplyHamiltonian replaces the buffer with H applied to it. The result is
// generally unnormalized; this is a building block for expectation and
// gradient computation, not a physical evolution step.
func (s *State) ApplyHamiltonian(h *Hamiltonian) error {
	if err := h.validate(s.n); err != nil {
		return err
	}
	s.eng.applyHamiltonian(h)
	return nil
}

// GetExpectation computes <psi|H|psi> (or tr(H rho)) without mutating the
// state.
func (s *State) GetExpectation(h *Hamiltonian) (complex128, error) {
	if err := h.validate(s.n); err != nil {
		return 0, err
	}
	return s.eng.expectation(h), nil
}

/*
GetCircuitMatrix evaluates the dense unitary of a circuit at the given
binding by evolving every basis column through a scratch vector state. The
circuit must be purely unitary.
*/
func (s *State) GetCircuitMatrix(circ Circuit, pb ParameterBinding) ([][]complex128, error) {
	if circ.hasCollapse() {
		return nil, fmt.Errorf("circuit contains measurements or channels: %w", ErrInvalidCircuit)
	}
	if err := circ.Validate(s.n, pb); err != nil {
		return nil, err
	}
	dim := 1 << s.n
	out := make([][]complex128, dim)
	for i := range out {
		out[i] = make([]complex128, dim)
	}
	for j := 0; j < dim; j++ {
		ve := newVectorEngine(s.n)
		ve.amps[0] = 0
		ve.amps[j] = 1
		for _, g := range circ {
			if err := applyUnitaryGate(ve, g, pb); err != nil {
				return nil, err
			}
		}
		for i := 0; i < dim; i++ {
			out[i][j] = ve.amps[i]
		}
	}
	return out, nil
}

// vectorEngine narrows the composed engine, erroring for density states on
// paths that require amplitude-level access.
func (s *State) vectorEngine() (*vectorEngine, error) {
	ve, ok := s.eng.(*vectorEngine)
	if !ok {
		return nil, ErrNotVectorState
	}
	return ve, nil
}
