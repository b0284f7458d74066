package mindquantum

import (
	"fmt"
	"math/bits"
	"math/cmplx"
)

// PauliOp is a single Pauli operator acting on one qubit of a term.
type PauliOp struct {
	Qubit int
	Axis  byte // 'X', 'Y' or 'Z'
}

// PauliTerm is a weighted Pauli string. An empty Ops slice is the identity
// term.
type PauliTerm struct {
	Coeff complex128
	Ops   []PauliOp
}

/*
Hamiltonian is a weighted sum of Pauli-string terms. It is immutable once
constructed and safe to share read-only across states and worker threads.
*/
type Hamiltonian struct {
	Terms []PauliTerm
}

func NewHamiltonian(terms []PauliTerm) *Hamiltonian {
	return &Hamiltonian{Terms: terms}
}

// Conjugate returns the term-wise conjugated Hamiltonian. Pauli strings are
// Hermitian, so only the coefficients change.
func (h *Hamiltonian) Conjugate() *Hamiltonian {
	terms := make([]PauliTerm, len(h.Terms))
	for i, t := range h.Terms {
		terms[i] = PauliTerm{Coeff: cmplx.Conj(t.Coeff), Ops: t.Ops}
	}
	return &Hamiltonian{Terms: terms}
}

// validate checks that every term fits in an n-qubit register and uses a
// known axis, and that no term touches a qubit twice.
func (h *Hamiltonian) validate(nQubits int) error {
	for i, t := range h.Terms {
		seen := make(map[int]bool, len(t.Ops))
		for _, op := range t.Ops {
			if op.Qubit < 0 || op.Qubit >= nQubits {
				return fmt.Errorf("hamiltonian term %d references qubit %d on a %d-qubit state: %w",
					i, op.Qubit, nQubits, ErrQubitOutOfRange)
			}
			if seen[op.Qubit] {
				return fmt.Errorf("hamiltonian term %d references qubit %d twice: %w",
					i, op.Qubit, ErrInvalidCircuit)
			}
			seen[op.Qubit] = true
			switch op.Axis {
			case 'X', 'Y', 'Z':
			default:
				return fmt.Errorf("hamiltonian term %d has unknown axis %q: %w",
					i, string(op.Axis), ErrInvalidCircuit)
			}
		}
	}
	return nil
}

// termMasks precomputes the bit masks of a Pauli string: flip collects the
// X and Y qubits, ymask the Y qubits and zmask the Z qubits.
func termMasks(t PauliTerm) (flip, ymask, zmask int) {
	for _, op := range t.Ops {
		bit := 1 << op.Qubit
		switch op.Axis {
		case 'X':
			flip |= bit
		case 'Y':
			flip |= bit
			ymask |= bit
		case 'Z':
			zmask |= bit
		}
	}
	return flip, ymask, zmask
}

// termDestination maps basis index i through the Pauli string: the string
// sends |i> to phase * |i ^ flip>. Each Y contributes i or -i depending on
// the source bit, each Z contributes -1 when the bit is set.
func termDestination(i, flip, ymask, zmask int) (j int, phase complex128) {
	j = i ^ flip
	phase = ipow(bits.OnesCount(uint(ymask)))
	if bits.OnesCount(uint(i&(ymask|zmask)))%2 == 1 {
		phase = -phase
	}
	return j, phase
}

// ipow returns i^n for the imaginary unit.
func ipow(n int) complex128 {
	switch n % 4 {
	case 0:
		return 1
	case 1:
		return 1i
	case 2:
		return -1
	default:
		return -1i
	}
}
