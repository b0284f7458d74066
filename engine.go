package mindquantum

/*
qsEngine is the gate-dispatch policy: the per-representation numerical
kernel that owns the amplitude buffer and mutates it in place. One
implementation exists per state representation (vector and density matrix);
a State composes exactly one engine for all numerical work.

Control masks restrict every update to the subspace where all control bits
are one. Masks make the math control-order-invariant by construction.
*/
type qsEngine interface {
	numQubits() int
	// dim is the qubit-space dimension 2^n. The density engine's buffer is
	// dim*dim entries long.
	dim() int
	clone() qsEngine
	reset()

	// data returns a copy of the raw buffer; setData replaces it after an
	// exact length check.
	data() []complex128
	setData(d []complex128) error

	applyMatrix(m [][]complex128, targets []int, ctrlMask int)
	applyDiagonal(d []complex128, targets []int, ctrlMask int)

	// applyKraus applies a channel. The vector engine samples a single
	// branch with rng and renormalizes (trajectory semantics, returning the
	// branch index); the density engine applies the deterministic operator
	// sum and returns -1.
	applyKraus(ops [][][]complex128, targets []int, rng func() float64) (int, error)

	// probability returns the Born probability of measuring |1> on target.
	probability(target int) float64
	// collapse projects target onto outcome and renormalizes.
	collapse(target, outcome int) error

	applyHamiltonian(h *Hamiltonian)
	expectation(h *Hamiltonian) complex128

	norm() float64
	purity() float64
}

// normEps is the renormalization guard: probabilities below it abort the
// collapse instead of dividing into NaNs.
const normEps = 1e-12

// maskOf folds qubit indices into a bit mask.
func maskOf(qubits []int) int {
	mask := 0
	for _, q := range qubits {
		mask |= 1 << q
	}
	return mask
}

// localIndex projects a global basis index onto the gate-local index: bit b
// of the result is the value of qubit targets[b].
func localIndex(i int, targets []int) int {
	local := 0
	for b, q := range targets {
		if i&(1<<q) != 0 {
			local |= 1 << b
		}
	}
	return local
}

// expandIndex embeds the gate-local index p into a base index whose target
// bits are all zero.
func expandIndex(base, p int, targets []int) int {
	for b, q := range targets {
		if p&(1<<b) != 0 {
			base |= 1 << q
		}
	}
	return base
}
