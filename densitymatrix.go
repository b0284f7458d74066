package mindquantum

import (
	"fmt"
	"math/cmplx"
)

/*
densityEngine holds a possibly mixed state as a dense 2^n x 2^n matrix in
row-major order, entry (r, c) at r*dim + c. Gates act as U rho U-dagger and
channels as the full Kraus sum, with no stochastic branching.
*/
type densityEngine struct {
	rho  []complex128
	n    int
	size int
}

func newDensityEngine(n int) *densityEngine {
	size := 1 << n
	d := &densityEngine{rho: make([]complex128, size*size), n: n, size: size}
	d.rho[0] = 1
	return d
}

func (d *densityEngine) numQubits() int { return d.n }
func (d *densityEngine) dim() int       { return d.size }

func (d *densityEngine) clone() qsEngine {
	rho := make([]complex128, len(d.rho))
	copy(rho, d.rho)
	return &densityEngine{rho: rho, n: d.n, size: d.size}
}

func (d *densityEngine) reset() {
	for i := range d.rho {
		d.rho[i] = 0
	}
	d.rho[0] = 1
}

func (d *densityEngine) data() []complex128 {
	out := make([]complex128, len(d.rho))
	copy(out, d.rho)
	return out
}

func (d *densityEngine) setData(data []complex128) error {
	if len(data) != d.size*d.size {
		return fmt.Errorf("density matrix wants %d entries, got %d: %w",
			d.size*d.size, len(data), ErrDimensionMismatch)
	}
	copy(d.rho, data)
	return nil
}

func (d *densityEngine) applyMatrix(m [][]complex128, targets []int, ctrlMask int) {
	d.mulLeft(m, targets, ctrlMask)
	d.mulRightDagger(m, targets, ctrlMask)
}

// mulLeft computes U*rho, running the vector kernel down the row index for
// every column.
func (d *densityEngine) mulLeft(m [][]complex128, targets []int, ctrlMask int) {
	span := 1 << len(targets)
	tmask := maskOf(targets)
	idx := make([]int, span)
	in := make([]complex128, span)
	for base := 0; base < d.size; base++ {
		if base&tmask != 0 || base&ctrlMask != ctrlMask {
			continue
		}
		for p := 0; p < span; p++ {
			idx[p] = expandIndex(base, p, targets)
		}
		for c := 0; c < d.size; c++ {
			for p := 0; p < span; p++ {
				in[p] = d.rho[idx[p]*d.size+c]
			}
			for r := 0; r < span; r++ {
				var acc complex128
				for q := 0; q < span; q++ {
					acc += m[r][q] * in[q]
				}
				d.rho[idx[r]*d.size+c] = acc
			}
		}
	}
}

// mulRightDagger computes rho*U-dagger, which is the conjugated matrix
// applied down the column index of every row.
func (d *densityEngine) mulRightDagger(m [][]complex128, targets []int, ctrlMask int) {
	span := 1 << len(targets)
	tmask := maskOf(targets)
	idx := make([]int, span)
	in := make([]complex128, span)
	for base := 0; base < d.size; base++ {
		if base&tmask != 0 || base&ctrlMask != ctrlMask {
			continue
		}
		for p := 0; p < span; p++ {
			idx[p] = expandIndex(base, p, targets)
		}
		for r := 0; r < d.size; r++ {
			row := r * d.size
			for p := 0; p < span; p++ {
				in[p] = d.rho[row+idx[p]]
			}
			for c := 0; c < span; c++ {
				var acc complex128
				for q := 0; q < span; q++ {
					acc += cmplx.Conj(m[c][q]) * in[q]
				}
				d.rho[row+idx[c]] = acc
			}
		}
	}
}

func (d *densityEngine) applyDiagonal(diag []complex128, targets []int, ctrlMask int) {
	factor := func(i int) complex128 {
		if i&ctrlMask != ctrlMask {
			return 1
		}
		return diag[localIndex(i, targets)]
	}
	for r := 0; r < d.size; r++ {
		fr := factor(r)
		for c := 0; c < d.size; c++ {
			d.rho[r*d.size+c] *= fr * cmplx.Conj(factor(c))
		}
	}
}

// applyKraus applies the deterministic operator sum: rho' = sum K rho K-dag.
func (d *densityEngine) applyKraus(ops [][][]complex128, targets []int, _ func() float64) (int, error) {
	acc := make([]complex128, len(d.rho))
	for _, op := range ops {
		branch := d.clone().(*densityEngine)
		branch.applyMatrix(op, targets, 0)
		for i, v := range branch.rho {
			acc[i] += v
		}
	}
	d.rho = acc
	return -1, nil
}

func (d *densityEngine) probability(target int) float64 {
	bit := 1 << target
	p := 0.0
	for i := 0; i < d.size; i++ {
		if i&bit != 0 {
			p += real(d.rho[i*d.size+i])
		}
	}
	return p
}

func (d *densityEngine) collapse(target, outcome int) error {
	bit := 1 << target
	want := 0
	if outcome != 0 {
		want = bit
	}
	p := 0.0
	for i := 0; i < d.size; i++ {
		if i&bit == want {
			p += real(d.rho[i*d.size+i])
		}
	}
	if p < normEps {
		return fmt.Errorf("collapse of qubit %d to %d has probability %.3e: %w",
			target, outcome, p, ErrZeroNorm)
	}
	scale := complex(1/p, 0)
	for r := 0; r < d.size; r++ {
		for c := 0; c < d.size; c++ {
			if r&bit == want && c&bit == want {
				d.rho[r*d.size+c] *= scale
			} else {
				d.rho[r*d.size+c] = 0
			}
		}
	}
	return nil
}

// applyHamiltonian left-multiplies: rho <- H*rho. Like the vector variant
// the result is not a physical state; expectation paths consume it.
func (d *densityEngine) applyHamiltonian(h *Hamiltonian) {
	out := make([]complex128, len(d.rho))
	for _, t := range h.Terms {
		flip, ymask, zmask := termMasks(t)
		for j := 0; j < d.size; j++ {
			dst, phase := termDestination(j, flip, ymask, zmask)
			w := t.Coeff * phase
			for c := 0; c < d.size; c++ {
				out[dst*d.size+c] += w * d.rho[j*d.size+c]
			}
		}
	}
	d.rho = out
}

// expectation computes tr(H rho) term by term: tr(P rho) picks one entry per
// row because a Pauli string is a signed permutation.
func (d *densityEngine) expectation(h *Hamiltonian) complex128 {
	var acc complex128
	for _, t := range h.Terms {
		flip, ymask, zmask := termMasks(t)
		var term complex128
		for j := 0; j < d.size; j++ {
			dst, phase := termDestination(j, flip, ymask, zmask)
			term += phase * d.rho[j*d.size+dst]
		}
		acc += t.Coeff * term
	}
	return acc
}

// norm is the trace, which stays one for physical states.
func (d *densityEngine) norm() float64 {
	p := 0.0
	for i := 0; i < d.size; i++ {
		p += real(d.rho[i*d.size+i])
	}
	return p
}

// purity is tr(rho^2), one exactly when the state is pure.
func (d *densityEngine) purity() float64 {
	p := 0.0
	for _, v := range d.rho {
		p += real(v)*real(v) + imag(v)*imag(v)
	}
	return p
}
