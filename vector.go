package mindquantum

import (
	"fmt"
	"math"
	"math/cmplx"
)

/*
vectorEngine holds a pure state as 2^n complex amplitudes indexed by the
computational-basis bitstring, qubit q on bit q. All kernels update the
buffer in place.
*/
type vectorEngine struct {
	amps []complex128
	n    int
	size int
}

func newVectorEngine(n int) *vectorEngine {
	size := 1 << n
	v := &vectorEngine{amps: make([]complex128, size), n: n, size: size}
	v.amps[0] = 1
	return v
}

func (v *vectorEngine) numQubits() int { return v.n }
func (v *vectorEngine) dim() int       { return v.size }

func (v *vectorEngine) clone() qsEngine {
	amps := make([]complex128, v.size)
	copy(amps, v.amps)
	return &vectorEngine{amps: amps, n: v.n, size: v.size}
}

func (v *vectorEngine) reset() {
	for i := range v.amps {
		v.amps[i] = 0
	}
	v.amps[0] = 1
}

func (v *vectorEngine) data() []complex128 {
	out := make([]complex128, v.size)
	copy(out, v.amps)
	return out
}

func (v *vectorEngine) setData(d []complex128) error {
	if len(d) != v.size {
		return fmt.Errorf("state vector wants %d amplitudes, got %d: %w",
			v.size, len(d), ErrDimensionMismatch)
	}
	copy(v.amps, d)
	return nil
}

func (v *vectorEngine) applyMatrix(m [][]complex128, targets []int, ctrlMask int) {
	if len(targets) == 1 {
		v.applySingle(m, targets[0], ctrlMask)
		return
	}
	span := 1 << len(targets)
	tmask := maskOf(targets)
	idx := make([]int, span)
	in := make([]complex128, span)
	for base := 0; base < v.size; base++ {
		if base&tmask != 0 || base&ctrlMask != ctrlMask {
			continue
		}
		for p := 0; p < span; p++ {
			idx[p] = expandIndex(base, p, targets)
			in[p] = v.amps[idx[p]]
		}
		for r := 0; r < span; r++ {
			var acc complex128
			for c := 0; c < span; c++ {
				acc += m[r][c] * in[c]
			}
			v.amps[idx[r]] = acc
		}
	}
}

// applySingle is the hot path: one target qubit, amplitudes paired by the
// target bit.
func (v *vectorEngine) applySingle(m [][]complex128, target, ctrlMask int) {
	bit := 1 << target
	for i := 0; i < v.size; i++ {
		if i&bit != 0 || i&ctrlMask != ctrlMask {
			continue
		}
		j := i | bit
		a0, a1 := v.amps[i], v.amps[j]
		v.amps[i] = m[0][0]*a0 + m[0][1]*a1
		v.amps[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

func (v *vectorEngine) applyDiagonal(d []complex128, targets []int, ctrlMask int) {
	for i := 0; i < v.size; i++ {
		if i&ctrlMask != ctrlMask {
			continue
		}
		v.amps[i] *= d[localIndex(i, targets)]
	}
}

// applyKraus samples one branch of the channel proportionally to the norm of
// each candidate K|psi> and renormalizes: trajectory semantics.
func (v *vectorEngine) applyKraus(ops [][][]complex128, targets []int, rng func() float64) (int, error) {
	r := rng()
	cum := 0.0
	for bi, op := range ops {
		cand := v.clone().(*vectorEngine)
		cand.applyMatrix(op, targets, 0)
		p := cand.normSquared()
		cum += p
		if r < cum || bi == len(ops)-1 {
			if p < normEps {
				return bi, fmt.Errorf("channel branch %d has probability %.3e: %w", bi, p, ErrZeroNorm)
			}
			scale := complex(1/math.Sqrt(p), 0)
			for i := range cand.amps {
				cand.amps[i] *= scale
			}
			v.amps = cand.amps
			return bi, nil
		}
	}
	return 0, ErrZeroNorm
}

func (v *vectorEngine) probability(target int) float64 {
	bit := 1 << target
	p := 0.0
	for i := 0; i < v.size; i++ {
		if i&bit != 0 {
			a := v.amps[i]
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

func (v *vectorEngine) collapse(target, outcome int) error {
	bit := 1 << target
	want := 0
	if outcome != 0 {
		want = bit
	}
	p := 0.0
	for i := 0; i < v.size; i++ {
		if i&bit == want {
			a := v.amps[i]
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	if p < normEps {
		return fmt.Errorf("collapse of qubit %d to %d has probability %.3e: %w",
			target, outcome, p, ErrZeroNorm)
	}
	scale := complex(1/math.Sqrt(p), 0)
	for i := 0; i < v.size; i++ {
		if i&bit == want {
			v.amps[i] *= scale
		} else {
			v.amps[i] = 0
		}
	}
	return nil
}

// applyHamiltonian replaces the buffer with H|psi>, which is generally not
// normalized. Only expectation and gradient paths use it.
func (v *vectorEngine) applyHamiltonian(h *Hamiltonian) {
	out := make([]complex128, v.size)
	for _, t := range h.Terms {
		flip, ymask, zmask := termMasks(t)
		for i := 0; i < v.size; i++ {
			if v.amps[i] == 0 {
				continue
			}
			j, phase := termDestination(i, flip, ymask, zmask)
			out[j] += t.Coeff * phase * v.amps[i]
		}
	}
	v.amps = out
}

func (v *vectorEngine) expectation(h *Hamiltonian) complex128 {
	var acc complex128
	for _, t := range h.Terms {
		flip, ymask, zmask := termMasks(t)
		var term complex128
		for i := 0; i < v.size; i++ {
			if v.amps[i] == 0 {
				continue
			}
			j, phase := termDestination(i, flip, ymask, zmask)
			term += cmplx.Conj(v.amps[j]) * phase * v.amps[i]
		}
		acc += t.Coeff * term
	}
	return acc
}

// vdot computes <v|o>.
func (v *vectorEngine) vdot(o *vectorEngine) complex128 {
	var acc complex128
	for i := 0; i < v.size; i++ {
		acc += cmplx.Conj(v.amps[i]) * o.amps[i]
	}
	return acc
}

// maskCtrl zeroes every amplitude outside the control subspace. The
// derivative of a controlled gate acts as the projector onto that subspace
// times the derivative matrix, so scratch states need the complement gone.
func (v *vectorEngine) maskCtrl(ctrlMask int) {
	if ctrlMask == 0 {
		return
	}
	for i := 0; i < v.size; i++ {
		if i&ctrlMask != ctrlMask {
			v.amps[i] = 0
		}
	}
}

func (v *vectorEngine) normSquared() float64 {
	p := 0.0
	for _, a := range v.amps {
		p += real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

func (v *vectorEngine) norm() float64 { return math.Sqrt(v.normSquared()) }

// purity is identically one for a pure state.
func (v *vectorEngine) purity() float64 { return 1 }
