package mindquantum

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sync"
)

/*
GradResult pairs an expectation value with its gradient, ordered by the
parameter list the caller supplied. For Hermitian Hamiltonians the gradient
entries are real-valued (stored in the real part); the non-Hermitian
variants produce genuinely complex entries.
*/
type GradResult struct {
	Value complex128
	Grad  []complex128
}

// paramSlots assigns one disjoint output slot per requested parameter name.
func paramSlots(params []string) (map[string]int, error) {
	slots := make(map[string]int, len(params))
	for i, name := range params {
		if _, ok := slots[name]; ok {
			return nil, fmt.Errorf("parameter %q listed twice: %w", name, ErrInvalidCircuit)
		}
		slots[name] = i
	}
	return slots, nil
}

// forwardVector evolves a private copy of ve through the circuit.
func forwardVector(ve *vectorEngine, circ Circuit, pb ParameterBinding) (*vectorEngine, error) {
	ket := ve.clone().(*vectorEngine)
	for i, g := range circ {
		if err := applyUnitaryGate(ket, g, pb); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return ket, nil
}

/*
ExpectDiffGate computes <bra| dU/dtheta_k |ket> for every angle of a
parameterized gate, leaving bra and ket untouched. For a controlled gate the
derivative carries the projector onto the control subspace, so the scratch
state is masked before the inner product.
*/
func (s *State) ExpectDiffGate(bra, ket *State, g *Gate, pb ParameterBinding) ([]complex128, error) {
	braE, err := bra.vectorEngine()
	if err != nil {
		return nil, err
	}
	ketE, err := ket.vectorEngine()
	if err != nil {
		return nil, err
	}
	if err := g.validate(s.n, pb); err != nil {
		return nil, err
	}
	return expectDiff(braE, ketE, g, pb)
}

// ExpectDiffU3 is ExpectDiffGate restricted to U3, returning the three
// partial derivatives (theta, phi, lambda).
func (s *State) ExpectDiffU3(bra, ket *State, g *Gate, pb ParameterBinding) ([]complex128, error) {
	if g.ID != GateU3 {
		return nil, fmt.Errorf("gate %s is not U3: %w", g.ID, ErrInvalidCircuit)
	}
	return s.ExpectDiffGate(bra, ket, g, pb)
}

// ExpectDiffFSim is ExpectDiffGate restricted to FSim, returning the two
// partial derivatives (theta, phi).
func (s *State) ExpectDiffFSim(bra, ket *State, g *Gate, pb ParameterBinding) ([]complex128, error) {
	if g.ID != GateFSim {
		return nil, fmt.Errorf("gate %s is not FSim: %w", g.ID, ErrInvalidCircuit)
	}
	return s.ExpectDiffGate(bra, ket, g, pb)
}

func expectDiff(bra, ket *vectorEngine, g *Gate, pb ParameterBinding) ([]complex128, error) {
	vals := make([]complex128, len(g.Params))
	ctrl := maskOf(g.Controls)
	for k, e := range g.Params {
		if e.IsConst() {
			continue
		}
		m, err := g.diffMatrix(pb, k)
		if err != nil {
			return nil, err
		}
		tmp := ket.clone().(*vectorEngine)
		tmp.applyMatrix(m, g.Targets, ctrl)
		tmp.maskCtrl(ctrl)
		vals[k] = bra.vdot(tmp)
	}
	return vals, nil
}

/*
backwardAccumulate runs the adjoint sweep: with ket at the fully evolved
state and bra at the Hamiltonian-applied state, it peels one gate at a time
off ket, takes the local derivative contribution of parameterized gates, and
then peels the gate off bra too. combine maps the raw <bra|dU|ket> value to
the gradient contribution; contributions for a shared parameter name sum
into the same slot, scaled by the name's coefficient in the angle
expression.
*/
func backwardAccumulate(bra, ket *vectorEngine, circ, hermCirc Circuit, pb ParameterBinding,
	slots map[string]int, grad []complex128, combine func(complex128) complex128) error {
	for i := len(circ) - 1; i >= 0; i-- {
		hg := hermCirc[len(circ)-1-i]
		if err := applyUnitaryGate(ket, hg, pb); err != nil {
			return fmt.Errorf("gate %d: %w", i, err)
		}
		g := circ[i]
		if g.Parameterized() {
			vals, err := expectDiff(bra, ket, g, pb)
			if err != nil {
				return fmt.Errorf("gate %d: %w", i, err)
			}
			for k, e := range g.Params {
				if e.IsConst() {
					continue
				}
				v := combine(vals[k])
				for name, c := range e.Coeff {
					if c == 0 {
						continue
					}
					slot, ok := slots[name]
					if !ok {
						continue
					}
					grad[slot] += v * complex(c, 0)
				}
			}
		}
		if err := applyUnitaryGate(bra, hg, pb); err != nil {
			return fmt.Errorf("gate %d: %w", i, err)
		}
	}
	return nil
}

// runIndexed fans n work units over nThread workers. With one thread it
// degrades to a plain sequential loop; every unit writes only its own output
// slot, so results are identical either way.
func runIndexed(n, nThread int, run func(int)) {
	if nThread <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			run(i)
		}
		return
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < nThread; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				run(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// GetExpectationWithGradOneOne computes the expectation of one Hamiltonian
// and its gradient with respect to every listed parameter, at a single
// binding point.
func (s *State) GetExpectationWithGradOneOne(ham *Hamiltonian, circ Circuit,
	pb ParameterBinding, params []string) (*GradResult, error) {
	res, err := s.GetExpectationWithGradOneMulti([]*Hamiltonian{ham}, circ, pb, params, 1)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

/*
GetExpectationWithGradOneMulti evaluates several Hamiltonians against one
circuit and binding. The forward evolution runs once; the per-Hamiltonian
backward sweeps fan out over nThread workers, each on private bra/ket
clones. A failing Hamiltonian reports in its own slot without disturbing the
others.
*/
func (s *State) GetExpectationWithGradOneMulti(hams []*Hamiltonian, circ Circuit,
	pb ParameterBinding, params []string, nThread int) ([]*GradResult, error) {
	ve, err := s.vectorEngine()
	if err != nil {
		return nil, err
	}
	if nThread < 1 {
		return nil, fmt.Errorf("nThread %d must be positive: %w", nThread, ErrInvalidCircuit)
	}
	if circ.hasCollapse() {
		return nil, fmt.Errorf("gradient circuit contains measurements or channels: %w", ErrInvalidCircuit)
	}
	if err := circ.Validate(s.n, pb); err != nil {
		return nil, err
	}
	for i, ham := range hams {
		if err := ham.validate(s.n); err != nil {
			return nil, fmt.Errorf("hamiltonian %d: %w", i, err)
		}
	}
	hermCirc, err := circ.Hermitian()
	if err != nil {
		return nil, err
	}
	slots, err := paramSlots(params)
	if err != nil {
		return nil, err
	}
	psi, err := forwardVector(ve, circ, pb)
	if err != nil {
		return nil, err
	}

	results := make([]*GradResult, len(hams))
	errs := make([]error, len(hams))
	runIndexed(len(hams), nThread, func(i int) {
		bra := psi.clone().(*vectorEngine)
		bra.applyHamiltonian(hams[i])
		ket := psi.clone().(*vectorEngine)
		grad := make([]complex128, len(params))
		value := psi.vdot(bra)
		err := backwardAccumulate(bra, ket, circ, hermCirc, pb, slots, grad,
			func(v complex128) complex128 { return complex(2*real(v), 0) })
		if err != nil {
			errs[i] = fmt.Errorf("hamiltonian %d: %w", i, err)
			return
		}
		results[i] = &GradResult{Value: value, Grad: grad}
	})
	s.metrics.recordGradientEvals(int64(len(hams)))
	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}

/*
GetExpectationWithGradMultiMulti batches over encoder-parameter rows and
Hamiltonians with two-level parallelism: batchThreads workers over rows,
meaThreads workers over Hamiltonians within each row. ansData holds the
ansatz values shared by every row. Output ordering follows the input
ordering exactly, independent of scheduling.
*/
func (s *State) GetExpectationWithGradMultiMulti(hams []*Hamiltonian, circ Circuit,
	encData [][]float64, ansData []float64, encNames, ansNames []string,
	batchThreads, meaThreads int) ([][]*GradResult, error) {
	if batchThreads < 1 || meaThreads < 1 {
		return nil, fmt.Errorf("thread counts (%d, %d) must be positive: %w",
			batchThreads, meaThreads, ErrInvalidCircuit)
	}
	if len(ansData) != len(ansNames) {
		return nil, fmt.Errorf("ansatz data has %d values for %d names: %w",
			len(ansData), len(ansNames), ErrDimensionMismatch)
	}
	for r, row := range encData {
		if len(row) != len(encNames) {
			return nil, fmt.Errorf("encoder row %d has %d values for %d names: %w",
				r, len(row), len(encNames), ErrDimensionMismatch)
		}
	}
	params := make([]string, 0, len(encNames)+len(ansNames))
	params = append(params, encNames...)
	params = append(params, ansNames...)

	out := make([][]*GradResult, len(encData))
	errs := make([]error, len(encData))
	runIndexed(len(encData), batchThreads, func(r int) {
		pb := make(ParameterBinding, len(params))
		for i, name := range encNames {
			pb[name] = encData[r][i]
		}
		for i, name := range ansNames {
			pb[name] = ansData[i]
		}
		out[r], errs[r] = s.GetExpectationWithGradOneMulti(hams, circ, pb, params, meaThreads)
	})
	if err := errors.Join(errs...); err != nil {
		return out, err
	}
	return out, nil
}

/*
GetExpectationNonHermitianWithGradOneMulti evaluates <phi|H|psi> between two
distinct states: psi evolves from the receiver through rightCirc, phi from
left through leftCirc. hermHams must hold the conjugated Hamiltonians.
Right-circuit parameters contribute their raw complex derivative, left ones
the conjugate; both sum into the slot of their parameter name.
*/
func (s *State) GetExpectationNonHermitianWithGradOneMulti(hams, hermHams []*Hamiltonian,
	leftCirc, rightCirc Circuit, pb ParameterBinding, params []string,
	nThread int, left *State) ([]*GradResult, error) {
	rv, err := s.vectorEngine()
	if err != nil {
		return nil, err
	}
	lv, err := left.vectorEngine()
	if err != nil {
		return nil, err
	}
	if left.n != s.n {
		return nil, fmt.Errorf("left state has %d qubits, right %d: %w",
			left.n, s.n, ErrDimensionMismatch)
	}
	if len(hams) != len(hermHams) {
		return nil, fmt.Errorf("%d hamiltonians with %d conjugates: %w",
			len(hams), len(hermHams), ErrDimensionMismatch)
	}
	if nThread < 1 {
		return nil, fmt.Errorf("nThread %d must be positive: %w", nThread, ErrInvalidCircuit)
	}
	if leftCirc.hasCollapse() || rightCirc.hasCollapse() {
		return nil, fmt.Errorf("gradient circuit contains measurements or channels: %w", ErrInvalidCircuit)
	}
	if err := leftCirc.Validate(s.n, pb); err != nil {
		return nil, fmt.Errorf("left circuit: %w", err)
	}
	if err := rightCirc.Validate(s.n, pb); err != nil {
		return nil, fmt.Errorf("right circuit: %w", err)
	}
	for i, ham := range hams {
		if err := ham.validate(s.n); err != nil {
			return nil, fmt.Errorf("hamiltonian %d: %w", i, err)
		}
		if err := hermHams[i].validate(s.n); err != nil {
			return nil, fmt.Errorf("conjugated hamiltonian %d: %w", i, err)
		}
	}
	hermLeft, err := leftCirc.Hermitian()
	if err != nil {
		return nil, fmt.Errorf("left circuit: %w", err)
	}
	hermRight, err := rightCirc.Hermitian()
	if err != nil {
		return nil, fmt.Errorf("right circuit: %w", err)
	}
	slots, err := paramSlots(params)
	if err != nil {
		return nil, err
	}
	psiR, err := forwardVector(rv, rightCirc, pb)
	if err != nil {
		return nil, fmt.Errorf("right circuit: %w", err)
	}
	psiL, err := forwardVector(lv, leftCirc, pb)
	if err != nil {
		return nil, fmt.Errorf("left circuit: %w", err)
	}

	results := make([]*GradResult, len(hams))
	errs := make([]error, len(hams))
	runIndexed(len(hams), nThread, func(i int) {
		grad := make([]complex128, len(params))

		// Right side: bra carries H-dagger applied to the left state, so
		// bra.vdot(ket) is exactly <phi|H|psi>.
		braR := psiL.clone().(*vectorEngine)
		braR.applyHamiltonian(hermHams[i])
		ketR := psiR.clone().(*vectorEngine)
		value := braR.vdot(psiR)
		err := backwardAccumulate(braR, ketR, rightCirc, hermRight, pb, slots, grad,
			func(v complex128) complex128 { return v })
		if err != nil {
			errs[i] = fmt.Errorf("hamiltonian %d right sweep: %w", i, err)
			return
		}

		// Left side: differentiate <H psi|phi> and conjugate back.
		braL := psiR.clone().(*vectorEngine)
		braL.applyHamiltonian(hams[i])
		ketL := psiL.clone().(*vectorEngine)
		err = backwardAccumulate(braL, ketL, leftCirc, hermLeft, pb, slots, grad, cmplx.Conj)
		if err != nil {
			errs[i] = fmt.Errorf("hamiltonian %d left sweep: %w", i, err)
			return
		}
		results[i] = &GradResult{Value: value, Grad: grad}
	})
	s.metrics.recordGradientEvals(int64(len(hams)))
	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}

// GetExpectationNonHermitianWithGradMultiMulti is the batched form of the
// non-Hermitian gradient: batchThreads workers over encoder rows and
// meaThreads workers over Hamiltonians within a row.
func (s *State) GetExpectationNonHermitianWithGradMultiMulti(hams, hermHams []*Hamiltonian,
	leftCirc, rightCirc Circuit, encData [][]float64, ansData []float64,
	encNames, ansNames []string, left *State, batchThreads, meaThreads int) ([][]*GradResult, error) {
	if batchThreads < 1 || meaThreads < 1 {
		return nil, fmt.Errorf("thread counts (%d, %d) must be positive: %w",
			batchThreads, meaThreads, ErrInvalidCircuit)
	}
	if len(ansData) != len(ansNames) {
		return nil, fmt.Errorf("ansatz data has %d values for %d names: %w",
			len(ansData), len(ansNames), ErrDimensionMismatch)
	}
	for r, row := range encData {
		if len(row) != len(encNames) {
			return nil, fmt.Errorf("encoder row %d has %d values for %d names: %w",
				r, len(row), len(encNames), ErrDimensionMismatch)
		}
	}
	params := make([]string, 0, len(encNames)+len(ansNames))
	params = append(params, encNames...)
	params = append(params, ansNames...)

	out := make([][]*GradResult, len(encData))
	errs := make([]error, len(encData))
	runIndexed(len(encData), batchThreads, func(r int) {
		pb := make(ParameterBinding, len(params))
		for i, name := range encNames {
			pb[name] = encData[r][i]
		}
		for i, name := range ansNames {
			pb[name] = ansData[i]
		}
		out[r], errs[r] = s.GetExpectationNonHermitianWithGradOneMulti(
			hams, hermHams, leftCirc, rightCirc, pb, params, meaThreads, left)
	})
	if err := errors.Join(errs...); err != nil {
		return out, err
	}
	return out, nil
}
