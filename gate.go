package mindquantum

import (
	"fmt"
	"math"
	"math/cmplx"
)

// GateID identifies the semantics of a gate descriptor. The set is closed;
// the state engines switch behavior on this tag.
type GateID uint8

const (
	GateNull GateID = iota
	GateI
	GateX
	GateY
	GateZ
	GateH
	GateS
	GateSdag
	GateT
	GateTdag
	GateSWAP
	GateISWAP
	GateCNOT
	GateCZ
	GateRX
	GateRY
	GateRZ
	GateRxx
	GateRyy
	GateRzz
	GatePS
	GateGP
	GateU3
	GateFSim
	GateM
	GatePL
	GateDEP
	GateAD
	GatePD
	GateKRAUS
	GateCUSTOM
)

var gateNames = map[GateID]string{
	GateI: "I", GateX: "X", GateY: "Y", GateZ: "Z", GateH: "H",
	GateS: "S", GateSdag: "Sdag", GateT: "T", GateTdag: "Tdag",
	GateSWAP: "SWAP", GateISWAP: "ISWAP", GateCNOT: "CNOT", GateCZ: "CZ",
	GateRX: "RX", GateRY: "RY", GateRZ: "RZ",
	GateRxx: "Rxx", GateRyy: "Ryy", GateRzz: "Rzz",
	GatePS: "PS", GateGP: "GP", GateU3: "U3", GateFSim: "FSim",
	GateM: "M", GatePL: "PL", GateDEP: "DEP", GateAD: "AD", GatePD: "PD",
	GateKRAUS: "KRAUS", GateCUSTOM: "CUSTOM",
}

func (id GateID) String() string {
	if name, ok := gateNames[id]; ok {
		return name
	}
	return fmt.Sprintf("GateID(%d)", uint8(id))
}

/*
Gate is an immutable-once-applied descriptor: a gate kind, ordered target
qubits, control qubits (set semantics; the math is control-order-invariant),
optional symbolic angle expressions and, for custom gates and channels, the
literal matrices. Descriptors are shared read-only between a circuit
definition and any number of state instances.
*/
type Gate struct {
	ID       GateID
	Targets  []int
	Controls []int

	// Params holds the angle expressions. Rotations carry one entry, U3
	// three (theta, phi, lambda) and FSim two (theta, phi).
	Params []ParamExpr

	// Mat is the literal unitary of a CUSTOM gate over its target space.
	Mat [][]complex128

	// KrausOps are the operators of a KRAUS channel.
	KrausOps [][][]complex128

	// Probs parameterizes the builtin channels: PL uses (px, py, pz), DEP a
	// single probability, AD/PD a single damping coefficient.
	Probs []float64

	// Key labels a measurement gate's outcome in ApplyCircuit results.
	Key string
}

// Fixed single-qubit gates.

func I(target int) *Gate { return &Gate{ID: GateI, Targets: []int{target}} }

func X(target int, controls ...int) *Gate {
	return &Gate{ID: GateX, Targets: []int{target}, Controls: controls}
}

func Y(target int, controls ...int) *Gate {
	return &Gate{ID: GateY, Targets: []int{target}, Controls: controls}
}

func Z(target int, controls ...int) *Gate {
	return &Gate{ID: GateZ, Targets: []int{target}, Controls: controls}
}

func H(target int, controls ...int) *Gate {
	return &Gate{ID: GateH, Targets: []int{target}, Controls: controls}
}

func S(target int) *Gate    { return &Gate{ID: GateS, Targets: []int{target}} }
func Sdag(target int) *Gate { return &Gate{ID: GateSdag, Targets: []int{target}} }
func T(target int) *Gate    { return &Gate{ID: GateT, Targets: []int{target}} }
func Tdag(target int) *Gate { return &Gate{ID: GateTdag, Targets: []int{target}} }

// Fixed two-qubit gates.

func SWAP(q0, q1 int, controls ...int) *Gate {
	return &Gate{ID: GateSWAP, Targets: []int{q0, q1}, Controls: controls}
}

func ISWAP(q0, q1 int, controls ...int) *Gate {
	return &Gate{ID: GateISWAP, Targets: []int{q0, q1}, Controls: controls}
}

// CNOT flips target when control is set.
func CNOT(target, control int) *Gate {
	return &Gate{ID: GateCNOT, Targets: []int{target}, Controls: []int{control}}
}

func CZ(q0, q1 int) *Gate {
	return &Gate{ID: GateCZ, Targets: []int{q1}, Controls: []int{q0}}
}

// Parameterized gates.

func RX(theta ParamExpr, target int, controls ...int) *Gate {
	return &Gate{ID: GateRX, Targets: []int{target}, Controls: controls, Params: []ParamExpr{theta}}
}

func RY(theta ParamExpr, target int, controls ...int) *Gate {
	return &Gate{ID: GateRY, Targets: []int{target}, Controls: controls, Params: []ParamExpr{theta}}
}

func RZ(theta ParamExpr, target int, controls ...int) *Gate {
	return &Gate{ID: GateRZ, Targets: []int{target}, Controls: controls, Params: []ParamExpr{theta}}
}

func Rxx(theta ParamExpr, q0, q1 int, controls ...int) *Gate {
	return &Gate{ID: GateRxx, Targets: []int{q0, q1}, Controls: controls, Params: []ParamExpr{theta}}
}

func Ryy(theta ParamExpr, q0, q1 int, controls ...int) *Gate {
	return &Gate{ID: GateRyy, Targets: []int{q0, q1}, Controls: controls, Params: []ParamExpr{theta}}
}

func Rzz(theta ParamExpr, q0, q1 int, controls ...int) *Gate {
	return &Gate{ID: GateRzz, Targets: []int{q0, q1}, Controls: controls, Params: []ParamExpr{theta}}
}

// PS is the phase-shift gate diag(1, e^{i theta}).
func PS(theta ParamExpr, target int, controls ...int) *Gate {
	return &Gate{ID: GatePS, Targets: []int{target}, Controls: controls, Params: []ParamExpr{theta}}
}

// GP multiplies the (control-restricted) state by the global phase e^{-i theta}.
func GP(theta ParamExpr, target int, controls ...int) *Gate {
	return &Gate{ID: GateGP, Targets: []int{target}, Controls: controls, Params: []ParamExpr{theta}}
}

func U3(theta, phi, lambda ParamExpr, target int, controls ...int) *Gate {
	return &Gate{
		ID: GateU3, Targets: []int{target}, Controls: controls,
		Params: []ParamExpr{theta, phi, lambda},
	}
}

func FSim(theta, phi ParamExpr, q0, q1 int) *Gate {
	return &Gate{ID: GateFSim, Targets: []int{q0, q1}, Params: []ParamExpr{theta, phi}}
}

// Measurement and channels.

// Measure samples the target qubit in the computational basis and records
// the outcome under key in ApplyCircuit results.
func Measure(key string, target int) *Gate {
	return &Gate{ID: GateM, Targets: []int{target}, Key: key}
}

func PauliChannel(px, py, pz float64, target int) *Gate {
	return &Gate{ID: GatePL, Targets: []int{target}, Probs: []float64{px, py, pz}}
}

func DepolarizingChannel(p float64, target int) *Gate {
	return &Gate{ID: GateDEP, Targets: []int{target}, Probs: []float64{p}}
}

func AmplitudeDamping(gamma float64, target int) *Gate {
	return &Gate{ID: GateAD, Targets: []int{target}, Probs: []float64{gamma}}
}

func PhaseDamping(gamma float64, target int) *Gate {
	return &Gate{ID: GatePD, Targets: []int{target}, Probs: []float64{gamma}}
}

func KrausChannel(ops [][][]complex128, target int) *Gate {
	return &Gate{ID: GateKRAUS, Targets: []int{target}, KrausOps: ops}
}

// Custom wraps a caller-supplied unitary over len(targets) qubits. Bit b of
// the matrix index corresponds to targets[b].
func Custom(m [][]complex128, targets []int, controls ...int) *Gate {
	return &Gate{ID: GateCUSTOM, Targets: targets, Controls: controls, Mat: m}
}

func (g *Gate) String() string {
	return fmt.Sprintf("%s(targets=%v, controls=%v)", g.ID, g.Targets, g.Controls)
}

// IsChannel reports whether the gate is a noise channel.
func (g *Gate) IsChannel() bool {
	switch g.ID {
	case GatePL, GateDEP, GateAD, GatePD, GateKRAUS:
		return true
	}
	return false
}

// IsMeasure reports whether the gate collapses the state on application.
func (g *Gate) IsMeasure() bool { return g.ID == GateM }

// Parameterized reports whether any angle carries a symbolic parameter.
func (g *Gate) Parameterized() bool {
	for _, p := range g.Params {
		if !p.IsConst() {
			return true
		}
	}
	return false
}

// validate checks qubit indices against the state size and angle expressions
// against the binding, before anything touches the buffer.
func (g *Gate) validate(nQubits int, pb ParameterBinding) error {
	if len(g.Targets) == 0 {
		return fmt.Errorf("gate %s has no target qubits: %w", g.ID, ErrInvalidCircuit)
	}
	seen := make(map[int]bool, len(g.Targets)+len(g.Controls))
	for _, q := range append(append([]int{}, g.Targets...), g.Controls...) {
		if q < 0 || q >= nQubits {
			return fmt.Errorf("gate %s references qubit %d on a %d-qubit state: %w",
				g.ID, q, nQubits, ErrQubitOutOfRange)
		}
		if seen[q] {
			return fmt.Errorf("gate %s references qubit %d twice: %w", g.ID, q, ErrInvalidCircuit)
		}
		seen[q] = true
	}
	for _, e := range g.Params {
		for _, name := range e.Names() {
			if !pb.Has(name) {
				return fmt.Errorf("gate %s: parameter %q: %w", g.ID, name, ErrMissingParameter)
			}
		}
	}
	switch g.ID {
	case GatePL:
		sum := 0.0
		for _, p := range g.Probs {
			if p < 0 || p > 1 {
				return fmt.Errorf("gate %s: probability %v out of [0,1]: %w", g.ID, p, ErrInvalidCircuit)
			}
			sum += p
		}
		if sum > 1+1e-12 {
			return fmt.Errorf("gate %s: probabilities sum to %v > 1: %w", g.ID, sum, ErrInvalidCircuit)
		}
	case GateDEP, GateAD, GatePD:
		if g.Probs[0] < 0 || g.Probs[0] > 1 {
			return fmt.Errorf("gate %s: coefficient %v out of [0,1]: %w", g.ID, g.Probs[0], ErrInvalidCircuit)
		}
	case GateKRAUS:
		if len(g.KrausOps) == 0 {
			return fmt.Errorf("gate %s: empty operator set: %w", g.ID, ErrInvalidCircuit)
		}
		want := 1 << len(g.Targets)
		for _, op := range g.KrausOps {
			if len(op) != want {
				return fmt.Errorf("gate %s: operator is %dx? but targets span %d: %w",
					g.ID, len(op), want, ErrDimensionMismatch)
			}
			for _, row := range op {
				if len(row) != want {
					return fmt.Errorf("gate %s: non-square operator row: %w", g.ID, ErrDimensionMismatch)
				}
			}
		}
	case GateCUSTOM:
		want := 1 << len(g.Targets)
		if len(g.Mat) != want {
			return fmt.Errorf("gate %s: matrix is %dx? but targets span %d: %w",
				g.ID, len(g.Mat), want, ErrDimensionMismatch)
		}
		for _, row := range g.Mat {
			if len(row) != want {
				return fmt.Errorf("gate %s: non-square matrix row: %w", g.ID, ErrDimensionMismatch)
			}
		}
	}
	return nil
}

// unitary resolves the dense matrix over the gate's target space.
func (g *Gate) unitary(pb ParameterBinding) ([][]complex128, error) {
	h := complex(1/math.Sqrt2, 0)
	switch g.ID {
	case GateI:
		return [][]complex128{{1, 0}, {0, 1}}, nil
	case GateX, GateCNOT:
		return [][]complex128{{0, 1}, {1, 0}}, nil
	case GateY:
		return [][]complex128{{0, -1i}, {1i, 0}}, nil
	case GateZ, GateCZ:
		return [][]complex128{{1, 0}, {0, -1}}, nil
	case GateH:
		return [][]complex128{{h, h}, {h, -h}}, nil
	case GateS:
		return [][]complex128{{1, 0}, {0, 1i}}, nil
	case GateSdag:
		return [][]complex128{{1, 0}, {0, -1i}}, nil
	case GateT:
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, nil
	case GateTdag:
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}, nil
	case GateSWAP:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
		}, nil
	case GateISWAP:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 0, 1i, 0},
			{0, 1i, 0, 0},
			{0, 0, 0, 1},
		}, nil
	case GateRX:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		c := complex(math.Cos(theta/2), 0)
		js := complex(0, -math.Sin(theta/2))
		return [][]complex128{{c, js}, {js, c}}, nil
	case GateRY:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		return [][]complex128{{c, -s}, {s, c}}, nil
	case GateRZ:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		p := cmplx.Exp(complex(0, theta/2))
		return [][]complex128{{cmplx.Conj(p), 0}, {0, p}}, nil
	case GateRxx, GateRyy, GateRzz:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		return twoAxisRotation(g.ID, theta), nil
	case GatePS:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		return [][]complex128{{1, 0}, {0, cmplx.Exp(complex(0, theta))}}, nil
	case GateGP:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		p := cmplx.Exp(complex(0, -theta))
		return [][]complex128{{p, 0}, {0, p}}, nil
	case GateU3:
		theta, phi, lambda, err := g.resolveU3(pb)
		if err != nil {
			return nil, err
		}
		return u3Matrix(theta, phi, lambda), nil
	case GateFSim:
		theta, phi, err := g.resolveFSim(pb)
		if err != nil {
			return nil, err
		}
		c := complex(math.Cos(theta), 0)
		js := complex(0, -math.Sin(theta))
		return [][]complex128{
			{1, 0, 0, 0},
			{0, c, js, 0},
			{0, js, c, 0},
			{0, 0, 0, cmplx.Exp(complex(0, -phi))},
		}, nil
	case GateCUSTOM:
		return g.Mat, nil
	}
	return nil, fmt.Errorf("gate %s has no unitary matrix: %w", g.ID, ErrInvalidCircuit)
}

// diagonal returns the diagonal entries for gates with a phase fast path.
func (g *Gate) diagonal(pb ParameterBinding) ([]complex128, bool, error) {
	switch g.ID {
	case GateZ, GateCZ:
		return []complex128{1, -1}, true, nil
	case GateS:
		return []complex128{1, 1i}, true, nil
	case GateSdag:
		return []complex128{1, -1i}, true, nil
	case GateT:
		return []complex128{1, cmplx.Exp(complex(0, math.Pi/4))}, true, nil
	case GateTdag:
		return []complex128{1, cmplx.Exp(complex(0, -math.Pi/4))}, true, nil
	case GateRZ:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, false, err
		}
		p := cmplx.Exp(complex(0, theta/2))
		return []complex128{cmplx.Conj(p), p}, true, nil
	case GatePS:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, false, err
		}
		return []complex128{1, cmplx.Exp(complex(0, theta))}, true, nil
	case GateGP:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, false, err
		}
		p := cmplx.Exp(complex(0, -theta))
		return []complex128{p, p}, true, nil
	case GateRzz:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, false, err
		}
		p := cmplx.Exp(complex(0, theta/2))
		q := cmplx.Conj(p)
		return []complex128{q, p, p, q}, true, nil
	}
	return nil, false, nil
}

// diffMatrix resolves d(unitary)/d(angle k) at the bound parameter values.
// The result is generally not unitary; it only ever touches scratch buffers.
func (g *Gate) diffMatrix(pb ParameterBinding, k int) ([][]complex128, error) {
	if k < 0 || k >= len(g.Params) {
		return nil, fmt.Errorf("gate %s: derivative index %d: %w", g.ID, k, ErrNotDifferentiable)
	}
	switch g.ID {
	case GateRX:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		c := complex(-math.Sin(theta/2)/2, 0)
		js := complex(0, -math.Cos(theta/2)/2)
		return [][]complex128{{c, js}, {js, c}}, nil
	case GateRY:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		c := complex(-math.Sin(theta/2)/2, 0)
		s := complex(math.Cos(theta/2)/2, 0)
		return [][]complex128{{c, -s}, {s, c}}, nil
	case GateRZ:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		p := cmplx.Exp(complex(0, theta/2))
		return [][]complex128{
			{complex(0, -0.5) * cmplx.Conj(p), 0},
			{0, complex(0, 0.5) * p},
		}, nil
	case GateRxx, GateRyy, GateRzz:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		return twoAxisRotationDiff(g.ID, theta), nil
	case GatePS:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		return [][]complex128{{0, 0}, {0, 1i * cmplx.Exp(complex(0, theta))}}, nil
	case GateGP:
		theta, err := g.Params[0].Resolve(pb)
		if err != nil {
			return nil, err
		}
		d := complex(0, -1) * cmplx.Exp(complex(0, -theta))
		return [][]complex128{{d, 0}, {0, d}}, nil
	case GateU3:
		theta, phi, lambda, err := g.resolveU3(pb)
		if err != nil {
			return nil, err
		}
		return u3DiffMatrix(theta, phi, lambda, k), nil
	case GateFSim:
		theta, phi, err := g.resolveFSim(pb)
		if err != nil {
			return nil, err
		}
		if k == 0 {
			s := complex(-math.Sin(theta), 0)
			jc := complex(0, -math.Cos(theta))
			return [][]complex128{
				{0, 0, 0, 0},
				{0, s, jc, 0},
				{0, jc, s, 0},
				{0, 0, 0, 0},
			}, nil
		}
		return [][]complex128{
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, complex(0, -1) * cmplx.Exp(complex(0, -phi))},
		}, nil
	}
	return nil, fmt.Errorf("gate %s: %w", g.ID, ErrNotDifferentiable)
}

/*
Hermitian returns the conjugate-transpose gate. Rotations negate their angle
expressions, S/T swap with their daggered forms, U3 negates and exchanges phi
and lambda, and gates without a named adjoint fall back to a CUSTOM gate
carrying the daggered matrix.
*/
func (g *Gate) Hermitian() (*Gate, error) {
	out := &Gate{ID: g.ID, Targets: g.Targets, Controls: g.Controls, Key: g.Key}
	switch g.ID {
	case GateI, GateX, GateY, GateZ, GateH, GateSWAP, GateCNOT, GateCZ:
		return out, nil
	case GateS:
		out.ID = GateSdag
		return out, nil
	case GateSdag:
		out.ID = GateS
		return out, nil
	case GateT:
		out.ID = GateTdag
		return out, nil
	case GateTdag:
		out.ID = GateT
		return out, nil
	case GateISWAP:
		m, _ := g.unitary(nil)
		return Custom(dagger(m), g.Targets, g.Controls...), nil
	case GateRX, GateRY, GateRZ, GateRxx, GateRyy, GateRzz, GatePS, GateGP:
		out.Params = []ParamExpr{g.Params[0].Neg()}
		return out, nil
	case GateU3:
		out.Params = []ParamExpr{g.Params[0].Neg(), g.Params[2].Neg(), g.Params[1].Neg()}
		return out, nil
	case GateFSim:
		out.Params = []ParamExpr{g.Params[0].Neg(), g.Params[1].Neg()}
		return out, nil
	case GateCUSTOM:
		return Custom(dagger(g.Mat), g.Targets, g.Controls...), nil
	}
	return nil, fmt.Errorf("gate %s has no Hermitian conjugate: %w", g.ID, ErrInvalidCircuit)
}

// krausOperators expands a channel gate into its explicit operator set.
func (g *Gate) krausOperators() ([][][]complex128, error) {
	id := [][]complex128{{1, 0}, {0, 1}}
	px := [][]complex128{{0, 1}, {1, 0}}
	py := [][]complex128{{0, -1i}, {1i, 0}}
	pz := [][]complex128{{1, 0}, {0, -1}}
	switch g.ID {
	case GatePL:
		x, y, z := g.Probs[0], g.Probs[1], g.Probs[2]
		rest := 1 - x - y - z
		if rest < 0 {
			rest = 0
		}
		return [][][]complex128{
			scaleMatrix(id, complex(math.Sqrt(rest), 0)),
			scaleMatrix(px, complex(math.Sqrt(x), 0)),
			scaleMatrix(py, complex(math.Sqrt(y), 0)),
			scaleMatrix(pz, complex(math.Sqrt(z), 0)),
		}, nil
	case GateDEP:
		p := g.Probs[0]
		s := complex(math.Sqrt(p/3), 0)
		return [][][]complex128{
			scaleMatrix(id, complex(math.Sqrt(1-p), 0)),
			scaleMatrix(px, s),
			scaleMatrix(py, s),
			scaleMatrix(pz, s),
		}, nil
	case GateAD:
		gamma := g.Probs[0]
		return [][][]complex128{
			{{1, 0}, {0, complex(math.Sqrt(1-gamma), 0)}},
			{{0, complex(math.Sqrt(gamma), 0)}, {0, 0}},
		}, nil
	case GatePD:
		gamma := g.Probs[0]
		return [][][]complex128{
			{{1, 0}, {0, complex(math.Sqrt(1-gamma), 0)}},
			{{0, 0}, {0, complex(math.Sqrt(gamma), 0)}},
		}, nil
	case GateKRAUS:
		return g.KrausOps, nil
	}
	return nil, fmt.Errorf("gate %s is not a channel: %w", g.ID, ErrInvalidCircuit)
}

func (g *Gate) resolveU3(pb ParameterBinding) (theta, phi, lambda float64, err error) {
	if theta, err = g.Params[0].Resolve(pb); err != nil {
		return
	}
	if phi, err = g.Params[1].Resolve(pb); err != nil {
		return
	}
	lambda, err = g.Params[2].Resolve(pb)
	return
}

func (g *Gate) resolveFSim(pb ParameterBinding) (theta, phi float64, err error) {
	if theta, err = g.Params[0].Resolve(pb); err != nil {
		return
	}
	phi, err = g.Params[1].Resolve(pb)
	return
}

// twoAxisRotation builds exp(-i theta/2 * sigma⊗sigma) for the Rxx/Ryy/Rzz
// family: cos(theta/2) I - i sin(theta/2) (sigma⊗sigma).
func twoAxisRotation(id GateID, theta float64) [][]complex128 {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	m := make([][]complex128, 4)
	for i := range m {
		m[i] = make([]complex128, 4)
		m[i][i] = c
	}
	addPauliPair(m, id, js)
	return m
}

func twoAxisRotationDiff(id GateID, theta float64) [][]complex128 {
	c := complex(-math.Sin(theta/2)/2, 0)
	js := complex(0, -math.Cos(theta/2)/2)
	m := make([][]complex128, 4)
	for i := range m {
		m[i] = make([]complex128, 4)
		m[i][i] = c
	}
	addPauliPair(m, id, js)
	return m
}

// addPauliPair adds s*(sigma⊗sigma) into m for the axis pair of id.
func addPauliPair(m [][]complex128, id GateID, s complex128) {
	switch id {
	case GateRxx:
		// X⊗X is the anti-diagonal.
		m[0][3] += s
		m[1][2] += s
		m[2][1] += s
		m[3][0] += s
	case GateRyy:
		m[0][3] -= s
		m[1][2] += s
		m[2][1] += s
		m[3][0] -= s
	case GateRzz:
		m[0][0] += s
		m[1][1] -= s
		m[2][2] -= s
		m[3][3] += s
	}
}

func u3Matrix(theta, phi, lambda float64) [][]complex128 {
	c := math.Cos(theta / 2)
	s := math.Sin(theta / 2)
	return [][]complex128{
		{complex(c, 0), -cmplx.Exp(complex(0, lambda)) * complex(s, 0)},
		{cmplx.Exp(complex(0, phi)) * complex(s, 0), cmplx.Exp(complex(0, phi+lambda)) * complex(c, 0)},
	}
}

func u3DiffMatrix(theta, phi, lambda float64, k int) [][]complex128 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	el := cmplx.Exp(complex(0, lambda))
	ep := cmplx.Exp(complex(0, phi))
	epl := cmplx.Exp(complex(0, phi+lambda))
	switch k {
	case 0: // d/d theta
		return [][]complex128{
			{-s / 2, -el * c / 2},
			{ep * c / 2, -epl * s / 2},
		}
	case 1: // d/d phi
		return [][]complex128{
			{0, 0},
			{1i * ep * s, 1i * epl * c},
		}
	default: // d/d lambda
		return [][]complex128{
			{0, -1i * el * s},
			{0, 1i * epl * c},
		}
	}
}

// dagger returns the conjugate transpose of a square matrix.
func dagger(m [][]complex128) [][]complex128 {
	n := len(m)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := range out[i] {
			out[i][j] = cmplx.Conj(m[j][i])
		}
	}
	return out
}

func scaleMatrix(m [][]complex128, s complex128) [][]complex128 {
	out := make([][]complex128, len(m))
	for i, row := range m {
		out[i] = make([]complex128, len(row))
		for j, v := range row {
			out[i][j] = s * v
		}
	}
	return out
}
