package mindquantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"
)

const tol = 1e-10

// fidelity returns |<a|b>| for two amplitude buffers, one up to global phase.
func fidelity(a, b []complex128) float64 {
	var acc complex128
	for i := range a {
		acc += cmplx.Conj(a[i]) * b[i]
	}
	return cmplx.Abs(acc)
}

func TestBellState(t *testing.T) {
	Convey("Given a 2-qubit state in |00>", t, func() {
		s, err := NewVectorState(2)
		So(err, ShouldBeNil)

		Convey("When applying H on qubit 0 then CNOT(control=0, target=1)", func() {
			_, err := s.ApplyCircuit(Circuit{H(0), CNOT(1, 0)}, nil)
			So(err, ShouldBeNil)

			Convey("Then the state is (|00>+|11>)/sqrt(2)", func() {
				qs := s.GetQS()
				t.Logf("bell amplitudes: %s", spew.Sdump(qs))
				inv := 1 / math.Sqrt2
				So(cmplx.Abs(qs[0]-complex(inv, 0)), ShouldBeLessThan, tol)
				So(cmplx.Abs(qs[1]), ShouldBeLessThan, tol)
				So(cmplx.Abs(qs[2]), ShouldBeLessThan, tol)
				So(cmplx.Abs(qs[3]-complex(inv, 0)), ShouldBeLessThan, tol)
			})
		})

		Convey("When measuring both qubits of a Bell pair under many seeds", func() {
			for seed := uint64(0); seed < 32; seed++ {
				bell, err := NewVectorState(2, WithSeed(seed))
				So(err, ShouldBeNil)
				_, err = bell.ApplyCircuit(Circuit{H(0), CNOT(1, 0)}, nil)
				So(err, ShouldBeNil)

				m0, err := bell.ApplyMeasure(Measure("q0", 0))
				So(err, ShouldBeNil)
				m1, err := bell.ApplyMeasure(Measure("q1", 1))
				So(err, ShouldBeNil)

				Convey(fmt.Sprintf("Then the outcomes are perfectly correlated (seed %d)", seed), func() {
					So(m1, ShouldEqual, m0)
				})
			}
		})
	})
}

func TestRXPiOnZero(t *testing.T) {
	Convey("Given a single qubit in |0>", t, func() {
		s, err := NewVectorState(1)
		So(err, ShouldBeNil)

		Convey("When applying RX(pi)", func() {
			_, err := s.ApplyGate(RX(Fixed(math.Pi), 0), nil, false)
			So(err, ShouldBeNil)

			Convey("Then the state is -i|1>", func() {
				qs := s.GetQS()
				So(cmplx.Abs(qs[0]), ShouldBeLessThan, tol)
				So(cmplx.Abs(qs[1]-complex(0, -1)), ShouldBeLessThan, tol)
			})
		})
	})
}

func TestNormPreservation(t *testing.T) {
	Convey("Given a 3-qubit state evolved through a mixed unitary circuit", t, func() {
		s, err := NewVectorState(3)
		So(err, ShouldBeNil)

		circ := Circuit{
			H(0), H(1), H(2),
			RX(Fixed(0.3), 0), RY(Fixed(1.1), 1), RZ(Fixed(-0.7), 2),
			CNOT(1, 0), CZ(1, 2), SWAP(0, 2),
			Rxx(Fixed(0.4), 0, 1), Ryy(Fixed(0.9), 1, 2), Rzz(Fixed(-1.3), 0, 2),
			U3(Fixed(0.2), Fixed(0.5), Fixed(1.7), 1),
			FSim(Fixed(0.6), Fixed(0.8), 0, 2),
			ISWAP(1, 2), T(0), Sdag(2), PS(Fixed(0.25), 1),
			X(2, 0), Z(0, 1),
		}
		_, err = s.ApplyCircuit(circ, nil)
		So(err, ShouldBeNil)

		Convey("Then the norm stays one", func() {
			So(math.Abs(s.Norm()-1), ShouldBeLessThan, tol)
		})
	})
}

func TestGateInverseRoundTrip(t *testing.T) {
	Convey("Given a generic 3-qubit state", t, func() {
		prep := Circuit{H(0), H(1), H(2), T(0), S(1), RY(Fixed(0.37), 2)}

		gates := Circuit{
			H(0), X(1), Y(2), Z(0), S(1), T(2), SWAP(0, 1), ISWAP(1, 2),
			CNOT(2, 0), CZ(0, 2),
			RX(Fixed(0.9), 0), RY(Fixed(-1.2), 1), RZ(Fixed(2.1), 2),
			Rxx(Fixed(0.5), 0, 2), Ryy(Fixed(1.4), 0, 1), Rzz(Fixed(-0.3), 1, 2),
			PS(Fixed(0.77), 0), GP(Fixed(0.2), 1),
			U3(Fixed(0.4), Fixed(1.1), Fixed(-0.6), 2),
			FSim(Fixed(1.0), Fixed(0.3), 0, 1),
			RX(Fixed(0.6), 1, 2), // controlled rotation
		}

		for _, g := range gates {
			s, err := NewVectorState(3)
			So(err, ShouldBeNil)
			_, err = s.ApplyCircuit(prep, nil)
			So(err, ShouldBeNil)
			before := s.GetQS()

			hg, err := g.Hermitian()
			So(err, ShouldBeNil)
			_, err = s.ApplyGate(g, nil, false)
			So(err, ShouldBeNil)
			_, err = s.ApplyGate(hg, nil, false)
			So(err, ShouldBeNil)

			Convey("Then "+g.String()+" followed by its adjoint restores the state", func() {
				So(math.Abs(fidelity(before, s.GetQS())-1), ShouldBeLessThan, tol)
			})
		}
	})
}

func TestStateValidation(t *testing.T) {
	Convey("Given a 2-qubit state", t, func() {
		s, err := NewVectorState(2)
		So(err, ShouldBeNil)

		Convey("Applying a gate on a qubit out of range fails fast", func() {
			_, err := s.ApplyGate(X(5), nil, false)
			So(errors.Is(err, ErrQubitOutOfRange), ShouldBeTrue)
		})

		Convey("A circuit with an unbound parameter fails before mutating the state", func() {
			before := s.GetQS()
			_, err := s.ApplyCircuit(Circuit{H(0), RX(Param("theta"), 1)}, nil)
			So(errors.Is(err, ErrMissingParameter), ShouldBeTrue)
			So(s.GetQS(), ShouldResemble, before)
		})

		Convey("SetQS rejects a buffer of the wrong length", func() {
			err := s.SetQS(make([]complex128, 3))
			So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
		})

		Convey("SetQS accepts a buffer of the exact length", func() {
			data := make([]complex128, 4)
			data[2] = 1
			So(s.SetQS(data), ShouldBeNil)
			So(cmplx.Abs(s.GetQS()[2]-1), ShouldBeLessThan, tol)
		})

		Convey("Constructing with a bad qubit count fails", func() {
			_, err := NewVectorState(0)
			So(errors.Is(err, ErrQubitOutOfRange), ShouldBeTrue)
		})
	})
}

func TestResetAndClone(t *testing.T) {
	Convey("Given an evolved state", t, func() {
		s, err := NewVectorState(2, WithSeed(9))
		So(err, ShouldBeNil)
		_, err = s.ApplyCircuit(Circuit{H(0), CNOT(1, 0)}, nil)
		So(err, ShouldBeNil)

		Convey("Clone is independent of the original", func() {
			c := s.Clone()
			_, err := c.ApplyGate(X(0), nil, false)
			So(err, ShouldBeNil)
			So(math.Abs(fidelity(s.GetQS(), c.GetQS())-1), ShouldBeGreaterThan, 0.1)
		})

		Convey("Reset returns to |00>", func() {
			s.Reset()
			qs := s.GetQS()
			So(cmplx.Abs(qs[0]-1), ShouldBeLessThan, tol)
			So(math.Abs(s.Norm()-1), ShouldBeLessThan, tol)
		})
	})
}

func TestGetCircuitMatrix(t *testing.T) {
	Convey("Given the Bell circuit", t, func() {
		s, err := NewVectorState(2)
		So(err, ShouldBeNil)

		m, err := s.GetCircuitMatrix(Circuit{H(0), CNOT(1, 0)}, nil)
		So(err, ShouldBeNil)

		Convey("Then its first column is the Bell state", func() {
			inv := 1 / math.Sqrt2
			So(cmplx.Abs(m[0][0]-complex(inv, 0)), ShouldBeLessThan, tol)
			So(cmplx.Abs(m[3][0]-complex(inv, 0)), ShouldBeLessThan, tol)
			So(cmplx.Abs(m[1][0]), ShouldBeLessThan, tol)
			So(cmplx.Abs(m[2][0]), ShouldBeLessThan, tol)
		})

		Convey("And it rejects circuits with measurements", func() {
			_, err := s.GetCircuitMatrix(Circuit{H(0), Measure("q", 0)}, nil)
			So(errors.Is(err, ErrInvalidCircuit), ShouldBeTrue)
		})
	})
}

func TestMetricsCounters(t *testing.T) {
	Convey("Given a state with a shared metrics collector", t, func() {
		m := NewMetrics()
		s, err := NewVectorState(1, WithMetrics(m))
		So(err, ShouldBeNil)

		_, err = s.ApplyCircuit(Circuit{H(0), Measure("q", 0)}, nil)
		So(err, ShouldBeNil)

		Convey("Then the counters reflect the run", func() {
			export := m.ExportMetrics()
			So(export["gates_applied"], ShouldEqual, int64(1))
			So(export["measurements"], ShouldEqual, int64(1))
			So(export["circuit_runs"], ShouldEqual, int64(1))
		})
	})
}
