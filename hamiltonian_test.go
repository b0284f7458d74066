package mindquantum

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHamiltonianExpectationBasics(t *testing.T) {
	Convey("Given single-qubit eigenstates", t, func() {
		Convey("Z on |0> is +1 and on |1> is -1", func() {
			z := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 0, Axis: 'Z'}}}})

			s, err := NewVectorState(1)
			So(err, ShouldBeNil)
			v, err := s.GetExpectation(z)
			So(err, ShouldBeNil)
			So(math.Abs(real(v)-1), ShouldBeLessThan, tol)

			_, err = s.ApplyGate(X(0), nil, false)
			So(err, ShouldBeNil)
			v, err = s.GetExpectation(z)
			So(err, ShouldBeNil)
			So(math.Abs(real(v)+1), ShouldBeLessThan, tol)
		})

		Convey("X on |+> is +1", func() {
			x := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 0, Axis: 'X'}}}})
			s, err := NewVectorState(1)
			So(err, ShouldBeNil)
			_, err = s.ApplyGate(H(0), nil, false)
			So(err, ShouldBeNil)
			v, err := s.GetExpectation(x)
			So(err, ShouldBeNil)
			So(math.Abs(real(v)-1), ShouldBeLessThan, tol)
		})

		Convey("Y on the S|+> state is +1", func() {
			y := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 0, Axis: 'Y'}}}})
			s, err := NewVectorState(1)
			So(err, ShouldBeNil)
			_, err = s.ApplyCircuit(Circuit{H(0), S(0)}, nil)
			So(err, ShouldBeNil)
			v, err := s.GetExpectation(y)
			So(err, ShouldBeNil)
			So(math.Abs(real(v)-1), ShouldBeLessThan, tol)
		})

		Convey("An empty Pauli string is the identity", func() {
			id := NewHamiltonian([]PauliTerm{{Coeff: 2.5}})
			s, err := NewVectorState(1)
			So(err, ShouldBeNil)
			_, err = s.ApplyGate(H(0), nil, false)
			So(err, ShouldBeNil)
			v, err := s.GetExpectation(id)
			So(err, ShouldBeNil)
			So(math.Abs(real(v)-2.5), ShouldBeLessThan, tol)
		})
	})
}

func TestHamiltonianLinearity(t *testing.T) {
	Convey("Given a multi-term Hamiltonian", t, func() {
		t1 := PauliTerm{Coeff: 0.8, Ops: []PauliOp{{Qubit: 0, Axis: 'Z'}}}
		t2 := PauliTerm{Coeff: -1.3, Ops: []PauliOp{{Qubit: 1, Axis: 'X'}}}
		sum := NewHamiltonian([]PauliTerm{t1, t2})

		s, err := NewVectorState(2)
		So(err, ShouldBeNil)
		_, err = s.ApplyCircuit(Circuit{RY(Fixed(0.9), 0), H(1), T(1)}, nil)
		So(err, ShouldBeNil)

		Convey("The expectation is the sum of the term expectations", func() {
			vs, err := s.GetExpectation(sum)
			So(err, ShouldBeNil)
			v1, err := s.GetExpectation(NewHamiltonian([]PauliTerm{t1}))
			So(err, ShouldBeNil)
			v2, err := s.GetExpectation(NewHamiltonian([]PauliTerm{t2}))
			So(err, ShouldBeNil)
			So(cmplx.Abs(vs-(v1+v2)), ShouldBeLessThan, tol)
		})
	})
}

func TestApplyHamiltonian(t *testing.T) {
	Convey("Given the ZZ string on a Bell state", t, func() {
		s, err := NewVectorState(2)
		So(err, ShouldBeNil)
		_, err = s.ApplyCircuit(Circuit{H(0), CNOT(1, 0)}, nil)
		So(err, ShouldBeNil)

		h := NewHamiltonian([]PauliTerm{{
			Coeff: 1,
			Ops:   []PauliOp{{Qubit: 0, Axis: 'Z'}, {Qubit: 1, Axis: 'Z'}},
		}})

		Convey("H|psi> reproduces the Bell state (it is a +1 eigenstate)", func() {
			before := s.GetQS()
			So(s.ApplyHamiltonian(h), ShouldBeNil)
			after := s.GetQS()
			for i := range before {
				So(cmplx.Abs(after[i]-before[i]), ShouldBeLessThan, tol)
			}
		})
	})

	Convey("Given an XY string, the buffer picks up the Pauli phases", t, func() {
		s, err := NewVectorState(2)
		So(err, ShouldBeNil)

		h := NewHamiltonian([]PauliTerm{{
			Coeff: 1,
			Ops:   []PauliOp{{Qubit: 0, Axis: 'X'}, {Qubit: 1, Axis: 'Y'}},
		}})

		Convey("X0 Y1 |00> = i|11>", func() {
			So(s.ApplyHamiltonian(h), ShouldBeNil)
			qs := s.GetQS()
			So(cmplx.Abs(qs[3]-complex(0, 1)), ShouldBeLessThan, tol)
			So(cmplx.Abs(qs[0]), ShouldBeLessThan, tol)
		})
	})
}

func TestHamiltonianConjugate(t *testing.T) {
	Convey("Given a Hamiltonian with complex coefficients", t, func() {
		h := NewHamiltonian([]PauliTerm{
			{Coeff: complex(0.5, 1.2), Ops: []PauliOp{{Qubit: 0, Axis: 'X'}}},
			{Coeff: complex(-0.3, 0), Ops: []PauliOp{{Qubit: 0, Axis: 'Z'}}},
		})

		Convey("Conjugate flips the imaginary parts and keeps the strings", func() {
			c := h.Conjugate()
			So(c.Terms[0].Coeff, ShouldEqual, complex(0.5, -1.2))
			So(c.Terms[1].Coeff, ShouldEqual, complex(-0.3, 0))
			So(c.Terms[0].Ops, ShouldResemble, h.Terms[0].Ops)
		})
	})
}

func TestHamiltonianValidation(t *testing.T) {
	Convey("Given malformed Hamiltonians", t, func() {
		s, err := NewVectorState(1)
		So(err, ShouldBeNil)

		Convey("A term outside the register is rejected", func() {
			h := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 4, Axis: 'Z'}}}})
			_, err := s.GetExpectation(h)
			So(errors.Is(err, ErrQubitOutOfRange), ShouldBeTrue)
		})

		Convey("An unknown axis is rejected", func() {
			h := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{{Qubit: 0, Axis: 'Q'}}}})
			_, err := s.GetExpectation(h)
			So(errors.Is(err, ErrInvalidCircuit), ShouldBeTrue)
		})

		Convey("A term touching one qubit twice is rejected", func() {
			h := NewHamiltonian([]PauliTerm{{Coeff: 1, Ops: []PauliOp{
				{Qubit: 0, Axis: 'X'}, {Qubit: 0, Axis: 'Z'},
			}}})
			_, err := s.GetExpectation(h)
			So(errors.Is(err, ErrInvalidCircuit), ShouldBeTrue)
		})
	})
}
