package mindquantum

import (
	"fmt"
	"sort"
)

/*
ParameterBinding maps parameter names to concrete scalar values. It is
supplied alongside a circuit application and must cover every symbolic
parameter the circuit references.
*/
type ParameterBinding map[string]float64

// Has reports whether a value is bound for name.
func (pb ParameterBinding) Has(name string) bool {
	_, ok := pb[name]
	return ok
}

// Value returns the bound value for name.
func (pb ParameterBinding) Value(name string) (float64, error) {
	v, ok := pb[name]
	if !ok {
		return 0, fmt.Errorf("parameter %q: %w", name, ErrMissingParameter)
	}
	return v, nil
}

/*
ParamExpr is an affine combination of named parameters:

	value = Const + sum over names of Coeff[name] * binding[name]

A rotation angle may mix several named parameters; the coefficient of each
name is also its local derivative, which the differentiation engine uses for
the chain rule.
*/
type ParamExpr struct {
	Const float64
	Coeff map[string]float64
}

// Param builds an expression consisting of a single named parameter.
func Param(name string) ParamExpr {
	return ParamExpr{Coeff: map[string]float64{name: 1}}
}

// Fixed builds a constant expression with no symbolic part.
func Fixed(v float64) ParamExpr {
	return ParamExpr{Const: v}
}

// Scaled builds coeff*name + offset, the general affine single-name form.
func Scaled(name string, coeff, offset float64) ParamExpr {
	return ParamExpr{Const: offset, Coeff: map[string]float64{name: coeff}}
}

// IsConst reports whether the expression carries no symbolic parameter.
func (e ParamExpr) IsConst() bool {
	for _, c := range e.Coeff {
		if c != 0 {
			return false
		}
	}
	return true
}

// Names returns the referenced parameter names in sorted order.
func (e ParamExpr) Names() []string {
	names := make([]string, 0, len(e.Coeff))
	for name := range e.Coeff {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve evaluates the expression against a binding. It fails if any
// referenced name is unbound, before any caller-visible mutation happens.
func (e ParamExpr) Resolve(pb ParameterBinding) (float64, error) {
	v := e.Const
	for name, c := range e.Coeff {
		pv, err := pb.Value(name)
		if err != nil {
			return 0, err
		}
		v += c * pv
	}
	return v, nil
}

// Neg returns the expression multiplied by -1. Used when building the
// Hermitian conjugate of a rotation gate.
func (e ParamExpr) Neg() ParamExpr {
	out := ParamExpr{Const: -e.Const}
	if len(e.Coeff) > 0 {
		out.Coeff = make(map[string]float64, len(e.Coeff))
		for name, c := range e.Coeff {
			out.Coeff[name] = -c
		}
	}
	return out
}
