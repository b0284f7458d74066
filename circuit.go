package mindquantum

import (
	"fmt"
	"sort"
)

// Circuit is an ordered gate sequence. Order is semantic: measurement
// collapse makes later gates depend on earlier ones, so application never
// reorders, even across commuting gates.
type Circuit []*Gate

// Validate checks every gate against the state size and parameter binding.
// It is run in full before any gate touches a buffer, so a failing circuit
// leaves the state exactly as it was. Duplicate measurement keys are
// rejected because ApplyCircuit keys its outcome map by them.
func (c Circuit) Validate(nQubits int, pb ParameterBinding) error {
	keys := make(map[string]bool)
	for i, g := range c {
		if g == nil {
			return fmt.Errorf("gate %d is nil: %w", i, ErrInvalidCircuit)
		}
		if err := g.validate(nQubits, pb); err != nil {
			return fmt.Errorf("gate %d: %w", i, err)
		}
		if g.IsMeasure() {
			if g.Key == "" {
				return fmt.Errorf("gate %d: measurement without a key: %w", i, ErrInvalidCircuit)
			}
			if keys[g.Key] {
				return fmt.Errorf("gate %d: duplicate measurement key %q: %w", i, g.Key, ErrInvalidCircuit)
			}
			keys[g.Key] = true
		}
	}
	return nil
}

// Hermitian returns the conjugated circuit: every gate daggered, in reverse
// order. Fails if the circuit contains measurements or channels, which have
// no unitary adjoint.
func (c Circuit) Hermitian() (Circuit, error) {
	out := make(Circuit, 0, len(c))
	for i := len(c) - 1; i >= 0; i-- {
		hg, err := c[i].Hermitian()
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		out = append(out, hg)
	}
	return out, nil
}

// ParameterNames returns the sorted set of parameter names the circuit
// references.
func (c Circuit) ParameterNames() []string {
	seen := make(map[string]bool)
	for _, g := range c {
		for _, e := range g.Params {
			for _, name := range e.Names() {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MeasureKeys returns measurement keys in circuit order.
func (c Circuit) MeasureKeys() []string {
	keys := make([]string, 0)
	for _, g := range c {
		if g.IsMeasure() {
			keys = append(keys, g.Key)
		}
	}
	return keys
}

// hasCollapse reports whether any gate measures or applies a channel. Such
// circuits cannot be run through the differentiation engine.
func (c Circuit) hasCollapse() bool {
	for _, g := range c {
		if g.IsMeasure() || g.IsChannel() {
			return true
		}
	}
	return false
}
