package mindquantum

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func matMul(a, b [][]complex128) [][]complex128 {
	n := len(a)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			var acc complex128
			for k := 0; k < n; k++ {
				acc += a[i][k] * b[k][j]
			}
			out[i][j] = acc
		}
	}
	return out
}

func requireIdentity(t *testing.T, m [][]complex128) {
	t.Helper()
	for i := range m {
		for j := range m[i] {
			want := complex128(0)
			if i == j {
				want = 1
			}
			require.InDelta(t, 0, cmplx.Abs(m[i][j]-want), 1e-12,
				"entry (%d,%d) = %v", i, j, m[i][j])
		}
	}
}

func TestGateUnitarity(t *testing.T) {
	pb := ParameterBinding{"a": 0.7}
	cases := []struct {
		name string
		gate *Gate
	}{
		{"X", X(0)},
		{"Y", Y(0)},
		{"Z", Z(0)},
		{"H", H(0)},
		{"S", S(0)},
		{"Sdag", Sdag(0)},
		{"T", T(0)},
		{"Tdag", Tdag(0)},
		{"SWAP", SWAP(0, 1)},
		{"ISWAP", ISWAP(0, 1)},
		{"RX", RX(Fixed(1.3), 0)},
		{"RY", RY(Param("a"), 0)},
		{"RZ", RZ(Fixed(-0.4), 0)},
		{"Rxx", Rxx(Fixed(0.9), 0, 1)},
		{"Ryy", Ryy(Param("a"), 0, 1)},
		{"Rzz", Rzz(Fixed(2.2), 0, 1)},
		{"PS", PS(Fixed(0.5), 0)},
		{"GP", GP(Fixed(1.1), 0)},
		{"U3", U3(Fixed(0.3), Fixed(0.8), Param("a"), 0)},
		{"FSim", FSim(Fixed(0.6), Fixed(1.4), 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.gate.unitary(pb)
			require.NoError(t, err)
			requireIdentity(t, matMul(m, dagger(m)))
		})
	}
}

func TestHermitianMatchesDagger(t *testing.T) {
	pb := ParameterBinding{}
	cases := []struct {
		name string
		gate *Gate
	}{
		{"S", S(0)},
		{"T", T(0)},
		{"ISWAP", ISWAP(0, 1)},
		{"RX", RX(Fixed(0.9), 0)},
		{"Rzz", Rzz(Fixed(-1.1), 0, 1)},
		{"PS", PS(Fixed(0.7), 0)},
		{"GP", GP(Fixed(0.4), 0)},
		{"U3", U3(Fixed(0.3), Fixed(1.2), Fixed(-0.5), 0)},
		{"FSim", FSim(Fixed(0.8), Fixed(0.2), 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hg, err := tc.gate.Hermitian()
			require.NoError(t, err)
			m, err := tc.gate.unitary(pb)
			require.NoError(t, err)
			hm, err := hg.unitary(pb)
			require.NoError(t, err)
			requireIdentity(t, matMul(hm, m))
		})
	}
}

func TestDiagonalMatchesDense(t *testing.T) {
	pb := ParameterBinding{}
	cases := []struct {
		name string
		gate *Gate
	}{
		{"Z", Z(0)},
		{"S", S(0)},
		{"Sdag", Sdag(0)},
		{"T", T(0)},
		{"Tdag", Tdag(0)},
		{"RZ", RZ(Fixed(0.9), 0)},
		{"PS", PS(Fixed(-0.3), 0)},
		{"GP", GP(Fixed(1.7), 0)},
		{"Rzz", Rzz(Fixed(0.6), 0, 1)},
		{"CZ", CZ(0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok, err := tc.gate.diagonal(pb)
			require.NoError(t, err)
			require.True(t, ok, "gate %s should take the diagonal path", tc.gate)
			m, err := tc.gate.unitary(pb)
			require.NoError(t, err)
			require.Len(t, d, len(m))
			for i := range m {
				for j := range m[i] {
					want := complex128(0)
					if i == j {
						want = d[i]
					}
					require.InDelta(t, 0, cmplx.Abs(m[i][j]-want), 1e-12,
						"entry (%d,%d)", i, j)
				}
			}
		})
	}
}

func TestKrausCompleteness(t *testing.T) {
	cases := []struct {
		name string
		gate *Gate
	}{
		{"PauliChannel", PauliChannel(0.1, 0.2, 0.3, 0)},
		{"Depolarizing", DepolarizingChannel(0.25, 0)},
		{"AmplitudeDamping", AmplitudeDamping(0.4, 0)},
		{"PhaseDamping", PhaseDamping(0.6, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ops, err := tc.gate.krausOperators()
			require.NoError(t, err)
			sum := make([][]complex128, 2)
			for i := range sum {
				sum[i] = make([]complex128, 2)
			}
			for _, k := range ops {
				p := matMul(dagger(k), k)
				for i := range p {
					for j := range p[i] {
						sum[i][j] += p[i][j]
					}
				}
			}
			requireIdentity(t, sum)
		})
	}
}

func TestGateValidate(t *testing.T) {
	require.ErrorIs(t, X(0, 0).validate(2, nil), ErrInvalidCircuit)
	require.ErrorIs(t, X(3).validate(2, nil), ErrQubitOutOfRange)
	require.ErrorIs(t, X(0, -1).validate(2, nil), ErrQubitOutOfRange)
	require.ErrorIs(t, RX(Param("a"), 0).validate(1, nil), ErrMissingParameter)
	require.ErrorIs(t, PauliChannel(0.7, 0.7, 0.7, 0).validate(1, nil), ErrInvalidCircuit)
	require.ErrorIs(t, AmplitudeDamping(1.5, 0).validate(1, nil), ErrInvalidCircuit)
	require.ErrorIs(t,
		Custom([][]complex128{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, []int{0, 1}).validate(2, nil),
		ErrDimensionMismatch)
	require.NoError(t, RX(Param("a"), 0).validate(1, ParameterBinding{"a": 0.1}))
}

func TestU3AngleConventions(t *testing.T) {
	pb := ParameterBinding{}

	// U3(theta, 0, 0) acts as RY(theta).
	u, err := U3(Fixed(0.8), Fixed(0), Fixed(0), 0).unitary(pb)
	require.NoError(t, err)
	r, err := RY(Fixed(0.8), 0).unitary(pb)
	require.NoError(t, err)
	for i := range u {
		for j := range u[i] {
			require.InDelta(t, 0, cmplx.Abs(u[i][j]-r[i][j]), 1e-12)
		}
	}

	// FSim swaps |01> and |10> with amplitude -i*sin(theta) and phases
	// |11> by exp(-i*phi).
	f, err := FSim(Fixed(0.5), Fixed(0.9), 0, 1).unitary(pb)
	require.NoError(t, err)
	require.InDelta(t, 0, cmplx.Abs(f[1][2]-complex(0, -math.Sin(0.5))), 1e-12)
	require.InDelta(t, 0, cmplx.Abs(f[2][1]-complex(0, -math.Sin(0.5))), 1e-12)
	require.InDelta(t, 0, cmplx.Abs(f[3][3]-cmplx.Exp(complex(0, -0.9))), 1e-12)
	require.InDelta(t, 0, cmplx.Abs(f[0][0]-1), 1e-12)
}
