package parcsr_test

import (
	"testing"

	"github.com/edp1096/parcsr"
	"github.com/edp1096/parcsr/internal/problem"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// unit diagonal plus the symmetric pair (0,1)/(1,0)
func coupledPair() *parcsr.CSR {
	return csrOf([][]float64{
		{1, 2, 0, 0},
		{2, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	})
}

func TestEliminateAXB_CoupledPair(t *testing.T) {
	a := coupledPair()
	rows, err := parcsr.NewIndexSet([]int{1})
	require.NoError(t, err)

	x := []float64{0, 5, 0, 0}
	b := []float64{1, 1, 1, 1}

	parcsr.EliminateAXB(a, rows, x, b)
	b[1] = x[1]

	require.Equal(t, []float64{1 - 2*5, 5, 1, 1}, b)
	require.True(t, mat.Equal(mat.NewDiagDense(4, []float64{1, 1, 1, 1}), a.Dense()))
}

func TestEliminateAXB_Properties(t *testing.T) {
	a := problem.Random(15, 0.3, 3)
	orig := a.Dense()
	elim := []int{0, 4, 5, 11, 14}
	rows, err := parcsr.NewIndexSet(elim)
	require.NoError(t, err)

	x := make([]float64, a.Rows)
	b := make([]float64, a.Rows)
	for i := range x {
		x[i] = float64(i%5 - 2)
		b[i] = float64(3 * i)
	}
	bBefore := append([]float64(nil), b...)

	parcsr.EliminateAXB(a, rows, x, b)
	got := a.Dense()

	for i := 0; i < a.Rows; i++ {
		if rows.Has(i) {
			for j := 0; j < a.Cols; j++ {
				want := 0.0
				if j == i {
					want = 1
				}
				require.Equalf(t, want, got.At(i, j), "row %d col %d", i, j)
			}
			continue
		}

		want := bBefore[i]
		for _, j := range elim {
			want -= orig.At(i, j) * x[j]
			require.Zero(t, got.At(i, j))
		}
		require.Equalf(t, want, b[i], "rhs row %d", i)
	}
}

func TestEliminateRowsCols_RoundTrip(t *testing.T) {
	a := problem.Random(12, 0.35, 9)
	orig := a.Dense()
	rows, err := parcsr.NewIndexSet([]int{1, 2, 7, 10})
	require.NoError(t, err)

	ae := parcsr.EliminateRowsCols(a, rows, rows, true)
	require.NoError(t, ae.Validate())

	var sum mat.Dense
	sum.Add(a.Dense(), ae.Dense())
	require.True(t, mat.Equal(orig, &sum))

	for _, i := range rows.Values() {
		require.Equal(t, 1.0, a.At(i, i))
		require.Equal(t, orig.At(i, i)-1, ae.At(i, i))
	}
	for i := 0; i < ae.Rows; i++ {
		require.True(t, isSorted(ae.J[ae.I[i]:ae.I[i+1]]))
	}
}

func TestEliminateRowsCols_WithoutIdentity(t *testing.T) {
	a := coupledPair()
	orig := a.Dense()
	rows, err := parcsr.NewIndexSet([]int{0})
	require.NoError(t, err)

	ae := parcsr.EliminateRowsCols(a, rows, rows, false)
	require.Zero(t, a.At(0, 0))

	var sum mat.Dense
	sum.Add(a.Dense(), ae.Dense())
	require.True(t, mat.Equal(orig, &sum))
	require.True(t, floats.Equal([]float64{1, 2}, ae.Data[:2]))
}

func isSorted(s []int) bool {
	for k := 1; k < len(s); k++ {
		if s[k-1] > s[k] {
			return false
		}
	}
	return true
}
