package problem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLaplacian2D_RowSums(t *testing.T) {
	m := Laplacian2D(4, 3)
	require.NoError(t, m.Validate())
	require.Equal(t, 12, m.Rows)

	boundary := GridBoundary(4, 3)
	require.Equal(t, []int{0, 1, 2, 3, 4, 7, 8, 9, 10, 11}, boundary)

	// interior rows sum to zero
	for _, i := range []int{5, 6} {
		sum := 0.0
		for k := m.I[i]; k < m.I[i+1]; k++ {
			sum += m.Data[k]
		}
		require.Zero(t, sum)
	}
}

func TestVectorLaplacian_Numbering(t *testing.T) {
	base := Laplacian1D(3)

	for _, interleaved := range []bool{false, true} {
		m := VectorLaplacian(base, 2, 5, interleaved)
		require.NoError(t, m.Validate())
		require.Equal(t, base.NNZ()*2+6, m.NNZ())

		for i := 0; i < 3; i++ {
			r0 := Dof(0, i, 2, 3, interleaved)
			r1 := Dof(1, i, 2, 3, interleaved)
			require.Equal(t, 2.0, m.At(r0, r0))
			require.Equal(t, 5.0, m.At(r0, r1))
			require.Equal(t, 5.0, m.At(r1, r0))
		}
	}
}

func TestRandom_Deterministic(t *testing.T) {
	a, b := Random(10, 0.2, 1), Random(10, 0.2, 1)
	require.Equal(t, a.J, b.J)
	require.Equal(t, a.Data, b.Data)

	for i := 0; i < a.Rows; i++ {
		require.NotZero(t, a.At(i, i))
	}
	for _, v := range a.Data {
		require.NotZero(t, v)
		require.LessOrEqual(t, v, 4.0)
		require.GreaterOrEqual(t, v, -4.0)
	}
}

func TestPartitions(t *testing.T) {
	require.Equal(t, []int{0, 4, 7, 10}, EvenPartition(10, 3))
	require.Equal(t, []int{0, 12, 18, 24}, BlockPartition(24, 3, 6))
	require.Equal(t, []int{0, 2, 2}, BlockPartition(2, 2, 2))
	require.Equal(t, []int{1, 3}, LocalRows([]int{0, 3, 5, 9}, 2, 6))
	require.Nil(t, LocalRows([]int{0, 9}, 2, 6))
}
