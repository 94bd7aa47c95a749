package parcsr_test

import (
	"context"
	"testing"

	"github.com/edp1096/parcsr"
	"github.com/edp1096/parcsr/comm"
	"github.com/edp1096/parcsr/internal/problem"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewCSR_Validation(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		cols    int
		i, j    []int
		data    []float64
		wantErr error
	}{
		{"ok", 2, 2, []int{0, 1, 2}, []int{0, 1}, []float64{1, 2}, nil},
		{"negative rows", -1, 2, []int{0}, nil, nil, parcsr.ErrBadShape},
		{"short row pointer", 2, 2, []int{0, 1}, []int{0}, []float64{1}, parcsr.ErrBadShape},
		{"decreasing pointer", 2, 2, []int{0, 2, 1}, []int{0, 1}, []float64{1, 2}, parcsr.ErrBadShape},
		{"nnz mismatch", 1, 2, []int{0, 2}, []int{0}, []float64{1}, parcsr.ErrBadShape},
		{"column out of range", 1, 2, []int{0, 1}, []int{2}, []float64{1}, parcsr.ErrOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parcsr.NewCSR(tc.rows, tc.cols, tc.i, tc.j, tc.data)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestCSR_Reorder(t *testing.T) {
	m, err := parcsr.NewCSR(2, 4,
		[]int{0, 3, 5},
		[]int{3, 0, 2, 1, 0},
		[]float64{30, 0.5, 20, 11, 10})
	require.NoError(t, err)
	before := m.Dense()

	m.Reorder()
	require.Equal(t, []int{0, 2, 3, 0, 1}, m.J)
	require.Equal(t, []float64{0.5, 20, 30, 10, 11}, m.Data)
	require.True(t, mat.Equal(before, m.Dense()))
}

func TestCSR_AtSumsDuplicates(t *testing.T) {
	m, err := parcsr.NewCSR(1, 2, []int{0, 3}, []int{1, 0, 1}, []float64{1, 5, 2})
	require.NoError(t, err)
	require.Equal(t, 3.0, m.At(0, 1))
	require.Equal(t, 5.0, m.At(0, 0))
}

func TestFromDense_RoundTrip(t *testing.T) {
	d := mat.NewDense(2, 3, []float64{1, 0, 2, 0, 0, 3})
	m := parcsr.FromDense(d)
	require.Equal(t, 3, m.NNZ())
	require.True(t, mat.Equal(d, m.Dense()))

	c := m.Clone()
	c.Data[0] = 9
	require.Equal(t, 1.0, m.Data[0])
}

func TestNewParCSR_Validation(t *testing.T) {
	c := comm.Self()
	diag := parcsr.NewEmptyCSR(2, 2)
	offd := parcsr.NewEmptyCSR(2, 0)

	_, err := parcsr.NewParCSR(c, 2, 2, []int{0, 2}, []int{0, 2}, diag, offd, nil)
	require.NoError(t, err)

	_, err = parcsr.NewParCSR(c, 2, 2, []int{0, 1, 2}, []int{0, 2}, diag, offd, nil)
	require.ErrorIs(t, err, parcsr.ErrPartition)

	_, err = parcsr.NewParCSR(c, 3, 2, []int{0, 2}, []int{0, 2}, diag, offd, nil)
	require.ErrorIs(t, err, parcsr.ErrPartition)

	_, err = parcsr.NewParCSR(c, 2, 2, []int{0, 2}, []int{0, 2}, parcsr.NewEmptyCSR(1, 2), offd, nil)
	require.ErrorIs(t, err, parcsr.ErrDimensionMismatch)

	_, err = parcsr.NewParCSR(c, 2, 2, []int{0, 2}, []int{0, 2}, diag, parcsr.NewEmptyCSR(2, 1), []int{1})
	require.ErrorIs(t, err, parcsr.ErrGhostMap)
}

func TestNewParCSR_GhostMapOrder(t *testing.T) {
	w, err := comm.NewWorld(2)
	require.NoError(t, err)
	c0, err := w.Comm(0)
	require.NoError(t, err)

	diag := parcsr.NewEmptyCSR(2, 2)
	offd := parcsr.NewEmptyCSR(2, 2)
	starts := []int{0, 2, 4}

	_, err = parcsr.NewParCSR(c0, 4, 4, starts, starts, diag, offd, []int{2, 3})
	require.NoError(t, err)

	_, err = parcsr.NewParCSR(c0, 4, 4, starts, starts, diag, offd, []int{3, 2})
	require.ErrorIs(t, err, parcsr.ErrGhostMap)
}

func TestDistribute_LocalRowsRoundTrip(t *testing.T) {
	global := problem.Random(11, 0.3, 7)
	global.Reorder()

	for _, p := range []int{1, 2, 3, 4} {
		starts := problem.EvenPartition(global.Rows, p)
		parts := make([]*parcsr.CSR, p)
		mats := make([]*parcsr.ParCSR, p)

		run(t, p, func(ctx context.Context, c comm.Communicator) error {
			a, err := parcsr.Distribute(c, global, starts, starts)
			if err != nil {
				return err
			}
			mats[c.Rank()] = a
			parts[c.Rank()] = a.LocalRows()
			return nil
		})

		requireSameDense(t, global, stack(parts))
		for rank, a := range mats {
			r0, r1 := starts[rank], starts[rank+1]
			rows, cols := a.LocalSize()
			require.Equal(t, r1-r0, rows)
			require.Equal(t, r1-r0, cols)
			require.Equal(t, r0, a.FirstRow())
			for k, g := range a.ColMapOffd {
				require.Falsef(t, g >= r0 && g < r1, "ghost %d is owned by rank %d", g, rank)
				if k > 0 {
					require.Less(t, a.ColMapOffd[k-1], g)
				}
			}
		}
	}
}
