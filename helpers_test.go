package parcsr_test

import (
	"context"
	"testing"

	"github.com/edp1096/parcsr"
	"github.com/edp1096/parcsr/comm"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// run executes fn on p ranks and fails the test on any rank error.
func run(t *testing.T, p int, fn func(ctx context.Context, c comm.Communicator) error) {
	t.Helper()
	require.NoError(t, comm.Run(context.Background(), p, fn))
}

// stack concatenates per-rank row slabs into one matrix.
func stack(parts []*parcsr.CSR) *parcsr.CSR {
	rows := 0
	for _, p := range parts {
		rows += p.Rows
	}
	m := parcsr.NewEmptyCSR(rows, parts[0].Cols)
	r := 0
	for _, p := range parts {
		for i := 0; i < p.Rows; i++ {
			for k := p.I[i]; k < p.I[i+1]; k++ {
				m.J = append(m.J, p.J[k])
				m.Data = append(m.Data, p.Data[k])
			}
			r++
			m.I[r] = len(m.J)
		}
	}
	return m
}

// csrOf builds a CSR from a dense row-major literal, storing nonzeros only.
func csrOf(rows [][]float64) *parcsr.CSR {
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		d.SetRow(i, r)
	}
	return parcsr.FromDense(d)
}

func requireSameDense(t *testing.T, want, got *parcsr.CSR) {
	t.Helper()
	require.Equal(t, want.Rows, got.Rows)
	require.Equal(t, want.Cols, got.Cols)
	require.Truef(t, mat.Equal(want.Dense(), got.Dense()),
		"want\n%v\ngot\n%v", mat.Formatted(want.Dense()), mat.Formatted(got.Dense()))
}
