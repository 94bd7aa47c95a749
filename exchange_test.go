package parcsr_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/edp1096/parcsr"
	"github.com/edp1096/parcsr/comm"
	"github.com/edp1096/parcsr/internal/problem"
	"github.com/stretchr/testify/require"
)

func TestCommPkg_Symmetric(t *testing.T) {
	const p = 4
	global := problem.Random(20, 0.2, 11)
	starts := problem.EvenPartition(20, p)

	mats := make([]*parcsr.ParCSR, p)
	pkgs := make([]*parcsr.CommPkg, p)

	run(t, p, func(ctx context.Context, c comm.Communicator) error {
		a, err := parcsr.Distribute(c, global, starts, starts)
		if err != nil {
			return err
		}
		pkg, err := a.CommPkg(ctx)
		if err != nil {
			return err
		}
		mats[c.Rank()], pkgs[c.Rank()] = a, pkg
		return nil
	})

	for dst, pkg := range pkgs {
		require.Equal(t, len(mats[dst].ColMapOffd), pkg.RecvCount())

		for _, r := range pkg.Recvs {
			require.NotEqual(t, dst, r.Rank)

			var sent []int
			for _, s := range pkgs[r.Rank].Sends {
				if s.Rank == dst {
					sent = s.Elements
				}
			}
			require.Len(t, sent, r.End-r.Start)
			for k, local := range sent {
				require.Equal(t, mats[dst].ColMapOffd[r.Start+k], starts[r.Rank]+local)
			}
		}
	}

	total := 0
	for _, pkg := range pkgs {
		total += pkg.SendCount() - pkg.RecvCount()
	}
	require.Zero(t, total)
}

func TestCommPkg_DestroyRebuilds(t *testing.T) {
	global := problem.Laplacian1D(6)
	starts := problem.EvenPartition(6, 2)

	run(t, 2, func(ctx context.Context, c comm.Communicator) error {
		a, err := parcsr.Distribute(c, global, starts, starts)
		if err != nil {
			return err
		}
		first, err := a.CommPkg(ctx)
		if err != nil {
			return err
		}
		a.DestroyCommPkg()
		second, err := a.CommPkg(ctx)
		if err != nil {
			return err
		}
		if first == second || len(first.Sends) != len(second.Sends) {
			return errors.New("schedule not rebuilt")
		}
		return nil
	})
}

func TestWriteStatus(t *testing.T) {
	global := problem.Laplacian1D(4)
	starts := problem.EvenPartition(4, 2)
	out := make([]bytes.Buffer, 2)

	run(t, 2, func(ctx context.Context, c comm.Communicator) error {
		a, err := parcsr.Distribute(c, global, starts, starts)
		if err != nil {
			return err
		}
		if _, err := a.CommPkg(ctx); err != nil {
			return err
		}
		a.WriteStatus(&out[c.Rank()])
		return nil
	})

	require.Contains(t, out[0].String(), "Rank = 0 of 2")
	require.Contains(t, out[0].String(), "Rows     = [0, 2)")
	require.Contains(t, out[0].String(), "Recv from 1    = [0, 1)")
	require.Contains(t, out[1].String(), "Send to 0      =  0")
}
