package main // import "split"

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/edp1096/parcsr"
	"github.com/edp1096/parcsr/comm"
	"github.com/edp1096/parcsr/internal/config"
	"github.com/edp1096/parcsr/internal/problem"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Output.Verbose {
		parcsr.SetLogOutput(os.Stderr)
	}

	nr, nc := cfg.Split.NR, cfg.Split.NC
	fields := cfg.Problem.Fields
	A := problem.VectorLaplacian(problem.Laplacian2D(cfg.Problem.NX, cfg.Problem.NY),
		fields, cfg.Problem.Coupling, cfg.Split.Interleaved)

	n := A.Rows
	unit := nr * nc
	if n%unit != 0 {
		log.Fatalf("Failed to split: %d unknowns do not divide into %d x %d blocks", n, nr, nc)
	}
	starts := problem.BlockPartition(n, cfg.Procs, unit)

	fmt.Println("Matrix before split:")
	A.Print(cfg.Output.Data, true)

	parts := make([][]*parcsr.CSR, nr*nc)
	for k := range parts {
		parts[k] = make([]*parcsr.CSR, cfg.Procs)
	}

	err = comm.Run(context.Background(), cfg.Procs, func(ctx context.Context, c comm.Communicator) error {
		a, err := parcsr.Distribute(c, A, starts, starts)
		if err != nil {
			return err
		}
		defer a.Destroy()

		blocks, err := parcsr.SplitMatrix(ctx, a, nr, nc, cfg.Split.Interleaved)
		if err != nil {
			return err
		}
		for k, blk := range blocks {
			parts[k][c.Rank()] = blk.LocalRows()
			if cfg.Output.Verbose && c.Rank() == 0 {
				blk.WriteStatus(os.Stderr)
			}
			blk.Destroy()
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to split matrix: %v", err)
	}

	nnz := 0
	for k, p := range parts {
		blk := concat(p)
		nnz += blk.NNZ()
		fmt.Printf("\nBlock (%d, %d):\n", k/nc, k%nc)
		blk.Print(cfg.Output.Data, true)
	}

	numbering := "contiguous"
	if cfg.Split.Interleaved {
		numbering = "interleaved"
	}
	summary := fmt.Sprintf("%s\n%s %d x %d, %s\n%s %d ranks\n%s %d of %d entries",
		titleStyle.Render("Block split"),
		labelStyle.Render("blocks"), nr, nc, numbering,
		labelStyle.Render("ranks "), cfg.Procs,
		labelStyle.Render("stored"), nnz, A.NNZ())
	fmt.Println(boxStyle.Render(summary))
}

// concat stacks the per-rank row slabs back into one matrix.
func concat(parts []*parcsr.CSR) *parcsr.CSR {
	rows := 0
	for _, p := range parts {
		rows += p.Rows
	}
	m := parcsr.NewEmptyCSR(rows, parts[0].Cols)
	r := 0
	for _, p := range parts {
		for i := 0; i < p.Rows; i++ {
			m.J = append(m.J, p.J[p.I[i]:p.I[i+1]]...)
			m.Data = append(m.Data, p.Data[p.I[i]:p.I[i+1]]...)
			r++
			m.I[r] = len(m.J)
		}
	}
	return m
}
