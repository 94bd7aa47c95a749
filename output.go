package parcsr

import (
	"fmt"
	"io"
	"math"
	"os"
)

// PrinterWidth is the line width used by Print.
var PrinterWidth = 80

// Print writes the matrix to stdout, see Fprint.
func (m *CSR) Print(data bool, header bool) {
	m.Fprint(os.Stdout, data, header)
}

// Fprint writes the matrix in column bands that fit PrinterWidth. With data
// set the values are printed, otherwise only the pattern ('x' for a stored
// entry, '.' otherwise). The header adds size, extreme values and density.
func (m *CSR) Fprint(w io.Writer, data bool, header bool) {
	if m == nil {
		return
	}

	if header {
		fmt.Fprintf(w, "MATRIX SUMMARY\n\n")
		fmt.Fprintf(w, "Size of matrix = %d x %d.\n", m.Rows, m.Cols)
		fmt.Fprintf(w, "Stored entries = %d.\n\n", m.NNZ())
	}

	if m.Rows == 0 || m.Cols == 0 {
		return
	}

	columns := PrinterWidth
	if header {
		columns -= 5
	}
	if data {
		columns = (columns + 1) / 10
	}
	columns = max(columns, 1)

	stored := make([]bool, m.Cols)
	values := make([]float64, m.Cols) // Current row, duplicates summed

	for startCol := 0; startCol < m.Cols; startCol += columns {
		stopCol := startCol + columns - 1
		if stopCol >= m.Cols {
			stopCol = m.Cols - 1
		}

		if header {
			if data {
				fmt.Fprintf(w, "    ")
				for col := startCol; col <= stopCol; col++ {
					fmt.Fprintf(w, " %9d", col)
				}
				fmt.Fprintf(w, "\n\n")
			} else {
				fmt.Fprintf(w, "Columns %d to %d.\n", startCol, stopCol)
			}
		}

		for i := 0; i < m.Rows; i++ {
			for k := m.I[i]; k < m.I[i+1]; k++ {
				stored[m.J[k]] = true
				values[m.J[k]] += m.Data[k]
			}

			if header {
				fmt.Fprintf(w, "%4d", i)
				if !data {
					fmt.Fprintf(w, " ")
				}
			}

			for col := startCol; col <= stopCol; col++ {
				switch {
				case stored[col] && data:
					fmt.Fprintf(w, " %9.3g", values[col])
				case stored[col]:
					fmt.Fprintf(w, "x")
				case data:
					fmt.Fprintf(w, "       ...")
				default:
					fmt.Fprintf(w, ".")
				}
			}
			fmt.Fprintln(w)

			for k := m.I[i]; k < m.I[i+1]; k++ {
				stored[m.J[k]] = false
				values[m.J[k]] = 0
			}
		}

		fmt.Fprintln(w)
	}

	if header {
		stats := m.calculateStatistics()
		fmt.Fprintf(w, "\nLargest element in matrix = %-1.4g.\n", stats.largestElement)
		fmt.Fprintf(w, "Smallest element in matrix = %-1.4g.\n", stats.smallestElement)
		fmt.Fprintf(w, "\nLargest diagonal element = %-1.4g.\n", stats.largestDiag)
		fmt.Fprintf(w, "Smallest diagonal element = %-1.4g.\n", stats.smallestDiag)

		density := float64(m.NNZ()) * 100.0 / float64(m.Rows*m.Cols)
		fmt.Fprintf(w, "\nDensity = %.2f%%.\n\n", density)
	}
}

type matrixStats struct {
	largestElement  float64
	smallestElement float64
	largestDiag     float64
	smallestDiag    float64
}

// calculateStatistics scans stored entries; explicit zeros are skipped for
// the smallest magnitudes.
func (m *CSR) calculateStatistics() matrixStats {
	stats := matrixStats{
		smallestElement: math.MaxFloat64,
		smallestDiag:    math.MaxFloat64,
	}

	for i := 0; i < m.Rows; i++ {
		for k := m.I[i]; k < m.I[i+1]; k++ {
			magnitude := math.Abs(m.Data[k])

			stats.largestElement = max(stats.largestElement, magnitude)
			if magnitude < stats.smallestElement && magnitude != 0 {
				stats.smallestElement = magnitude
			}

			if m.J[k] == i {
				stats.largestDiag = max(stats.largestDiag, magnitude)
				if magnitude < stats.smallestDiag && magnitude != 0 {
					stats.smallestDiag = magnitude
				}
			}
		}
	}

	if stats.smallestElement == math.MaxFloat64 {
		stats.smallestElement = 0
	}
	if stats.smallestDiag == math.MaxFloat64 {
		stats.smallestDiag = 0
	}
	return stats
}

// WriteStatus writes this rank's ownership and schedule summary.
func (a *ParCSR) WriteStatus(w io.Writer) {
	rank := a.comm.Rank()
	fmt.Fprintf(w, "Rank = %d of %d   ", rank, a.comm.Size())
	fmt.Fprintf(w, "Global size = %d x %d\n", a.GlobalRows, a.GlobalCols)

	fmt.Fprintf(w, "Rows     = [%d, %d)   ", a.RowStarts[rank], a.RowStarts[rank+1])
	fmt.Fprintf(w, "Cols     = [%d, %d)\n", a.ColStarts[rank], a.ColStarts[rank+1])
	fmt.Fprintf(w, "Diag nnz = %d   Offd nnz = %d\n", a.Diag.NNZ(), a.Offd.NNZ())

	fmt.Fprintf(w, "ColMapOffd     = ")
	for _, g := range a.ColMapOffd {
		fmt.Fprintf(w, "%2d  ", g)
	}
	fmt.Fprintln(w)

	if a.pkg == nil {
		fmt.Fprintf(w, "Schedule       = not built\n\n")
		return
	}
	for _, s := range a.pkg.Sends {
		fmt.Fprintf(w, "Send to %-6d = ", s.Rank)
		for _, k := range s.Elements {
			fmt.Fprintf(w, "%2d  ", k)
		}
		fmt.Fprintln(w)
	}
	for _, r := range a.pkg.Recvs {
		fmt.Fprintf(w, "Recv from %-4d = [%d, %d)\n", r.Rank, r.Start, r.End)
	}
	fmt.Fprintln(w)
}
