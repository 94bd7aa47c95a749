package parcsr

// EliminateAXB eliminates the rows and columns of a listed in rows so that
// A*X=B keeps X at the prescribed values for them.
//
// Every entry (i, j) with j in rows is moved to the right-hand side,
// b[i] -= a(i,j)*x[j], and zeroed. Eliminated rows then become identity
// rows. Each eliminated row must store its diagonal entry. x and b are
// indexed by local row.
func EliminateAXB(a *CSR, rows IndexSet[int], x, b []float64) {
	for i := 0; i < a.Rows; i++ {
		for k := a.I[i]; k < a.I[i+1]; k++ {
			if j := a.J[k]; rows.Has(j) {
				b[i] -= a.Data[k] * x[j]
				a.Data[k] = 0.0
			}
		}
	}

	for _, irow := range rows.Values() {
		for k := a.I[irow]; k < a.I[irow+1]; k++ {
			if a.J[k] == irow {
				a.Data[k] = 1.0
			} else {
				a.Data[k] = 0.0
			}
		}
	}
}

// eliminateOffdColsAXB zeroes the ghost columns in cols, moving each entry
// times the matching coefs value to b.
func eliminateOffdColsAXB(a *CSR, cols IndexSet[int], coefs []float64, b []float64) {
	for i := 0; i < a.Rows; i++ {
		for k := a.I[i]; k < a.I[i+1]; k++ {
			if pos := cols.Find(a.J[k]); pos >= 0 {
				b[i] -= a.Data[k] * coefs[pos]
				a.Data[k] = 0.0
			}
		}
	}
}

func eliminateOffdRows(a *CSR, rows IndexSet[int]) {
	for _, irow := range rows.Values() {
		for k := a.I[irow]; k < a.I[irow+1]; k++ {
			a.Data[k] = 0.0
		}
	}
}

// EliminateRowsCols moves the listed rows and columns of a into a new
// matrix Ae so that a + Ae equals the original a entry for entry. With
// identity set, the eliminated rows of a keep 1 on their diagonal and Ae
// holds the original diagonal minus one there.
func EliminateRowsCols(a *CSR, rows, cols IndexSet[int], identity bool) *CSR {
	f := elimCount(a, rows, cols, nil).fill(a.Cols)
	ae := elimFill(a, f, rows, cols, identity, nil)
	ae.Reorder()
	return ae
}

// elimCount is the counting pass: whole rows for eliminated rows, otherwise
// the entries in eliminated columns. colMark, when given, records every
// column that will appear in Ae.
func elimCount(a *CSR, rows, cols IndexSet[int], colMark []bool) *rowCounter {
	c := newRowCounter(a.Rows)
	for i := 0; i < a.Rows; i++ {
		beg, end := a.I[i], a.I[i+1]

		if rows.Has(i) {
			c.add(i, end-beg)
			if colMark != nil {
				for k := beg; k < end; k++ {
					colMark[a.J[k]] = true
				}
			}
			continue
		}

		for k := beg; k < end; k++ {
			if col := a.J[k]; cols.Has(col) {
				c.add(i, 1)
				if colMark != nil {
					colMark[col] = true
				}
			}
		}
	}
	return c
}

// elimFill walks a exactly as elimCount did, moving entries into f.
// colRemap, when given, renumbers the columns of Ae.
func elimFill(a *CSR, f *rowFiller, rows, cols IndexSet[int], identity bool, colRemap []int) *CSR {
	remap := func(col int) int {
		if colRemap != nil {
			return colRemap[col]
		}
		return col
	}

	for i := 0; i < a.Rows; i++ {
		beg, end := a.I[i], a.I[i+1]

		if rows.Has(i) {
			for k := beg; k < end; k++ {
				col := a.J[k]
				keep := 0.0
				if identity && col == i {
					keep = 1.0
				}
				f.push(i, remap(col), a.Data[k]-keep)
				a.Data[k] = keep
			}
			continue
		}

		for k := beg; k < end; k++ {
			if col := a.J[k]; cols.Has(col) {
				f.push(i, remap(col), a.Data[k])
				a.Data[k] = 0.0
			}
		}
	}
	return f.matrix()
}
