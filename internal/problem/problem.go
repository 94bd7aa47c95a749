// Package problem generates model matrices, boundary lists and row
// partitions for the demo programs and tests.
package problem

import (
	"math/rand"

	"github.com/edp1096/parcsr"
)

// Laplacian1D returns the n x n tridiagonal matrix tridiag(-1, 2, -1).
func Laplacian1D(n int) *parcsr.CSR {
	m := parcsr.NewEmptyCSR(n, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			m.J = append(m.J, i-1)
			m.Data = append(m.Data, -1)
		}
		m.J = append(m.J, i)
		m.Data = append(m.Data, 2)
		if i+1 < n {
			m.J = append(m.J, i+1)
			m.Data = append(m.Data, -1)
		}
		m.I[i+1] = len(m.J)
	}
	return m
}

// Laplacian2D returns the 5-point Laplacian on an nx x ny grid, with grid
// point (x, y) numbered y*nx+x.
func Laplacian2D(nx, ny int) *parcsr.CSR {
	n := nx * ny
	m := parcsr.NewEmptyCSR(n, n)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			if y > 0 {
				m.J, m.Data = append(m.J, i-nx), append(m.Data, -1)
			}
			if x > 0 {
				m.J, m.Data = append(m.J, i-1), append(m.Data, -1)
			}
			m.J, m.Data = append(m.J, i), append(m.Data, 4)
			if x+1 < nx {
				m.J, m.Data = append(m.J, i+1), append(m.Data, -1)
			}
			if y+1 < ny {
				m.J, m.Data = append(m.J, i+nx), append(m.Data, -1)
			}
			m.I[i+1] = len(m.J)
		}
	}
	return m
}

// GridBoundary lists the boundary points of an nx x ny grid in ascending
// order.
func GridBoundary(nx, ny int) []int {
	var b []int
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if x == 0 || y == 0 || x == nx-1 || y == ny-1 {
				b = append(b, y*nx+x)
			}
		}
	}
	return b
}

// Dof numbers unknown i of field f in a system of n unknowns per field.
func Dof(f, i, fields, n int, interleaved bool) int {
	if interleaved {
		return i*fields + f
	}
	return f*n + i
}

// VectorLaplacian couples fields copies of the scalar operator base: each
// field carries base, and unknown i of every field is coupled to unknown i
// of every other field with the given weight.
func VectorLaplacian(base *parcsr.CSR, fields int, coupling float64, interleaved bool) *parcsr.CSR {
	n := base.Rows
	m := parcsr.NewEmptyCSR(n*fields, n*fields)

	type entry struct {
		col int
		val float64
	}
	rows := make([][]entry, n*fields)
	for f := 0; f < fields; f++ {
		for i := 0; i < n; i++ {
			r := Dof(f, i, fields, n, interleaved)
			for k := base.I[i]; k < base.I[i+1]; k++ {
				rows[r] = append(rows[r], entry{Dof(f, base.J[k], fields, n, interleaved), base.Data[k]})
			}
			for g := 0; g < fields; g++ {
				if g != f && coupling != 0 {
					rows[r] = append(rows[r], entry{Dof(g, i, fields, n, interleaved), coupling})
				}
			}
		}
	}

	for r, es := range rows {
		for _, e := range es {
			m.J = append(m.J, e.col)
			m.Data = append(m.Data, e.val)
		}
		m.I[r+1] = len(m.J)
	}
	m.Reorder()
	return m
}

// Random returns an n x n matrix with a stored diagonal and roughly
// density*n off-diagonal entries per row. Values are small nonzero integers,
// so sums and products of them stay exact in float64.
func Random(n int, density float64, seed int64) *parcsr.CSR {
	rng := rand.New(rand.NewSource(seed))
	m := parcsr.NewEmptyCSR(n, n)

	value := func() float64 {
		v := rng.Intn(8) - 4
		if v >= 0 {
			v++
		}
		return float64(v)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i || rng.Float64() < density {
				m.J = append(m.J, j)
				m.Data = append(m.Data, value())
			}
		}
		m.I[i+1] = len(m.J)
	}
	return m
}

// EvenPartition splits n rows over p ranks, the first n%p ranks taking one
// extra row.
func EvenPartition(n, p int) []int {
	return BlockPartition(n, p, 1)
}

// BlockPartition splits n rows over p ranks so that every rank owns a
// multiple of unit rows. n must be a multiple of unit.
func BlockPartition(n, p, unit int) []int {
	chunks := n / unit
	starts := make([]int, p+1)
	for r := 0; r < p; r++ {
		own := chunks / p
		if r < chunks%p {
			own++
		}
		starts[r+1] = starts[r] + own*unit
	}
	return starts
}

// LocalRows returns the entries of the ascending global list that fall in
// [first, last), shifted to local numbering.
func LocalRows(global []int, first, last int) []int {
	var local []int
	for _, g := range global {
		if g >= first && g < last {
			local = append(local, g-first)
		}
	}
	return local
}
