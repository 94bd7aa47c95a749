package parcsr

import "fmt"

// rowCounter is the counting state of a two-pass CSR build. The only way to
// reach the filling state is fill, so entries are never placed before every
// row's length is known.
type rowCounter struct {
	rows   int
	ptr    []int // Entry counts shifted by one row [0...rows]
	filled bool
}

func newRowCounter(rows int) *rowCounter {
	return &rowCounter{rows: rows, ptr: make([]int, rows+1)}
}

func (c *rowCounter) add(row, n int) {
	if c.filled {
		panic("parcsr: rowCounter.add after fill")
	}
	c.ptr[row+1] += n
}

// fill turns the counts into row pointers and allocates storage for a
// matrix with the given column count.
func (c *rowCounter) fill(cols int) *rowFiller {
	if c.filled {
		panic("parcsr: rowCounter.fill called twice")
	}
	c.filled = true

	for i := 0; i < c.rows; i++ {
		c.ptr[i+1] += c.ptr[i]
	}
	nnz := c.ptr[c.rows]

	m := &CSR{
		Rows: c.rows,
		Cols: cols,
		I:    c.ptr,
		J:    make([]int, nnz),
		Data: make([]float64, nnz),
	}
	next := make([]int, c.rows)
	copy(next, c.ptr[:c.rows])

	return &rowFiller{m: m, next: next}
}

// rowFiller is the filling state: entries of a row land in the slots counted
// for it, in push order.
type rowFiller struct {
	m    *CSR
	next []int // Next free slot of each row [0...rows-1]
}

func (f *rowFiller) push(row, col int, v float64) {
	k := f.next[row]
	f.m.J[k] = col
	f.m.Data[k] = v
	f.next[row]++
}

// matrix returns the built matrix. Every row must hold exactly its count.
func (f *rowFiller) matrix() *CSR {
	for i, k := range f.next {
		if k != f.m.I[i+1] {
			panic(fmt.Sprintf("parcsr: row %d filled %d of %d entries", i, k-f.m.I[i], f.m.I[i+1]-f.m.I[i]))
		}
	}
	return f.m
}
