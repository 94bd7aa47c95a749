package parcsr // import "github.com/edp1096/parcsr"

import (
	"fmt"

	"github.com/edp1096/parcsr/comm"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// NewCSR wraps the given arrays after checking that they describe a valid
// rows x cols matrix. The arrays are owned by the result.
func NewCSR(rows, cols int, i, j []int, data []float64) (*CSR, error) {
	m := &CSR{Rows: rows, Cols: cols, I: i, J: j, Data: data}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewEmptyCSR returns a rows x cols matrix without entries.
func NewEmptyCSR(rows, cols int) *CSR {
	return &CSR{Rows: rows, Cols: cols, I: make([]int, rows+1)}
}

func (m *CSR) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("%w: %d x %d", ErrBadShape, m.Rows, m.Cols)
	}
	if len(m.I) != m.Rows+1 {
		return fmt.Errorf("%w: %d row pointers for %d rows", ErrBadShape, len(m.I), m.Rows)
	}
	if m.I[0] != 0 {
		return fmt.Errorf("%w: first row pointer is %d", ErrBadShape, m.I[0])
	}
	for i := 0; i < m.Rows; i++ {
		if m.I[i+1] < m.I[i] {
			return fmt.Errorf("%w: row pointer decreases at row %d", ErrBadShape, i)
		}
	}
	nnz := m.I[m.Rows]
	if len(m.J) != nnz || len(m.Data) != nnz {
		return fmt.Errorf("%w: %d nonzeros, %d columns, %d values", ErrBadShape, nnz, len(m.J), len(m.Data))
	}
	for k, col := range m.J {
		if col < 0 || col >= m.Cols {
			return fmt.Errorf("%w: column %d at entry %d", ErrOutOfRange, col, k)
		}
	}
	return nil
}

func (m *CSR) NNZ() int {
	return m.I[m.Rows]
}

// At returns the value at (row, col), summing duplicate entries.
func (m *CSR) At(row, col int) float64 {
	var v float64
	for k := m.I[row]; k < m.I[row+1]; k++ {
		if m.J[k] == col {
			v += m.Data[k]
		}
	}
	return v
}

func (m *CSR) Clone() *CSR {
	return &CSR{
		Rows: m.Rows,
		Cols: m.Cols,
		I:    slices.Clone(m.I),
		J:    slices.Clone(m.J),
		Data: slices.Clone(m.Data),
	}
}

type entry struct {
	col int
	val float64
}

// Reorder sorts the entries of every row by column index. Entries with equal
// columns keep their relative order.
func (m *CSR) Reorder() {
	var buf []entry
	for i := 0; i < m.Rows; i++ {
		beg, end := m.I[i], m.I[i+1]
		if slices.IsSorted(m.J[beg:end]) {
			continue
		}

		buf = buf[:0]
		for k := beg; k < end; k++ {
			buf = append(buf, entry{col: m.J[k], val: m.Data[k]})
		}
		slices.SortStableFunc(buf, func(a, b entry) int { return a.col - b.col })
		for k, e := range buf {
			m.J[beg+k] = e.col
			m.Data[beg+k] = e.val
		}
	}
}

// Dense expands m into a gonum dense matrix.
func (m *CSR) Dense() *mat.Dense {
	if m.Rows == 0 || m.Cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.Rows, m.Cols, nil)
	for i := 0; i < m.Rows; i++ {
		for k := m.I[i]; k < m.I[i+1]; k++ {
			d.Set(i, m.J[k], d.At(i, m.J[k])+m.Data[k])
		}
	}
	return d
}

// FromDense stores the nonzero entries of a in CSR form.
func FromDense(a mat.Matrix) *CSR {
	rows, cols := a.Dims()
	m := NewEmptyCSR(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := a.At(i, j); v != 0 {
				m.J = append(m.J, j)
				m.Data = append(m.Data, v)
			}
		}
		m.I[i+1] = len(m.J)
	}
	return m
}

func (m *CSR) Destroy() {
	m.I = nil
	m.J = nil
	m.Data = nil
	m.Rows = 0
	m.Cols = 0
}

// NewParCSR assembles one rank's part of a distributed matrix from its
// diagonal and off-diagonal blocks.
func NewParCSR(c comm.Communicator, globalRows, globalCols int, rowStarts, colStarts []int, diag, offd *CSR, colMapOffd []int) (*ParCSR, error) {
	if err := checkPartition(rowStarts, c.Size(), globalRows); err != nil {
		return nil, fmt.Errorf("row starts: %w", err)
	}
	if err := checkPartition(colStarts, c.Size(), globalCols); err != nil {
		return nil, fmt.Errorf("column starts: %w", err)
	}

	rank := c.Rank()
	localRows := rowStarts[rank+1] - rowStarts[rank]
	localCols := colStarts[rank+1] - colStarts[rank]

	if err := diag.Validate(); err != nil {
		return nil, fmt.Errorf("diag: %w", err)
	}
	if err := offd.Validate(); err != nil {
		return nil, fmt.Errorf("offd: %w", err)
	}
	if diag.Rows != localRows || offd.Rows != localRows || diag.Cols != localCols {
		return nil, fmt.Errorf("%w: diag %d x %d, offd %d rows, rank owns %d x %d",
			ErrDimensionMismatch, diag.Rows, diag.Cols, offd.Rows, localRows, localCols)
	}
	if offd.Cols != len(colMapOffd) {
		return nil, fmt.Errorf("%w: %d offd columns, %d map entries", ErrGhostMap, offd.Cols, len(colMapOffd))
	}
	for k, g := range colMapOffd {
		if g < 0 || g >= globalCols || (g >= colStarts[rank] && g < colStarts[rank+1]) {
			return nil, fmt.Errorf("%w: entry %d is column %d", ErrGhostMap, k, g)
		}
		if k > 0 && colMapOffd[k-1] >= g {
			return nil, fmt.Errorf("%w: not ascending at entry %d", ErrGhostMap, k)
		}
	}

	return &ParCSR{
		comm:       c,
		GlobalRows: globalRows,
		GlobalCols: globalCols,
		RowStarts:  rowStarts,
		ColStarts:  colStarts,
		Diag:       diag,
		Offd:       offd,
		ColMapOffd: colMapOffd,
	}, nil
}

func checkPartition(starts []int, size, global int) error {
	if len(starts) != size+1 {
		return fmt.Errorf("%w: %d entries for %d ranks", ErrPartition, len(starts), size)
	}
	if starts[0] != 0 || starts[size] != global {
		return fmt.Errorf("%w: range [%d, %d) for global size %d", ErrPartition, starts[0], starts[size], global)
	}
	for p := 0; p < size; p++ {
		if starts[p+1] < starts[p] {
			return fmt.Errorf("%w: decreasing at rank %d", ErrPartition, p)
		}
	}
	return nil
}

// NewParCSRFromRows builds this rank's part from its slab of rows, given with
// global column ids. Columns owned by other ranks become ghost columns,
// numbered in ascending global order.
func NewParCSRFromRows(c comm.Communicator, globalCols int, rowStarts, colStarts []int, rows *CSR) (*ParCSR, error) {
	if len(rowStarts) != c.Size()+1 {
		return nil, fmt.Errorf("row starts: %w: %d entries for %d ranks", ErrPartition, len(rowStarts), c.Size())
	}
	globalRows := rowStarts[c.Size()]
	if err := checkPartition(rowStarts, c.Size(), globalRows); err != nil {
		return nil, fmt.Errorf("row starts: %w", err)
	}
	if err := checkPartition(colStarts, c.Size(), globalCols); err != nil {
		return nil, fmt.Errorf("column starts: %w", err)
	}
	if err := rows.Validate(); err != nil {
		return nil, err
	}

	rank := c.Rank()
	firstRow, firstCol, lastCol := rowStarts[rank], colStarts[rank], colStarts[rank+1]
	localRows := rowStarts[rank+1] - firstRow
	if rows.Rows != localRows || rows.Cols != globalCols {
		return nil, fmt.Errorf("%w: slab is %d x %d, rank owns %d rows of %d columns",
			ErrDimensionMismatch, rows.Rows, rows.Cols, localRows, globalCols)
	}

	owned := func(g int) bool { return g >= firstCol && g < lastCol }

	var ghosts []int
	diagCount := newRowCounter(localRows)
	offdCount := newRowCounter(localRows)
	for i := 0; i < localRows; i++ {
		for k := rows.I[i]; k < rows.I[i+1]; k++ {
			if g := rows.J[k]; owned(g) {
				diagCount.add(i, 1)
			} else {
				offdCount.add(i, 1)
				ghosts = append(ghosts, g)
			}
		}
	}
	slices.Sort(ghosts)
	ghosts = slices.Compact(ghosts)
	ghostSet, _ := NewIndexSet(ghosts)

	diag := diagCount.fill(lastCol - firstCol)
	offd := offdCount.fill(len(ghosts))
	for i := 0; i < localRows; i++ {
		for k := rows.I[i]; k < rows.I[i+1]; k++ {
			if g := rows.J[k]; owned(g) {
				diag.push(i, g-firstCol, rows.Data[k])
			} else {
				offd.push(i, ghostSet.Find(g), rows.Data[k])
			}
		}
	}

	return NewParCSR(c, globalRows, globalCols,
		slices.Clone(rowStarts), slices.Clone(colStarts), diag.matrix(), offd.matrix(), ghosts)
}

// Distribute gives each rank its slab of a matrix every rank holds in full.
func Distribute(c comm.Communicator, global *CSR, rowStarts, colStarts []int) (*ParCSR, error) {
	if err := checkPartition(rowStarts, c.Size(), global.Rows); err != nil {
		return nil, fmt.Errorf("row starts: %w", err)
	}

	rank := c.Rank()
	r0, r1 := rowStarts[rank], rowStarts[rank+1]
	beg, end := global.I[r0], global.I[r1]

	slab := &CSR{
		Rows: r1 - r0,
		Cols: global.Cols,
		I:    make([]int, r1-r0+1),
		J:    slices.Clone(global.J[beg:end]),
		Data: slices.Clone(global.Data[beg:end]),
	}
	for i := r0; i <= r1; i++ {
		slab.I[i-r0] = global.I[i] - beg
	}

	return NewParCSRFromRows(c, global.Cols, rowStarts, colStarts, slab)
}

// LocalRows returns this rank's rows with global column ids, each row sorted
// by column.
func (a *ParCSR) LocalRows() *CSR {
	n := a.Diag.Rows
	counter := newRowCounter(n)
	for i := 0; i < n; i++ {
		counter.add(i, a.Diag.I[i+1]-a.Diag.I[i]+a.Offd.I[i+1]-a.Offd.I[i])
	}

	f := counter.fill(a.GlobalCols)
	first := a.FirstCol()
	for i := 0; i < n; i++ {
		for k := a.Diag.I[i]; k < a.Diag.I[i+1]; k++ {
			f.push(i, a.Diag.J[k]+first, a.Diag.Data[k])
		}
		for k := a.Offd.I[i]; k < a.Offd.I[i+1]; k++ {
			f.push(i, a.ColMapOffd[a.Offd.J[k]], a.Offd.Data[k])
		}
	}

	m := f.matrix()
	m.Reorder()
	return m
}

func (a *ParCSR) Comm() comm.Communicator {
	return a.comm
}

func (a *ParCSR) FirstRow() int {
	return a.RowStarts[a.comm.Rank()]
}

func (a *ParCSR) FirstCol() int {
	return a.ColStarts[a.comm.Rank()]
}

// LocalSize returns the number of owned rows and columns.
func (a *ParCSR) LocalSize() (rows, cols int) {
	return a.Diag.Rows, a.Diag.Cols
}

func (a *ParCSR) Destroy() {
	if a.Diag != nil {
		a.Diag.Destroy()
	}
	if a.Offd != nil {
		a.Offd.Destroy()
	}
	a.ColMapOffd = nil
	a.RowStarts = nil
	a.ColStarts = nil
	a.pkg = nil
}
