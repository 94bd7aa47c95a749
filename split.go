package parcsr

import (
	"context"
	"fmt"
)

// SplitCSR splits a into nr x nc blocks. rowBlock[i] and colBlock[j] name the
// block of each row and column; inside a block, rows and columns keep their
// relative order. Block (bi, bj) is at index bi*nc+bj.
func SplitCSR(a *CSR, nr, nc int, rowBlock, colBlock []int) ([]*CSR, error) {
	if nr < 1 || nc < 1 {
		return nil, fmt.Errorf("%w: %d x %d blocks", ErrBlockSize, nr, nc)
	}
	if len(rowBlock) != a.Rows || len(colBlock) != a.Cols {
		return nil, fmt.Errorf("%w: %d row and %d column block ids for a %d x %d matrix",
			ErrDimensionMismatch, len(rowBlock), len(colBlock), a.Rows, a.Cols)
	}

	numRows := make([]int, nr)
	numCols := make([]int, nc)
	blockRow := make([]int, a.Rows) // position of each row inside its block
	blockCol := make([]int, a.Cols)

	for i, bi := range rowBlock {
		if bi < 0 || bi >= nr {
			return nil, fmt.Errorf("%w: row %d in block %d of %d", ErrOutOfRange, i, bi, nr)
		}
		blockRow[i] = numRows[bi]
		numRows[bi]++
	}
	for j, bj := range colBlock {
		if bj < 0 || bj >= nc {
			return nil, fmt.Errorf("%w: column %d in block %d of %d", ErrOutOfRange, j, bj, nc)
		}
		blockCol[j] = numCols[bj]
		numCols[bj]++
	}

	counters := make([]*rowCounter, nr*nc)
	for bi := 0; bi < nr; bi++ {
		for bj := 0; bj < nc; bj++ {
			counters[bi*nc+bj] = newRowCounter(numRows[bi])
		}
	}
	for i := 0; i < a.Rows; i++ {
		bi := rowBlock[i]
		for k := a.I[i]; k < a.I[i+1]; k++ {
			counters[bi*nc+colBlock[a.J[k]]].add(blockRow[i], 1)
		}
	}

	fillers := make([]*rowFiller, nr*nc)
	for n, c := range counters {
		fillers[n] = c.fill(numCols[n%nc])
	}
	for i := 0; i < a.Rows; i++ {
		bi := rowBlock[i]
		for k := a.I[i]; k < a.I[i+1]; k++ {
			j := a.J[k]
			fillers[bi*nc+colBlock[j]].push(blockRow[i], blockCol[j], a.Data[k])
		}
	}

	blocks := make([]*CSR, nr*nc)
	for n, f := range fillers {
		blocks[n] = f.matrix()
	}
	return blocks, nil
}

// SplitMatrix splits a into nr x nc independent distributed matrices,
// returned row-major (block (bi, bj) at bi*nc+bj).
//
// With contiguous numbering the first local_rows/nr rows of each rank go to
// block row 0, the next to block row 1, and so on; with interleaved numbering
// local row i goes to block row i%nr. Columns follow the same rule with nc.
// Every rank's local extents and the global extents must be divisible by
// nr and nc. Each block gets partitions scaled by 1/nr and 1/nc, its own ghost
// map and its own schedule. Every rank of a's group must call it.
func SplitMatrix(ctx context.Context, a *ParCSR, nr, nc int, interleaved bool) ([]*ParCSR, error) {
	if err := a.checkSplit(nr, nc); err != nil {
		return nil, err
	}

	pkg, err := a.CommPkg(ctx)
	if err != nil {
		return nil, err
	}

	localRows, localCols := a.LocalSize()
	blockRows, blockCols := localRows/nr, localCols/nc
	offdCols := a.Offd.Cols

	rowBlock := make([]int, localRows)
	for i := range rowBlock {
		if interleaved {
			rowBlock[i] = i % nr
		} else {
			rowBlock[i] = i / blockRows
		}
	}
	colBlock := make([]int, localCols)
	for j := range colBlock {
		if interleaved {
			colBlock[j] = j % nc
		} else {
			colBlock[j] = j / blockCols
		}
	}

	// Each owned column travels as block + nc*(global column inside its block).
	count := make([]int, nc)
	firstCol := a.FirstCol() / nc
	packed := make([]int, localCols)
	for j, bj := range colBlock {
		packed[j] = bj + nc*(firstCol+count[bj])
		count[bj]++
	}

	offdBlock := make([]int, offdCols)
	ex, err := startExchange(ctx, a.comm, pkg, tagSplit, packed, offdBlock)
	if err != nil {
		return nil, err
	}

	diagBlocks, err := SplitCSR(a.Diag, nr, nc, rowBlock, colBlock)
	if err != nil {
		return nil, err
	}

	if err := ex.wait(ctx); err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	offdGlobal := make([]int, offdCols)
	for k, v := range offdBlock {
		offdGlobal[k] = v / nc
		offdBlock[k] = v % nc
	}

	offdBlocks, err := SplitCSR(a.Offd, nr, nc, rowBlock, offdBlock)
	if err != nil {
		return nil, err
	}

	colMaps := make([][]int, nc)
	for k, bj := range offdBlock {
		colMaps[bj] = append(colMaps[bj], offdGlobal[k])
	}

	size := a.comm.Size()
	blocks := make([]*ParCSR, nr*nc)
	for bi := 0; bi < nr; bi++ {
		for bj := 0; bj < nc; bj++ {
			rowStarts := make([]int, size+1)
			colStarts := make([]int, size+1)
			for p := 0; p <= size; p++ {
				rowStarts[p] = a.RowStarts[p] / nr
				colStarts[p] = a.ColStarts[p] / nc
			}

			n := bi*nc + bj
			colMap := append([]int(nil), colMaps[bj]...)
			b, err := NewParCSR(a.comm, a.GlobalRows/nr, a.GlobalCols/nc, rowStarts, colStarts,
				diagBlocks[n], offdBlocks[n], colMap)
			if err != nil {
				return nil, fmt.Errorf("split: block (%d, %d): %w", bi, bj, err)
			}
			blocks[n] = b
		}
	}

	// Schedules are built collectively, in the same block order on every rank.
	for n, b := range blocks {
		if _, err := b.CommPkg(ctx); err != nil {
			return nil, fmt.Errorf("split: block %d schedule: %w", n, err)
		}
	}

	logger.Println(SPLIT, "rank", a.comm.Rank(), "blocks", nr, "x", nc, "interleaved", interleaved)
	return blocks, nil
}

// checkSplit applies the divisibility rules to every rank's extents, so all
// ranks reach the same verdict without communicating.
func (a *ParCSR) checkSplit(nr, nc int) error {
	if nr < 1 || nc < 1 {
		return fmt.Errorf("%w: %d x %d blocks", ErrBlockSize, nr, nc)
	}
	if a.GlobalRows%nr != 0 || a.GlobalCols%nc != 0 {
		return fmt.Errorf("%w: global %d x %d into %d x %d blocks", ErrBlockSize, a.GlobalRows, a.GlobalCols, nr, nc)
	}
	for p := 0; p+1 < len(a.RowStarts); p++ {
		rows := a.RowStarts[p+1] - a.RowStarts[p]
		cols := a.ColStarts[p+1] - a.ColStarts[p]
		if rows%nr != 0 || cols%nc != 0 {
			return fmt.Errorf("%w: rank %d owns %d x %d, split into %d x %d blocks", ErrBlockSize, p, rows, cols, nr, nc)
		}
	}
	return nil
}
