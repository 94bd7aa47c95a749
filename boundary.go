package parcsr

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"
)

// EliminateEssentialBC eliminates the global rows and columns of A that
// correspond to the sorted local row list rowscols, so that A*X=B fixes X
// at its current values on them:
//
//	    / A_ii | A_ib \        / A_ii |  0 \
//	A = | -----+----- |  ->    | -----+--- |
//	    \ A_bi | A_bb /        \   0  |  I /
//
//	B_i -> B_i - A_ib*X_b,    B_b -> X_b
//
// Ghost columns owned elsewhere are found with one exchange over A's
// schedule, overlapped with the elimination of the diagonal block. Every
// rank of A's group must call it.
func EliminateEssentialBC(ctx context.Context, a *ParCSR, b, x []float64, rowscols []int) error {
	rows, err := a.checkElimination(rowscols)
	if err != nil {
		return err
	}
	nrows, _ := a.LocalSize()
	if len(b) != nrows || len(x) != nrows {
		return fmt.Errorf("%w: %d local rows, len(B)=%d, len(X)=%d", ErrDimensionMismatch, nrows, len(b), len(x))
	}

	pkg, err := a.CommPkg(ctx)
	if err != nil {
		return err
	}

	eliminateRow := make([]marker, nrows)
	for _, irow := range rows.Values() {
		eliminateRow[irow] = marker{set: true, value: x[irow]}
	}
	eliminateCol := make([]marker, a.Offd.Cols)

	ex, err := startExchange(ctx, a.comm, pkg, tagEliminate, eliminateRow, eliminateCol)
	if err != nil {
		return err
	}

	EliminateAXB(a.Diag, rows, x, b)

	if err := ex.wait(ctx); err != nil {
		return fmt.Errorf("eliminate: %w", err)
	}

	var offdCols []int
	var coefs []float64
	for k, m := range eliminateCol {
		if m.set {
			offdCols = append(offdCols, k)
			coefs = append(coefs, m.value)
		}
	}
	cols, _ := NewIndexSet(offdCols)

	eliminateOffdColsAXB(a.Offd, cols, coefs, b)
	eliminateOffdRows(a.Offd, rows)

	for _, irow := range rows.Values() {
		b[irow] = x[irow]
	}

	logger.Println(ELIM, "rank", a.comm.Rank(), "rows", rows.Len(), "ghost cols", cols.Len())
	return nil
}

// EliminateEssentialBCToMatrix eliminates the same rows and columns as
// EliminateEssentialBC but keeps the removed entries: A becomes
//
//	/ A_ii | 0 \               /   0  |   A_ib   \
//	| -----+-- |   and   Ae =  | -----+--------- |
//	\   0  | I /               \ A_bi | A_bb - I /
//
// so that A + Ae equals the original A. Ae shares A's partitions, has its own
// ghost map restricted to the ghost columns it uses, and gets its own
// schedule, built before returning. Every rank of A's group must call it.
func EliminateEssentialBCToMatrix(ctx context.Context, a *ParCSR, rowscols []int) (*ParCSR, error) {
	rows, err := a.checkElimination(rowscols)
	if err != nil {
		return nil, err
	}

	pkg, err := a.CommPkg(ctx)
	if err != nil {
		return nil, err
	}

	nrows, _ := a.LocalSize()
	eliminateRow := make([]marker, nrows)
	for _, irow := range rows.Values() {
		eliminateRow[irow] = marker{set: true}
	}
	eliminateCol := make([]marker, a.Offd.Cols)

	ex, err := startExchange(ctx, a.comm, pkg, tagEliminateMatrix, eliminateRow, eliminateCol)
	if err != nil {
		return nil, err
	}

	aeDiag := elimFill(a.Diag, elimCount(a.Diag, rows, rows, nil).fill(a.Diag.Cols), rows, rows, true, nil)
	aeDiag.Reorder()

	if err := ex.wait(ctx); err != nil {
		return nil, fmt.Errorf("eliminate to matrix: %w", err)
	}

	var offdCols []int
	for k, m := range eliminateCol {
		if m.set {
			offdCols = append(offdCols, k)
		}
	}
	cols, _ := NewIndexSet(offdCols)

	colMark := make([]bool, a.Offd.Cols)
	counter := elimCount(a.Offd, rows, cols, colMark)

	colRemap := make([]int, a.Offd.Cols)
	var aeColMap []int
	for k, marked := range colMark {
		if marked {
			colRemap[k] = len(aeColMap)
			aeColMap = append(aeColMap, a.ColMapOffd[k])
		}
	}

	aeOffd := elimFill(a.Offd, counter.fill(len(aeColMap)), rows, cols, false, colRemap)
	aeOffd.Reorder()

	ae := &ParCSR{
		comm:       a.comm,
		GlobalRows: a.GlobalRows,
		GlobalCols: a.GlobalCols,
		RowStarts:  slices.Clone(a.RowStarts),
		ColStarts:  slices.Clone(a.ColStarts),
		Diag:       aeDiag,
		Offd:       aeOffd,
		ColMapOffd: aeColMap,
	}

	// Ae uses a subset of A's ghost columns and needs its own schedule.
	if _, err := ae.CommPkg(ctx); err != nil {
		return nil, fmt.Errorf("eliminate to matrix: Ae schedule: %w", err)
	}

	logger.Println(ELIM, "rank", a.comm.Rank(), "rows", rows.Len(), "ghost cols", cols.Len(), "Ae nnz", aeDiag.NNZ()+aeOffd.NNZ())
	return ae, nil
}

// checkElimination validates an elimination request before anything is
// modified.
func (a *ParCSR) checkElimination(rowscols []int) (IndexSet[int], error) {
	if !slices.Equal(a.RowStarts, a.ColStarts) {
		return IndexSet[int]{}, ErrNonSquare
	}

	rows, err := NewIndexSet(rowscols)
	if err != nil {
		return IndexSet[int]{}, err
	}
	nrows, _ := a.LocalSize()
	if !rows.InRange(nrows) {
		return IndexSet[int]{}, fmt.Errorf("%w: eliminated rows must lie in [0, %d)", ErrOutOfRange, nrows)
	}
	return rows, nil
}
