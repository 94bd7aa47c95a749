package parcsr

import "errors"

// Precondition errors are returned before any matrix or vector is touched.
// Exchange errors may be returned after the diagonal block was already
// modified; the off-diagonal block is then left as it was.
var (
	// ErrBadShape is returned for negative dimensions or inconsistent CSR arrays.
	ErrBadShape = errors.New("parcsr: invalid shape")

	// ErrOutOfRange indicates a row or column index outside the matrix.
	ErrOutOfRange = errors.New("parcsr: index out of range")

	// ErrUnsorted is returned when an index list is not strictly ascending.
	ErrUnsorted = errors.New("parcsr: index list not strictly ascending")

	// ErrDimensionMismatch indicates vectors or blocks of incompatible length.
	ErrDimensionMismatch = errors.New("parcsr: dimension mismatch")

	// ErrNonSquare signals that row and column partitions differ where
	// elimination needs them to agree.
	ErrNonSquare = errors.New("parcsr: row and column partitions differ")

	// ErrBlockSize is returned when block counts do not evenly divide the
	// local or global extents.
	ErrBlockSize = errors.New("parcsr: block count does not divide extent")

	// ErrPartition indicates malformed row/column start arrays.
	ErrPartition = errors.New("parcsr: invalid partition")

	// ErrGhostMap indicates a ghost column map that is unsorted, has the
	// wrong length, or names a locally owned column.
	ErrGhostMap = errors.New("parcsr: invalid ghost column map")

	// ErrPayload is returned when an exchange receives a message of the
	// wrong type or length.
	ErrPayload = errors.New("parcsr: unexpected exchange payload")
)
