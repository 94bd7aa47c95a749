package parcsr

import "github.com/edp1096/parcsr/comm"

// CSR is a compressed sparse row matrix owning its storage.
// Column indices inside a row are not required to be sorted unless Reorder
// has been called.
type CSR struct {
	Rows int // Number of rows
	Cols int // Number of columns

	I    []int     // Row pointers [0...Rows]
	J    []int     // Column indices [0...NNZ-1]
	Data []float64 // Values [0...NNZ-1]
}

// ParCSR is a row-block distributed matrix as seen from one rank.
//
// Columns inside [ColStarts[rank], ColStarts[rank+1]) live in Diag with local
// numbering; all other referenced columns live in Offd, numbered
// [0, len(ColMapOffd)) and mapped back to global ids through ColMapOffd.
type ParCSR struct {
	comm comm.Communicator

	GlobalRows int
	GlobalCols int

	RowStarts []int // First global row of each rank [0...Size]
	ColStarts []int // First global column of each rank [0...Size]

	Diag *CSR // Locally owned columns
	Offd *CSR // Ghost columns

	ColMapOffd []int // Offd local column -> global column, strictly ascending

	pkg *CommPkg // Built on first use, see CommPkg
}

// CommPkg is the communication schedule of a ParCSR: which owned column
// values go to which neighbor, and which ghost columns arrive from where.
// It depends only on the sparsity pattern.
type CommPkg struct {
	Sends []SendTarget
	Recvs []RecvSource

	sendCount int
}

// SendTarget lists the local columns whose values Rank needs.
type SendTarget struct {
	Rank     int
	Elements []int // Local column indices, in the order Rank expects them
}

// RecvSource is a contiguous range of ghost columns owned by Rank.
type RecvSource struct {
	Rank  int
	Start int // First Offd column
	End   int // One past the last Offd column
}

// marker tells whether a row is eliminated and, for A*X=B elimination, with
// which prescribed value.
type marker struct {
	set   bool
	value float64
}
