package parcsr

import (
	"fmt"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// IndexSet is a strictly ascending list of indices with binary-search
// membership. Every eliminate-list goes through it.
type IndexSet[T constraints.Integer] struct {
	idx []T
}

// NewIndexSet copies idx into a new set. It returns ErrUnsorted unless idx is
// strictly ascending.
func NewIndexSet[T constraints.Integer](idx []T) (IndexSet[T], error) {
	for k := 1; k < len(idx); k++ {
		if idx[k-1] >= idx[k] {
			return IndexSet[T]{}, fmt.Errorf("%w: position %d (%d after %d)", ErrUnsorted, k, idx[k], idx[k-1])
		}
	}
	return IndexSet[T]{idx: slices.Clone(idx)}, nil
}

func (s IndexSet[T]) Len() int {
	return len(s.idx)
}

// Values returns the indices in ascending order. The slice belongs to the set
// and must not be modified.
func (s IndexSet[T]) Values() []T {
	return s.idx
}

// Find returns the position of v in the set, or -1.
func (s IndexSet[T]) Find(v T) int {
	pos, found := slices.BinarySearch(s.idx, v)
	if !found {
		return -1
	}
	return pos
}

func (s IndexSet[T]) Has(v T) bool {
	return s.Find(v) >= 0
}

// InRange reports whether every index lies in [0, n).
func (s IndexSet[T]) InRange(n T) bool {
	if len(s.idx) == 0 {
		return true
	}
	return s.idx[0] >= 0 && s.idx[len(s.idx)-1] < n
}

func max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
