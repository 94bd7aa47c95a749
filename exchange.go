package parcsr

import (
	"context"
	"fmt"
	"sort"

	"github.com/edp1096/parcsr/comm"
)

// Message tags. Every exchange round of one operation uses its own tag so
// rounds from consecutive operations cannot be confused.
const (
	tagCommPkg = 100 + iota
	tagEliminate
	tagEliminateMatrix
	tagSplit
)

// CommPkg returns the communication schedule of a, building it on first
// use. Building is collective: every rank of a's group must call it
// (directly or through an operation that needs it) the same number of
// times. The schedule is reused until DestroyCommPkg.
func (a *ParCSR) CommPkg(ctx context.Context) (*CommPkg, error) {
	if a.pkg != nil {
		return a.pkg, nil
	}

	pkg, err := newCommPkg(ctx, a.comm, a.ColStarts, a.ColMapOffd)
	if err != nil {
		return nil, err
	}
	a.pkg = pkg
	return pkg, nil
}

// DestroyCommPkg drops the cached schedule; the next CommPkg call rebuilds
// it. Call it on every rank after changing the sparsity of Offd.
func (a *ParCSR) DestroyCommPkg() {
	a.pkg = nil
}

// newCommPkg groups the ghost columns by owner, tells every other rank which
// of its columns are needed here, and collects the same requests addressed
// to this rank.
func newCommPkg(ctx context.Context, c comm.Communicator, colStarts, colMapOffd []int) (*CommPkg, error) {
	rank, size := c.Rank(), c.Size()
	firstCol, lastCol := colStarts[rank], colStarts[rank+1]

	owner := func(g int) int {
		return sort.Search(size, func(p int) bool { return colStarts[p+1] > g })
	}

	pkg := &CommPkg{}
	requests := make([][]int, size)
	for k := 0; k < len(colMapOffd); {
		p := owner(colMapOffd[k])
		start := k
		for k < len(colMapOffd) && colMapOffd[k] < colStarts[p+1] {
			k++
		}
		pkg.Recvs = append(pkg.Recvs, RecvSource{Rank: p, Start: start, End: k})
		requests[p] = colMapOffd[start:k]
	}

	for p := 0; p < size; p++ {
		if p == rank {
			continue
		}
		if err := c.Send(ctx, p, tagCommPkg, requests[p]); err != nil {
			return nil, err
		}
	}

	for p := 0; p < size; p++ {
		if p == rank {
			continue
		}
		msg, err := c.Recv(ctx, p, tagCommPkg)
		if err != nil {
			return nil, err
		}
		wanted, ok := msg.([]int)
		if !ok {
			return nil, fmt.Errorf("%w: schedule request from rank %d is %T", ErrPayload, p, msg)
		}
		if len(wanted) == 0 {
			continue
		}

		elements := make([]int, len(wanted))
		for k, g := range wanted {
			if g < firstCol || g >= lastCol {
				return nil, fmt.Errorf("%w: rank %d asked rank %d for column %d", ErrGhostMap, p, rank, g)
			}
			elements[k] = g - firstCol
		}
		pkg.Sends = append(pkg.Sends, SendTarget{Rank: p, Elements: elements})
		pkg.sendCount += len(elements)
	}

	logger.Println(SCHED, "rank", rank, "sends", len(pkg.Sends), "recvs", len(pkg.Recvs), "values out", pkg.sendCount, "in", len(colMapOffd))
	return pkg, nil
}

// SendCount is the total number of values this rank sends per exchange.
func (p *CommPkg) SendCount() int {
	return p.sendCount
}

// RecvCount is the total number of values this rank receives per exchange.
func (p *CommPkg) RecvCount() int {
	n := 0
	for _, r := range p.Recvs {
		n += r.End - r.Start
	}
	return n
}

// exchange is one outstanding round over a schedule: owned-column values
// go out, ghost-column values come in.
type exchange[T any] struct {
	c    comm.Communicator
	pkg  *CommPkg
	tag  int
	recv []T
}

// startExchange sends local[k] for every scheduled element k and returns
// without waiting for the peers. recv must have one slot per ghost column.
func startExchange[T any](ctx context.Context, c comm.Communicator, pkg *CommPkg, tag int, local, recv []T) (*exchange[T], error) {
	for _, s := range pkg.Sends {
		buf := make([]T, len(s.Elements))
		for n, k := range s.Elements {
			buf[n] = local[k]
		}
		if err := c.Send(ctx, s.Rank, tag, buf); err != nil {
			return nil, err
		}
	}
	return &exchange[T]{c: c, pkg: pkg, tag: tag, recv: recv}, nil
}

// wait blocks until every ghost value has arrived. Each source fills its own
// fixed range, so the result does not depend on arrival order.
func (e *exchange[T]) wait(ctx context.Context) error {
	for _, r := range e.pkg.Recvs {
		msg, err := e.c.Recv(ctx, r.Rank, e.tag)
		if err != nil {
			return err
		}
		vals, ok := msg.([]T)
		if !ok {
			return fmt.Errorf("%w: rank %d sent %T", ErrPayload, r.Rank, msg)
		}
		if len(vals) != r.End-r.Start {
			return fmt.Errorf("%w: rank %d sent %d values, expected %d", ErrPayload, r.Rank, len(vals), r.End-r.Start)
		}
		copy(e.recv[r.Start:r.End], vals)
	}
	return nil
}
