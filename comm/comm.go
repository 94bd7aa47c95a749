// Package comm provides the process group used by the distributed matrix
// operations: point-to-point messages between ranks, matched by source and
// tag, delivered in send order.
package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidRank is returned when a rank is outside [0, Size).
	ErrInvalidRank = errors.New("comm: invalid rank")

	// ErrInvalidSize is returned when a group of size < 1 is requested.
	ErrInvalidSize = errors.New("comm: invalid group size")
)

// Communicator is one rank's view of a process group.
//
// Send never waits for the receiver; the payload is handed over and must not
// be modified by the sender afterwards. Recv blocks until a message with the
// given source and tag arrives or ctx is done. Messages with the same source
// and tag are received in the order they were sent.
type Communicator interface {
	Rank() int
	Size() int
	Send(ctx context.Context, dest, tag int, payload any) error
	Recv(ctx context.Context, src, tag int) (any, error)
}

// World is an in-process group of ranks exchanging messages through
// per-rank mailboxes.
type World struct {
	size  int
	boxes []*mailbox
}

func NewWorld(size int) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	w := &World{size: size, boxes: make([]*mailbox, size)}
	for i := range w.boxes {
		w.boxes[i] = newMailbox()
	}
	return w, nil
}

func (w *World) Size() int {
	return w.size
}

// Comm returns the communicator for rank.
func (w *World) Comm(rank int) (Communicator, error) {
	if rank < 0 || rank >= w.size {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidRank, rank, w.size)
	}
	return &endpoint{world: w, rank: rank}, nil
}

// Self returns a single-rank communicator.
func Self() Communicator {
	w, _ := NewWorld(1)
	return &endpoint{world: w, rank: 0}
}

// Run starts size ranks of a fresh World, each executing fn in its own
// goroutine, and waits for all of them. The first error cancels the context
// handed to the remaining ranks, so ranks blocked in Recv return instead of
// waiting for a peer that already gave up.
func Run(ctx context.Context, size int, fn func(ctx context.Context, c Communicator) error) error {
	w, err := NewWorld(size)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < size; rank++ {
		c := &endpoint{world: w, rank: rank}
		g.Go(func() error {
			if err := fn(gctx, c); err != nil {
				return fmt.Errorf("rank %d: %w", c.rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}

type endpoint struct {
	world *World
	rank  int
}

func (e *endpoint) Rank() int { return e.rank }
func (e *endpoint) Size() int { return e.world.size }

func (e *endpoint) Send(ctx context.Context, dest, tag int, payload any) error {
	if dest < 0 || dest >= e.world.size {
		return fmt.Errorf("%w: send to %d of %d", ErrInvalidRank, dest, e.world.size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.world.boxes[dest].put(envelopeKey{src: e.rank, tag: tag}, payload)
	return nil
}

func (e *endpoint) Recv(ctx context.Context, src, tag int) (any, error) {
	if src < 0 || src >= e.world.size {
		return nil, fmt.Errorf("%w: recv from %d of %d", ErrInvalidRank, src, e.world.size)
	}
	return e.world.boxes[e.rank].take(ctx, envelopeKey{src: src, tag: tag})
}

type envelopeKey struct {
	src int
	tag int
}

// queue holds undelivered payloads for one (src, tag) pair. ready carries at
// most one pending wakeup for the single receiving rank.
type queue struct {
	items []any
	ready chan struct{}
}

type mailbox struct {
	mu     sync.Mutex
	queues map[envelopeKey]*queue
}

func newMailbox() *mailbox {
	return &mailbox{queues: make(map[envelopeKey]*queue)}
}

func (m *mailbox) lookup(key envelopeKey) *queue {
	q, ok := m.queues[key]
	if !ok {
		q = &queue{ready: make(chan struct{}, 1)}
		m.queues[key] = q
	}
	return q
}

func (m *mailbox) put(key envelopeKey, payload any) {
	m.mu.Lock()
	q := m.lookup(key)
	q.items = append(q.items, payload)
	m.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox) take(ctx context.Context, key envelopeKey) (any, error) {
	for {
		m.mu.Lock()
		q := m.lookup(key)
		if len(q.items) > 0 {
			payload := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			m.mu.Unlock()
			return payload, nil
		}
		m.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
