// Package eventpool provides a fixed-capacity namespace of one-shot
// synchronization events addressed by integer id.
//
// The scheduler only reads Capacity to bound the ids it hands out. The
// runtime uses Record and Wait: a wait on id n blocks until n has been
// recorded, and every id may be recorded at most once.
package eventpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/pipegrid/internal/pipeline"
)

// DefaultCapacity is the pool size used when none is configured.
const DefaultCapacity = 4096

var (
	// ErrOutOfRange is returned for ids outside [0, Capacity).
	ErrOutOfRange = errors.New("event id out of range")
	// ErrAlreadyRecorded is returned when an id is recorded twice.
	ErrAlreadyRecorded = errors.New("event already recorded")
)

// Pool is safe for concurrent use.
type Pool struct {
	capacity int64

	mu     sync.Mutex
	events map[int64]chan struct{}
	fired  map[int64]bool
}

// New creates a pool holding ids [0, capacity).
func New(capacity int64) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		capacity: capacity,
		events:   make(map[int64]chan struct{}),
		fired:    make(map[int64]bool),
	}
}

// Capacity returns the number of ids in the pool.
func (p *Pool) Capacity() int64 {
	return p.capacity
}

// Record fires an event, releasing every current and future waiter.
func (p *Pool) Record(id int64) error {
	if err := p.check(id); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fired[id] {
		return fmt.Errorf("%w: %d", ErrAlreadyRecorded, id)
	}
	p.fired[id] = true
	close(p.signal(id))
	return nil
}

// Wait blocks until the event has been recorded or ctx is done. Waiting on
// pipeline.NoWait returns immediately.
func (p *Pool) Wait(ctx context.Context, id int64) error {
	if id == pipeline.NoWait {
		return nil
	}
	if err := p.check(id); err != nil {
		return err
	}

	p.mu.Lock()
	ch := p.signal(id)
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event %d: %w", id, context.Cause(ctx))
	}
}

func (p *Pool) check(id int64) error {
	if id < 0 || id >= p.capacity {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, id, p.capacity)
	}
	return nil
}

// signal returns the channel of an event, creating it on first use. Callers
// hold mu.
func (p *Pool) signal(id int64) chan struct{} {
	ch, ok := p.events[id]
	if !ok {
		ch = make(chan struct{})
		p.events[id] = ch
	}
	return ch
}
