// Package pipeline provides pull-driven traversal of paginated sources with
// fan-out and back-pressure.
//
// Every stream is demand driven: a producer emits an item only after its
// consumer asked for one with Next. Detach is the cancellation token of a
// stream; it propagates synchronously to every upstream stage so a supplier
// never loads a page nobody asked for.
package pipeline

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrExhausted is returned by Next once the stream will deliver nothing more.
	ErrExhausted = errors.New("pipeline: stream exhausted")
	// ErrNoConsumers is returned when a supplier is run without attached streams.
	ErrNoConsumers = errors.New("pipeline: no attached consumers")
)

// Item is a single delivery: either a value or an error.
type Item[T any] struct {
	Value T
	Err   error
}

// Stream connects one producer to one consumer.
type Stream[T any] struct {
	demand chan struct{}
	items  chan Item[T]
	closed chan struct{}
	done   chan struct{}

	upstream   func()
	closeOnce  sync.Once
	detachOnce sync.Once
}

func newStream[T any](upstream func()) *Stream[T] {
	return &Stream[T]{
		demand:   make(chan struct{}),
		items:    make(chan Item[T]),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
		upstream: upstream,
	}
}

// Next asks the producer for the next item and waits for it.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T

	select {
	case s.demand <- struct{}{}:
	case <-s.closed:
		return zero, ErrExhausted
	case <-s.done:
		return zero, ErrExhausted
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case item := <-s.items:
		return item.Value, item.Err
	case <-s.closed:
		return zero, ErrExhausted
	case <-s.done:
		return zero, ErrExhausted
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Detach tells the producer the consumer wants nothing more.
func (s *Stream[T]) Detach() {
	s.detachOnce.Do(func() {
		close(s.done)
		if s.upstream != nil {
			s.upstream()
		}
	})
}

// Detached is closed once the consumer detached.
func (s *Stream[T]) Detached() <-chan struct{} {
	return s.done
}

// wait blocks until the consumer asks for an item. It reports false when the
// consumer detached or ctx ended.
func (s *Stream[T]) wait(ctx context.Context) bool {
	select {
	case <-s.demand:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Stream[T]) emit(ctx context.Context, item Item[T]) bool {
	select {
	case s.items <- item:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Stream[T]) finish() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

func (s *Stream[T]) isDetached() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
