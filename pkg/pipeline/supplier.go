package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Entry is a paginated source record with its position in the source.
type Entry[T any] struct {
	Index int64
	Value T
}

// Loader fetches up to limit entries ending at index from, oldest first.
// A negative from asks for the newest entries.
type Loader[T any] interface {
	Load(ctx context.Context, from int64, limit int) ([]Entry[T], error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc[T any] func(ctx context.Context, from int64, limit int) ([]Entry[T], error)

// Load calls f.
func (f LoaderFunc[T]) Load(ctx context.Context, from int64, limit int) ([]Entry[T], error) {
	return f(ctx, from, limit)
}

// Supplier walks a paginated source from newest to oldest and fans every
// value out to all attached streams. A page is loaded only when at least one
// attached stream asked for an item.
type Supplier[T any] struct {
	loader   Loader[T]
	pageSize int

	mu      sync.Mutex
	streams []*Stream[T]
	started bool
}

// NewSupplier creates a supplier loading pageSize entries per request.
func NewSupplier[T any](loader Loader[T], pageSize int) *Supplier[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Supplier[T]{loader: loader, pageSize: pageSize}
}

// Attach registers a new consumer. Streams attached after Run started are
// already exhausted.
func (s *Supplier[T]) Attach() *Stream[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := newStream[T](nil)
	if s.started {
		stream.finish()
		return stream
	}
	s.streams = append(s.streams, stream)
	return stream
}

// Run drives the walk until the source is exhausted, every stream detached,
// a load fails or ctx ends. Load errors are delivered to every waiting stream
// before being returned.
func (s *Supplier[T]) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	all := slices.Clone(s.streams)
	s.mu.Unlock()

	if len(all) == 0 {
		return ErrNoConsumers
	}
	defer func() {
		for _, stream := range all {
			stream.finish()
		}
	}()

	active := all

	from := int64(-1)
	for {
		waiting := awaitDemand(ctx, active)
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(waiting) == 0 {
			return nil
		}

		page, err := s.loader.Load(ctx, from, s.pageSize)
		if err != nil {
			err = fmt.Errorf("load page from %d: %w", from, err)
			for _, stream := range waiting {
				stream.emit(ctx, Item[T]{Err: err})
			}
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for i := len(page) - 1; i >= 0; i-- {
			if i < len(page)-1 {
				waiting = awaitDemand(ctx, waiting)
				if err := ctx.Err(); err != nil {
					return err
				}
				if len(waiting) == 0 {
					return nil
				}
			}
			waiting = deliver(ctx, waiting, Item[T]{Value: page[i].Value})
		}
		active = waiting

		oldest := page[0].Index
		if len(page) < s.pageSize || oldest <= 0 {
			return nil
		}
		from = oldest - 1
	}
}

// awaitDemand waits for every stream to either ask for an item or detach,
// and returns the ones that asked.
func awaitDemand[T any](ctx context.Context, streams []*Stream[T]) []*Stream[T] {
	waiting := streams[:0:0]
	for _, stream := range streams {
		if stream.wait(ctx) {
			waiting = append(waiting, stream)
		}
	}
	return waiting
}

func deliver[T any](ctx context.Context, streams []*Stream[T], item Item[T]) []*Stream[T] {
	alive := streams[:0:0]
	for _, stream := range streams {
		if stream.emit(ctx, item) && !stream.isDetached() {
			alive = append(alive, stream)
		}
	}
	return alive
}
