package pipeline

import (
	"context"
	"errors"
)

// Filter passes through values for which keep returns true.
func Filter[T any](ctx context.Context, in *Stream[T], keep func(T) bool) *Stream[T] {
	out := newStream[T](in.Detach)
	go func() {
		defer out.finish()
		defer in.Detach()

		for out.wait(ctx) {
			for {
				value, err := in.Next(ctx)
				if errors.Is(err, ErrExhausted) {
					return
				}
				if err != nil {
					out.emit(ctx, Item[T]{Err: err})
					return
				}
				if keep(value) {
					if !out.emit(ctx, Item[T]{Value: value}) {
						return
					}
					break
				}
			}
		}
	}()
	return out
}

// Transform maps every value with fn. An fn error ends the stream after being
// delivered downstream.
func Transform[A, B any](ctx context.Context, in *Stream[A], fn func(A) (B, error)) *Stream[B] {
	out := newStream[B](in.Detach)
	go func() {
		defer out.finish()
		defer in.Detach()

		for out.wait(ctx) {
			value, err := in.Next(ctx)
			if errors.Is(err, ErrExhausted) {
				return
			}
			if err != nil {
				out.emit(ctx, Item[B]{Err: err})
				return
			}
			mapped, err := fn(value)
			if err != nil {
				out.emit(ctx, Item[B]{Err: err})
				return
			}
			if !out.emit(ctx, Item[B]{Value: mapped}) {
				return
			}
		}
	}()
	return out
}

// Limit delivers at most n values, then detaches upstream and ends the stream.
func Limit[T any](ctx context.Context, in *Stream[T], n int) *Stream[T] {
	out := newStream[T](in.Detach)
	if n <= 0 {
		in.Detach()
		out.finish()
		return out
	}
	go func() {
		defer out.finish()
		defer in.Detach()

		for range n {
			if !out.wait(ctx) {
				return
			}
			value, err := in.Next(ctx)
			if errors.Is(err, ErrExhausted) {
				return
			}
			if err != nil {
				out.emit(ctx, Item[T]{Err: err})
				return
			}
			if !out.emit(ctx, Item[T]{Value: value}) {
				return
			}
		}
	}()
	return out
}

// Take consumes in until fn returns false, fn fails or the stream ends.
// It always detaches in before returning.
func Take[T any](ctx context.Context, in *Stream[T], fn func(T) (bool, error)) error {
	defer in.Detach()

	for {
		value, err := in.Next(ctx)
		if errors.Is(err, ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(value)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Collect gathers every value of in.
func Collect[T any](ctx context.Context, in *Stream[T]) ([]T, error) {
	var values []T
	err := Take(ctx, in, func(v T) (bool, error) {
		values = append(values, v)
		return true, nil
	})
	return values, err
}
