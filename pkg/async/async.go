package async

import (
	"context"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Async runs fn(ctx, param) in its own goroutine and returns a Future for its result.
// A context that is already cancelled short-circuits to ctx.Err().
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.once.Do(func() { f.err = err })
			return
		}

		res, err := fn(ctx, param)
		f.once.Do(func() {
			f.result = res
			f.err = err
		})
	}()

	return f
}

// Result is the settled outcome of one future.
type Result[U any] struct {
	Value U
	Err   error
}

// Settle waits for every future and returns all outcomes in input order.
// It never stops early, so one failure does not hide the others.
func Settle[U any](futures ...*Future[U]) []Result[U] {
	out := make([]Result[U], len(futures))
	for i, future := range futures {
		v, err := future.Await()
		out[i] = Result[U]{Value: v, Err: err}
	}
	return out
}

// Map starts fn for every item concurrently and settles all of them.
func Map[T any, U any](ctx context.Context, items []T, fn func(context.Context, T) (U, error)) []Result[U] {
	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, item, fn)
	}
	return Settle(futures...)
}
