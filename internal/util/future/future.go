// Package future runs independent work in goroutines and collects results
// in submission order.
package future

import (
	"context"
	"sync"
)

type result[T any] struct {
	v   T
	err error
}

// Future is a single-shot result that completes exactly once.
type Future[T any] struct {
	doneChannel chan struct{}
	res         result[T]
	once        sync.Once
}

// New runs fn in a goroutine and completes the Future when fn returns.
func New[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	go func() {
		v, err := fn()
		f.complete(v, err)
	}()
	return f
}

// FromValue creates an already-completed Future with a value.
func FromValue[T any](v T) *Future[T] {
	f := &Future[T]{doneChannel: make(chan struct{})}
	f.complete(v, nil)
	return f
}

// Await blocks until completion and returns the result.
func (f *Future[T]) Await() (T, error) {
	<-f.doneChannel
	return f.res.v, f.res.err
}

// AwaitContext waits for completion or for ctx to end, whichever is first.
func (f *Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.doneChannel:
		return f.res.v, f.res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the Future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.doneChannel }

// All waits for every future and returns their values in order. The first
// error in submission order wins.
func All[T any](futures ...*Future[T]) ([]T, error) {
	out := make([]T, len(futures))
	for i, fut := range futures {
		v, err := fut.Await()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Pool runs each job with at most limit running at once. A limit below one
// runs everything at once.
func Pool[T any](limit int, jobs []func() (T, error)) []*Future[T] {
	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}
	futures := make([]*Future[T], len(jobs))
	for i, job := range jobs {
		futures[i] = New(func() (T, error) {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			return job()
		})
	}
	return futures
}

// complete sets the result exactly once and closes doneChannel.
func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.res = result[T]{v: v, err: err}
		close(f.doneChannel)
	})
}
