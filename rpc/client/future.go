package client

import (
	"context"
	"time"
)

// Future is a typed view on a Pending request
type Future[T any] struct {
	pending *Pending
	timeout time.Duration
	decode  func(Reply) (T, error)
}

func newFuture[T any](p *Pending, timeout time.Duration, decode func(Reply) (T, error)) *Future[T] {
	return &Future[T]{pending: p, timeout: timeout, decode: decode}
}

// Get waits for the reply and decodes it
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	var zero T
	reply, err := f.pending.Wait(ctx)
	if err != nil {
		return zero, err
	}
	return f.decode(reply)
}

// Await is Get bounded by the request timeout of the client config.
// Without a configured timeout it waits until the request is resolved.
func (f *Future[T]) Await() (T, error) {
	if f.timeout <= 0 {
		return f.Get(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	return f.Get(ctx)
}

// Done is closed once the reply arrived or the request failed
func (f *Future[T]) Done() <-chan struct{} {
	return f.pending.Done()
}
