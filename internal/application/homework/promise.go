package homework

import (
	"context"
	"sync"
)

// promise is a single-assignment value that background tasks wait on.
type promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{done: make(chan struct{})}
}

// resolve sets the value; later calls are ignored.
func (p *promise[T]) resolve(v T, err error) {
	p.once.Do(func() {
		p.val, p.err = v, err
		close(p.done)
	})
}

func (p *promise[T]) await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// peek reports the value without blocking; ok is false while unresolved.
func (p *promise[T]) peek() (v T, ok bool, err error) {
	select {
	case <-p.done:
		return p.val, true, p.err
	default:
		return v, false, nil
	}
}
