package stream

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many evaluation passes run at once across evaluators
// that share it.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a Pool admitting size concurrent passes.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of concurrent passes admitted.
func (p *Pool) Size() int { return p.size }

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns a slot taken by Acquire.
func (p *Pool) Release() {
	p.sem.Release(1)
}
