// Package pool provides bounded task pools for the pipeline stages.
package pool

import "sync"

// Pool runs submitted tasks with a fixed concurrency limit. Tasks may
// submit further tasks into another pool (or this one) while running;
// Wait observes every task submitted before the waited-on tasks finish,
// so fire-and-forget chaining between pools is safe.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// New returns a pool limited to n concurrent tasks. Limits below one
// are raised to one.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{sem: make(chan struct{}, n)}
}

// Submit schedules a task. It never blocks the caller; the task waits
// for a free slot in its own goroutine.
func (p *Pool) Submit(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		task()
	}()
}

// Wait blocks until every submitted task has finished, including tasks
// submitted by other tasks while waiting.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Limit reports the pool's concurrency limit.
func (p *Pool) Limit() int {
	return cap(p.sem)
}
