package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedrelay/internal/pool"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := pool.New(4)
	var count atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() {
			count.Add(1)
		})
	}
	p.Wait()
	if got := count.Load(); got != 100 {
		t.Fatalf("expected 100 tasks run, got %d", got)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const limit = 3
	p := pool.New(limit)

	var mu sync.Mutex
	active, peak := 0, 0
	for i := 0; i < 30; i++ {
		p.Submit(func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	p.Wait()
	if peak > limit {
		t.Fatalf("observed %d concurrent tasks, limit is %d", peak, limit)
	}
}

func TestPoolWaitSeesChainedSubmissions(t *testing.T) {
	downloads := pool.New(2)
	uploads := pool.New(1)

	var uploaded atomic.Int64
	for i := 0; i < 10; i++ {
		downloads.Submit(func() {
			// A download enqueues its upload without awaiting it.
			uploads.Submit(func() {
				time.Sleep(time.Millisecond)
				uploaded.Add(1)
			})
		})
	}
	downloads.Wait()
	uploads.Wait()
	if got := uploaded.Load(); got != 10 {
		t.Fatalf("expected 10 chained uploads, got %d", got)
	}
}

func TestPoolRaisesZeroLimitToOne(t *testing.T) {
	p := pool.New(0)
	if p.Limit() != 1 {
		t.Fatalf("expected limit 1, got %d", p.Limit())
	}
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	p.Wait()
}

func TestPoolSubmitDoesNotBlock(t *testing.T) {
	p := pool.New(1)
	release := make(chan struct{})
	p.Submit(func() { <-release })

	submitted := make(chan struct{})
	go func() {
		// Must return immediately even though the only slot is busy.
		p.Submit(func() {})
		close(submitted)
	}()
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while pool was full")
	}
	close(release)
	p.Wait()
}
