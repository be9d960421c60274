package sched_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"feedrelay/internal/logging"
	"feedrelay/internal/sched"
)

func TestNewRejectsInvalidExpression(t *testing.T) {
	_, err := sched.New("not a cron", func(context.Context) error { return nil }, logging.NewNop())
	if err == nil {
		t.Fatal("expected error for invalid expression")
	}
}

func TestRunExecutesTaskOnTrigger(t *testing.T) {
	var runs atomic.Int64
	scheduler, err := sched.New("@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	if err := scheduler.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if runs.Load() < 1 {
		t.Fatal("expected at least one scheduled run")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	scheduler, err := sched.New("@every 1h", func(context.Context) error { return nil }, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scheduler.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
