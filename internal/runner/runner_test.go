package runner_test

import (
	"context"
	"testing"

	"feedrelay/internal/runner"
	"feedrelay/internal/testsupport"
)

func TestRunFailsWhenToolsMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extract.Binary = "missing-extractor-binary"
	cfg.Upload.Binary = "missing-uploader-binary"
	cfg.Logging.Level = "error"

	err := runner.Run(context.Background(), cfg, runner.Options{})
	if err == nil {
		t.Fatal("expected startup error for missing tools")
	}
}

func TestRunCompletesSinglePass(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.Level = "error"

	if err := runner.Run(context.Background(), cfg, runner.Options{Once: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.Level = "error"

	// The lock is released when the first pass finishes, so two
	// sequential runs must both succeed.
	for i := 0; i < 2; i++ {
		if err := runner.Run(context.Background(), cfg, runner.Options{Once: true}); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
}
