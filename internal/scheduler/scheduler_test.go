package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *orderRecorder) job(name, spec string, err error) Job {
	return Job{Name: name, Spec: spec, Run: func(context.Context) error {
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return err
	}}
}

func (r *orderRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func runAsync(s *Scheduler, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return done
}

// --- Tests ---

func TestRun_CancelReturnsPromptly(t *testing.T) {
	rec := &orderRecorder{}
	s := NewScheduler([]Job{rec.job("scrape", "@daily", nil)}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_RunOnStartKeepsOrderAndSkipsDisabled(t *testing.T) {
	rec := &orderRecorder{}
	jobs := []Job{
		rec.job("scrape", "@daily", errors.New("one source down")),
		rec.job("backfill", "", nil),
		rec.job("logos", "@weekly", nil),
	}
	s := NewScheduler(jobs, discardLogger(), WithRunOnStart(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "scrape" || got[1] != "logos" {
		t.Errorf("run order = %v, want [scrape logos]", got)
	}
}

func TestRun_TicksOnSchedule(t *testing.T) {
	var calls atomic.Int32
	job := Job{Name: "scrape", Spec: "@every 1s", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}}
	s := NewScheduler([]Job{job}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	time.Sleep(2500 * time.Millisecond)
	cancel()
	<-done

	if got := calls.Load(); got < 1 {
		t.Errorf("job calls = %d, want >= 1", got)
	}
}

func TestRun_JobsNeverOverlap(t *testing.T) {
	var running, maxRunning atomic.Int32
	slow := func(context.Context) error {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		running.Add(-1)
		return nil
	}
	jobs := []Job{
		{Name: "a", Spec: "@every 1s", Run: slow},
		{Name: "b", Spec: "@every 1s", Run: slow},
	}
	s := NewScheduler(jobs, discardLogger(), WithRunOnStart(true))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(s, ctx)

	time.Sleep(1300 * time.Millisecond)
	cancel()
	<-done

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", got)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	s := NewScheduler([]Job{{Name: "scrape", Spec: "every tuesday", Run: func(context.Context) error { return nil }}}, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRun_NothingEnabled(t *testing.T) {
	s := NewScheduler([]Job{{Name: "scrape"}}, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error when every job is disabled")
	}
}
