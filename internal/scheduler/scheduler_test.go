package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJobsRunInRegistrationOrder(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)

	var order []int
	s.Add(&Job{Name: "first", Interval: 0, Times: 1, Run: func() { order = append(order, 1) }})
	s.Add(&Job{Name: "second", Interval: 0, Times: 1, Run: func() { order = append(order, 2) }})

	s.runDue(time.Now())

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected run order: %v", order)
	}
}

func TestExhaustedJobsAreDropped(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)

	var runs int
	s.Add(&Job{Name: "once", Interval: 0, Times: 1, Run: func() { runs++ }})

	s.runDue(time.Now())
	s.runDue(time.Now().Add(time.Second))

	if runs != 1 {
		t.Fatalf("expected a single run, got %d", runs)
	}
}

func TestIntervalGatesExecution(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)

	var runs int
	s.Add(&Job{Name: "slow", Interval: time.Minute, Run: func() { runs++ }})

	base := time.Now()
	s.runDue(base.Add(time.Minute + time.Second))
	s.runDue(base.Add(time.Minute + 2*time.Second))
	s.runDue(base.Add(2*time.Minute + 2*time.Second))

	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
}

func TestPanickingJobDoesNotStopOthers(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)

	var survived bool
	s.Add(&Job{Name: "bad", Interval: 0, Times: 1, Run: func() { panic("boom") }})
	s.Add(&Job{Name: "good", Interval: 0, Times: 1, Run: func() { survived = true }})

	s.runDue(time.Now())

	if !survived {
		t.Fatalf("panic in one job stopped the next")
	}
}

func TestRemoveStopsJob(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)

	var runs int
	job := &Job{Name: "temp", Interval: 0, Run: func() { runs++ }}
	s.Add(job)
	s.runDue(time.Now())
	s.Remove(job)
	s.runDue(time.Now().Add(time.Second))

	if runs != 1 {
		t.Fatalf("expected removal to stop the job, got %d runs", runs)
	}
}

func TestStartDrivesTicks(t *testing.T) {
	s := NewWithTick(testLogger(), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	s.Add(&Job{Name: "ticking", Interval: time.Millisecond, Run: func() { runs.Add(1) }})
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("scheduler did not tick, runs = %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
