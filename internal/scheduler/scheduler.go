package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultTick = 50 * time.Millisecond

// Job is a unit of periodic work. A non-positive Times runs forever.
type Job struct {
	Name     string
	Interval time.Duration
	Times    int
	Run      func()

	lastRun time.Time
	runs    int
}

func (j *Job) due(now time.Time) bool {
	return now.Sub(j.lastRun) >= j.Interval
}

func (j *Job) exhausted() bool {
	return j.Times > 0 && j.runs >= j.Times
}

// Scheduler runs registered jobs on a single goroutine driven by a fixed
// tick, so periodic work is serialized instead of free-running. Jobs run
// in registration order when due.
type Scheduler struct {
	logger *slog.Logger
	tick   time.Duration

	mu   sync.Mutex
	jobs []*Job
}

func New(logger *slog.Logger) *Scheduler {
	return NewWithTick(logger, defaultTick)
}

func NewWithTick(logger *slog.Logger, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Scheduler{logger: logger, tick: tick}
}

// Add registers a job. Safe from any goroutine.
func (s *Scheduler) Add(job *Job) {
	if job == nil || job.Run == nil {
		return
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	s.logger.Debug("job added", "job", job.Name, "interval", job.Interval)
}

// Remove drops a previously added job.
func (s *Scheduler) Remove(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.jobs {
		if candidate == job {
			s.jobs = append(s.jobs[:i:i], s.jobs[i+1:]...)
			return
		}
	}
}

// Start runs the tick loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.runDue(now)
			}
		}
	}()
}

func (s *Scheduler) runDue(now time.Time) {
	s.mu.Lock()
	due := make([]*Job, 0, len(s.jobs))
	kept := s.jobs[:0]
	for _, job := range s.jobs {
		if job.exhausted() {
			continue
		}
		kept = append(kept, job)
		if job.due(now) {
			job.lastRun = now
			job.runs++
			due = append(due, job)
		}
	}
	s.jobs = kept
	s.mu.Unlock()

	for _, job := range due {
		s.runJob(job)
	}
}

func (s *Scheduler) runJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", r)
		}
	}()
	job.Run()
}
