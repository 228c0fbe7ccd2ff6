// Package scheduler runs periodic maintenance jobs. Each job gets its own
// goroutine; runs of the same job never overlap because the job function is
// invoked synchronously inside the ticker loop.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/motorinps-dev/emby/internal/logging"
)

// Job is a named periodic task. InitialDelay postpones the first run after
// Start; Interval spaces the runs that follow.
type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	logger logging.Logger
	wg     sync.WaitGroup
}

func New(l logging.Logger) *Scheduler {
	return &Scheduler{logger: l.With("module", "scheduler")}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches every registered job and returns immediately. Jobs stop when
// ctx is cancelled; Wait blocks until all of them have exited.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	log := s.logger.With("job", job.Name)
	log.Info(ctx, "job scheduled", "interval", job.Interval.String(), "initial_delay", job.InitialDelay.String())

	delay := time.NewTimer(job.InitialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	s.runOnce(ctx, log, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "job stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, log, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log logging.Logger, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Error(ctx, "job run failed", "error", err.Error(), "duration", time.Since(start).String())
		return
	}
	log.Info(ctx, "job run finished", "duration", time.Since(start).String())
}
