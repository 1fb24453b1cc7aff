package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunTimeout bounds every job run.
const RunTimeout = 5 * time.Minute

var ErrSchedulerStopping = errors.New("scheduler is stopping")

// Scheduler fires jobs on their cron specs and on demand.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	logger *zap.Logger

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

func NewScheduler(runner *Runner, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
		logger: logger,
	}
}

func (s *Scheduler) Runner() *Runner {
	return s.runner
}

// Start registers every job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")
	for _, def := range s.runner.Definitions() {
		name := def.Name
		if _, err := s.cron.AddFunc(def.Schedule, func() {
			if s.begin() {
				defer s.wg.Done()
				s.run(name, uuid.NewString())
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
		s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", def.Schedule))
	}
	s.cron.Start()
	return nil
}

// begin registers a run with the wait group unless Stop has been called.
// A true result must be paired with wg.Done.
func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scheduler) run(name, taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()
	// failures are already logged and recorded by the runner
	_, _ = s.runner.Run(ctx, name, taskID)
}

// Trigger starts a job in the background and returns its task id.
func (s *Scheduler) Trigger(name string) (string, error) {
	if !s.runner.Has(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !s.begin() {
		return "", ErrSchedulerStopping
	}
	taskID := uuid.NewString()
	go func() {
		defer s.wg.Done()
		s.run(name, taskID)
	}()
	return taskID, nil
}

// Stop halts the cron loop and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
