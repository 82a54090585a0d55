package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/fenilmodi00/stock-api/shared"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

// PeriodicTask is a unit of work repeated on a fixed interval
type PeriodicTask struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool
	Work           func(ctx context.Context) error
}

// Scheduler runs periodic tasks on a gocron scheduler.
//
// Runs of the same task never overlap: when a run outlasts the interval the
// next start waits for the following interval boundary.
type Scheduler struct {
	cron   *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   gocron.NewScheduler(time.UTC),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers task. With RunImmediately the first run happens
// synchronously inside Schedule and its error (or panic) is returned; later
// runs only log failures.
func (s *Scheduler) Schedule(task PeriodicTask) error {
	if task.Interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive, got %v", task.Name, task.Interval)
	}
	if task.Work == nil {
		return fmt.Errorf("task %s: no work function", task.Name)
	}

	if task.RunImmediately {
		if err := s.runFirst(task); err != nil {
			return fmt.Errorf("task %s: initial run failed: %w", task.Name, err)
		}
	}

	_, err := s.cron.Every(task.Interval).
		WaitForSchedule().
		SingletonMode().
		Tag(task.Name).
		Do(func() { s.runScheduled(task) })
	if err != nil {
		return fmt.Errorf("task %s: failed to schedule: %w", task.Name, err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "Scheduler",
		"task":      task.Name,
		"interval":  task.Interval,
	}).Info("Periodic task scheduled")

	return nil
}

// Start begins ticking in the background
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	logrus.WithField("component", "Scheduler").Info("Scheduler started")
}

// Trigger runs the named task now, outside of its schedule
func (s *Scheduler) Trigger(name string) error {
	return s.cron.RunByTag(name)
}

// Stop stops future runs and cancels the context of runs in flight
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
	logrus.WithField("component", "Scheduler").Info("Scheduler stopped")
}

func (s *Scheduler) runFirst(task PeriodicTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = shared.NewServiceError(shared.ErrorCategoryProcessing, "PANIC",
				fmt.Sprintf("panic: %v", r), "Scheduler", task.Name, false, nil)
		}
	}()
	return task.Work(s.ctx)
}

func (s *Scheduler) runScheduled(task PeriodicTask) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "Scheduler",
		"task":      task.Name,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Periodic task panicked, will retry on next tick")
		}
	}()

	if err := task.Work(s.ctx); err != nil {
		logger.WithError(err).Error("Periodic task failed, will retry on next tick")
	}
}
