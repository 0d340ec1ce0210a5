package tasks

import (
	"fmt"
	"time"

	"menuhub/internal/config"
	"menuhub/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	cleanup   config.CleanupConfig
	logger    *logger.Logger
}

// NewScheduler creates a new task scheduler
func NewScheduler(redis config.RedisConfig, cleanup config.CleanupConfig, logger *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(RedisOpt(redis), &asynq.SchedulerOpts{})

	return &Scheduler{
		scheduler: scheduler,
		cleanup:   cleanup,
		logger:    logger,
	}
}

// Start registers the periodic tasks and blocks running the scheduler.
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

func (s *Scheduler) registerTasks() error {
	schedule, err := cron.ParseStandard(s.cleanup.GuestSchedule)
	if err != nil {
		return fmt.Errorf("invalid guest cleanup schedule %q: %w", s.cleanup.GuestSchedule, err)
	}
	task, err := NewGuestCleanupTask(0)
	if err != nil {
		return err
	}
	entryID, err := s.scheduler.Register(s.cleanup.GuestSchedule, task)
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", TaskTypeGuestCleanup, err)
	}

	s.logger.Info("registered %s (%s) as %s, next run %s",
		TaskTypeGuestCleanup, s.cleanup.GuestSchedule, entryID, schedule.Next(time.Now()).Format(time.RFC3339))
	return nil
}
