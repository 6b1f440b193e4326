/**
 * @description
 * Cron scheduler for recurring suite runs.
 */
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/transfa/bank-api-harness/internal/report"
	"go.uber.org/zap"
)

// RunFunc executes one suite run.
type RunFunc func(ctx context.Context) (*report.Report, error)

// Scheduler runs the suite on a cron schedule. A run that is still going
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	run      RunFunc
	schedule string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(schedule string, run RunFunc, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     c,
		run:      run,
		schedule: schedule,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the suite job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSuite); err != nil {
		s.logger.Error("failed to schedule suite run", zap.String("schedule", s.schedule), zap.Error(err))
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled suite run", zap.String("schedule", s.schedule))

	s.cron.Start()
	return nil
}

// Stop cancels an in-flight run and stops the scheduler. The returned
// context is done once the running job has returned.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

func (s *Scheduler) runSuite() {
	s.logger.Info("starting scheduled suite run")

	rep, err := s.run(s.ctx)
	if err != nil {
		s.logger.Warn("scheduled suite run interrupted", zap.Error(err))
	}
	if rep == nil {
		return
	}

	summary := rep.Snapshot()
	s.logger.Info("scheduled suite run finished",
		zap.String("run_id", rep.RunID),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
}
