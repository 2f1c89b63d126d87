// Package scheduler runs hunts periodically on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/logging"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Every returns the cron spec for a fixed interval.
func Every(d time.Duration) string {
	return "@every " + d.String()
}

// Scheduler wraps robfig/cron. A tick that arrives while the previous run
// is still going is skipped, so runs never overlap.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  Job
	log  *zap.SugaredLogger
}

// New returns a scheduler firing job on spec, which accepts the standard
// five fields and descriptors such as "@every 24h" or "@daily".
func New(spec string, job Job, log *zap.SugaredLogger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	log = logging.OrNop(log)
	adapter := cronLogger{log}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(adapter), cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter))),
		spec: spec,
		job:  job,
		log:  log,
	}, nil
}

// Run schedules the job and blocks until ctx is done, then waits for a
// running job to return. With runNow the job runs once before the first
// tick is scheduled.
func (s *Scheduler) Run(ctx context.Context, runNow bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule: %w", err)
	}
	if runNow {
		s.fire(ctx)
	}
	s.cron.Start()
	s.log.Infow("Scheduler started", "spec", s.spec, "next", s.Next(time.Now()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Infow("Scheduler stopped")
	return nil
}

// Next returns the next scheduled time after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(from)
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	s.log.Infow("Scheduled run started")
	if err := s.job(ctx); err != nil {
		s.log.Errorw("Scheduled run failed", logging.FieldError, err)
		return
	}
	s.log.Infow("Scheduled run finished", "duration", time.Since(start).Round(time.Second), "next", s.Next(time.Now()))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, logging.FieldError, err)...)
}
