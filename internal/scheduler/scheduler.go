// Package scheduler fires the aggregation run on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	cron       *cron.Cron
	schedule   cron.Schedule
	name       string
	task       Task
	runOnStart bool
	log        *zap.Logger

	// tracks the run-on-start firing, which runs outside cron
	startWG sync.WaitGroup
}

type Option func(*Scheduler)

// RunOnStart fires the task once as soon as Start is called.
func RunOnStart(on bool) Option {
	return func(s *Scheduler) { s.runOnStart = on }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New parses spec (standard 5-field cron or a descriptor like "@every 1h")
// and returns a stopped scheduler for task.
func New(spec, name string, task Task, opts ...Option) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, eris.Wrapf(err, "scheduler: parse %q", spec)
	}
	s := &Scheduler{schedule: sched, name: name, task: task, log: zap.L()}
	for _, o := range opts {
		o(s)
	}
	// Overlapping firings are skipped by cron; the task's gate covers runs
	// started elsewhere.
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(s.log))),
	))
	return s, nil
}

// Start schedules the task and returns immediately. ctx is handed to every
// firing; Stop ends the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.fire(ctx, "cron") }))
	if s.runOnStart {
		s.startWG.Add(1)
		go func() {
			defer s.startWG.Done()
			s.fire(ctx, "start")
		}()
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("task", s.name), zap.Time("next", s.Next()))
}

// Stop halts future firings. The returned context is done once every running
// firing, including the run-on-start one, has returned.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.startWG.Wait()
		cancel()
	}()
	return ctx
}

// Next is the next planned firing, or the zero time if not started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) fire(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	log := s.log.With(zap.String("task", s.name), zap.String("trigger", trigger))

	start := time.Now()
	err := s.task(ctx)
	switch {
	case eris.Is(err, domain.ErrRunInProgress):
		log.Info("scheduled run skipped: run in progress")
	case err != nil:
		log.Error("scheduled run failed", zap.Error(err), zap.Duration("took", time.Since(start)))
	default:
		log.Debug("scheduled run done", zap.Duration("took", time.Since(start)))
	}
}
