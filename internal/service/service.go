// Package service ties the registry, job store, pipeline and run gate into
// the operations the HTTP API, scheduler and CLI call.
package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/events"
	"jobscrape-engine/internal/pipeline"
	"jobscrape-engine/internal/registry"
	"jobscrape-engine/internal/store"
)

// Runner performs one aggregation pass over sites.
type Runner interface {
	Run(ctx context.Context, sites []domain.Site) (pipeline.Result, error)
}

type Status struct {
	Running         bool   `json:"running"`
	RunID           string `json:"run_id,omitempty"`
	LastRunAt       string `json:"last_run_at"`
	LastOkAt        string `json:"last_ok_at"`
	LastError       string `json:"last_error"`
	LastAdded       int    `json:"last_added"`
	LastJobCount    int    `json:"last_job_count"`
	LastFailedUnits int    `json:"last_failed_units"`
}

// RunSummary is what a completed run reports to its trigger.
type RunSummary struct {
	RunID        string `json:"runId"`
	JobCount     int    `json:"jobCount"`
	Added        int    `json:"added"`
	FailedUnits  int    `json:"failedUnits"`
	SitesSkipped int    `json:"sitesSkipped"`
}

type JobFilter struct {
	Source  string
	Keyword string
	Limit   int
}

type Deps struct {
	Registry *registry.Registry
	Store    store.JobStore
	Runner   Runner
	Gate     *pipeline.Gate
	Hub      *events.Hub
	Log      *zap.Logger
	// MaxWait bounds how long a waiting trigger queues; zero waits until
	// its context ends.
	MaxWait time.Duration
}

type Service struct {
	registry *registry.Registry
	store    store.JobStore
	runner   Runner
	gate     *pipeline.Gate
	hub      *events.Hub
	log      *zap.Logger
	maxWait  time.Duration
	status   atomic.Value // Status
	newID    func() string
	now      func() time.Time
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.L()
	}
	gate := d.Gate
	if gate == nil {
		gate = pipeline.NewGate("")
	}
	s := &Service{
		registry: d.Registry,
		store:    d.Store,
		runner:   d.Runner,
		gate:     gate,
		hub:      d.Hub,
		log:      log,
		maxWait:  d.MaxWait,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	s.status.Store(Status{})
	return s
}

func (s *Service) Status() Status {
	return s.status.Load().(Status)
}

// TriggerRun runs the pipeline over the current sites. With wait false a busy
// gate returns domain.ErrRunInProgress at once; with wait true the call
// queues for up to the configured MaxWait.
func (s *Service) TriggerRun(ctx context.Context, reqID string, wait bool) (RunSummary, error) {
	runID := s.newID()
	var sum RunSummary
	fn := func(ctx context.Context) error {
		var err error
		sum, err = s.run(ctx, runID, reqID)
		return err
	}

	var err error
	if wait {
		err = s.gate.Run(ctx, s.maxWait, fn)
	} else {
		err = s.gate.TryRun(ctx, fn)
	}
	if err != nil {
		return RunSummary{}, err
	}
	return sum, nil
}

func (s *Service) run(ctx context.Context, runID, reqID string) (RunSummary, error) {
	log := s.log.With(zap.String("run_id", runID))
	started := s.now()

	st := s.Status()
	st.Running = true
	st.RunID = runID
	st.LastRunAt = started.Format(time.RFC3339)
	s.status.Store(st)
	s.hub.Emit(reqID, events.RunStarted, map[string]any{"runId": runID})
	log.Info("run started")

	res, err := s.runner.Run(ctx, s.registry.List())

	st = s.Status()
	st.Running = false
	if err != nil {
		st.LastError = err.Error()
		s.status.Store(st)
		s.hub.Emit(reqID, events.RunFailed, map[string]any{"runId": runID, "error": err.Error()})
		log.Error("run failed", zap.Error(err))
		return RunSummary{}, err
	}

	sum := RunSummary{
		RunID:        runID,
		JobCount:     res.JobCount,
		Added:        res.Added,
		FailedUnits:  res.FailedUnits,
		SitesSkipped: res.SitesSkipped,
	}
	st.LastError = ""
	st.LastOkAt = s.now().Format(time.RFC3339)
	st.LastAdded = res.Added
	st.LastJobCount = res.JobCount
	st.LastFailedUnits = res.FailedUnits
	s.status.Store(st)
	s.hub.Emit(reqID, events.RunCompleted, sum)
	log.Info("run completed",
		zap.Int("added", sum.Added),
		zap.Int("job_count", sum.JobCount),
		zap.Int("failed_units", sum.FailedUnits),
		zap.Duration("took", s.now().Sub(started)),
	)
	return sum, nil
}

// Jobs returns the stored corpus newest first, narrowed by f.
func (s *Service) Jobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	jobs, err := s.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "service: load jobs")
	}

	out := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if f.Source != "" && !strings.EqualFold(j.Source, f.Source) {
			continue
		}
		if f.Keyword != "" && !strings.EqualFold(j.Keyword, f.Keyword) {
			continue
		}
		out = append(out, j)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *Service) Sites() []domain.Site {
	return s.registry.List()
}

func (s *Service) AddSite(reqID string, site domain.Site) (domain.Site, error) {
	added, err := s.registry.Add(site)
	if err != nil {
		return domain.Site{}, err
	}
	s.hub.Emit(reqID, events.SiteAdded, map[string]any{"index": s.registry.Len() - 1, "site": added})
	s.log.Info("site added", zap.String("site", added.Name))
	return added, nil
}

func (s *Service) UpdateSite(reqID string, i int, site domain.Site) (domain.Site, error) {
	updated, err := s.registry.Update(i, site)
	if err != nil {
		return domain.Site{}, err
	}
	s.hub.Emit(reqID, events.SiteUpdated, map[string]any{"index": i, "site": updated})
	s.log.Info("site updated", zap.Int("index", i), zap.String("site", updated.Name))
	return updated, nil
}

func (s *Service) DeleteSite(reqID string, i int) (domain.Site, error) {
	removed, err := s.registry.Delete(i)
	if err != nil {
		return domain.Site{}, err
	}
	s.hub.Emit(reqID, events.SiteDeleted, map[string]any{"index": i, "site": removed})
	s.log.Info("site deleted", zap.Int("index", i), zap.String("site", removed.Name))
	return removed, nil
}
