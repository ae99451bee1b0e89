// Package pipeline runs one aggregation pass: scrape every site, merge the
// results into the stored corpus, and save it back.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/scrape"
	"jobscrape-engine/internal/store"
)

// SiteScraper scrapes all keywords of one site.
type SiteScraper interface {
	ScrapeSite(ctx context.Context, site domain.Site) scrape.SiteResult
}

type Result struct {
	Jobs         []domain.Job
	JobCount     int
	Added        int
	FailedUnits  int
	SitesSkipped int
}

type Pipeline struct {
	scraper SiteScraper
	store   store.JobStore
	log     *zap.Logger
}

func New(sc SiteScraper, st store.JobStore, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.L()
	}
	return &Pipeline{scraper: sc, store: st, log: log}
}

// Run scrapes sites concurrently and merges their results in the given order.
// Unit failures are counted, never returned; the only error is a failed save,
// which wraps domain.ErrPersistence and leaves the stored corpus as it was.
func (p *Pipeline) Run(ctx context.Context, sites []domain.Site) (Result, error) {
	existing, err := p.store.Load(ctx)
	if err != nil {
		p.log.Warn("load job store failed; starting from empty corpus", zap.Error(err))
		existing = nil
	}

	var res Result
	valid := make([]domain.Site, 0, len(sites))
	for _, s := range sites {
		if !s.Scrapable() {
			res.SitesSkipped++
			p.log.Warn("site skipped: no keywords or incomplete selectors",
				zap.String("site", s.Name),
				zap.Strings("missing", s.Selectors.Missing()),
			)
			continue
		}
		valid = append(valid, s)
	}

	results := make([]scrape.SiteResult, len(valid))
	var g errgroup.Group
	for i, s := range valid {
		g.Go(func() error {
			results[i] = p.scraper.ScrapeSite(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	batches := make([][]domain.Job, len(results))
	for i, r := range results {
		batches[i] = r.Jobs
		res.FailedUnits += r.FailedUnits
	}

	merged, added := Merge(existing, batches)
	if err := p.store.Save(ctx, merged); err != nil {
		p.log.Error("save job store failed", zap.Error(err))
		return Result{}, eris.Wrap(domain.WithKind(domain.ErrPersistence, err), "pipeline: save")
	}

	res.Jobs = merged
	res.JobCount = len(merged)
	res.Added = added
	p.log.Info("run merged",
		zap.Int("sites", len(valid)),
		zap.Int("added", added),
		zap.Int("job_count", res.JobCount),
		zap.Int("failed_units", res.FailedUnits),
	)
	return res, nil
}
