package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"jobscrape-engine/internal/domain"
)

// SiteResult is everything one site contributed to a run.
type SiteResult struct {
	Site        string
	Jobs        []domain.Job
	FailedUnits int
}

// Scraper runs (site, keyword) units. All units share one semaphore, so the
// bound holds across sites scraped in parallel.
type Scraper struct {
	fetcher Fetcher
	sem     *semaphore.Weighted
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Scraper)

// WithConcurrency caps in-flight fetches.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout sets the per-fetch deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scraper) { s.log = l }
}

func NewScraper(f Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher: f,
		sem:     semaphore.NewWeighted(4),
		timeout: 10 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
		log:     zap.L(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScrapeSite fetches every keyword of site. Keywords run concurrently but the
// returned jobs are in keyword order. A failed unit is logged and contributes
// nothing; it never fails the site.
func (s *Scraper) ScrapeSite(ctx context.Context, site domain.Site) SiteResult {
	buckets := make([][]domain.Job, len(site.Keywords))
	failed := make([]bool, len(site.Keywords))

	var g errgroup.Group
	for i, kw := range site.Keywords {
		g.Go(func() error {
			jobs, err := s.scrapeKeyword(ctx, site, kw)
			if err != nil {
				failed[i] = true
				s.log.Warn("unit failed",
					zap.String("site", site.Name),
					zap.String("keyword", kw),
					zap.Error(err),
				)
				return nil
			}
			buckets[i] = jobs
			return nil
		})
	}
	_ = g.Wait()

	res := SiteResult{Site: site.Name}
	for i := range buckets {
		if failed[i] {
			res.FailedUnits++
			continue
		}
		res.Jobs = append(res.Jobs, buckets[i]...)
	}
	s.log.Info("site scraped",
		zap.String("site", site.Name),
		zap.Int("keywords", len(site.Keywords)),
		zap.Int("jobs", len(res.Jobs)),
		zap.Int("failed", res.FailedUnits),
	)
	return res
}

func (s *Scraper) scrapeKeyword(ctx context.Context, site domain.Site, keyword string) ([]domain.Job, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, eris.Wrap(err, "scrape: acquire slot")
	}
	defer s.sem.Release(1)

	uctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	target := SearchURL(site.BaseURL, keyword)
	html, err := s.fetcher.Fetch(uctx, target)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: fetch %s", target)
	}
	doc, err := Parse(html)
	if err != nil {
		return nil, err
	}

	postings := Extract(doc, site.Selectors, site.BaseURL)
	at := s.now()
	jobs := make([]domain.Job, 0, len(postings))
	for _, p := range postings {
		jobs = append(jobs, domain.Job{
			ID:           domain.JobID(site.Name, p.Title, p.Company),
			Title:        p.Title,
			Company:      p.Company,
			Location:     p.Location,
			Link:         p.Link,
			Source:       site.Name,
			Keyword:      keyword,
			DiscoveredAt: at,
		})
	}
	s.log.Debug("unit done",
		zap.String("site", site.Name),
		zap.String("keyword", keyword),
		zap.String("url", target),
		zap.Int("jobs", len(jobs)),
	)
	return jobs, nil
}
