package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/scrape"
)

type fakeScraper struct {
	mu      sync.Mutex
	results map[string]scrape.SiteResult
	calls   []string
}

func (f *fakeScraper) ScrapeSite(_ context.Context, site domain.Site) scrape.SiteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, site.Name)
	r := f.results[site.Name]
	r.Site = site.Name
	return r
}

type memStore struct {
	jobs    []domain.Job
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) ([]domain.Job, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]domain.Job(nil), m.jobs...), nil
}

func (m *memStore) Save(_ context.Context, jobs []domain.Job) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.jobs = append([]domain.Job(nil), jobs...)
	return nil
}

func (m *memStore) Close() error { return nil }

var fullSelectors = domain.Selectors{Container: ".job", Title: ".t", Company: ".c", Location: ".l", Link: "a"}

func site(name string) domain.Site {
	return domain.Site{Name: name, BaseURL: "https://" + name + ".test/?q=", Keywords: []string{"audio"}, Selectors: fullSelectors}
}

func TestRun_AcmeEndToEnd(t *testing.T) {
	sc := &fakeScraper{results: map[string]scrape.SiteResult{
		"Acme": {Jobs: []domain.Job{job("Acme", "Sound Designer", "Studio X", "audio", t0)}},
	}}
	st := &memStore{}

	res, err := New(sc, st, zap.NewNop()).Run(context.Background(), []domain.Site{site("Acme")})
	require.NoError(t, err)

	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, "Acme-Sound-Designer-Studio-X", res.Jobs[0].ID)
	assert.Equal(t, jobIDs(res.Jobs), jobIDs(st.jobs))
}

func TestRun_SecondRunAddsNothing(t *testing.T) {
	sc := &fakeScraper{results: map[string]scrape.SiteResult{
		"Acme": {Jobs: []domain.Job{job("Acme", "Sound Designer", "Studio X", "audio", t0)}},
	}}
	st := &memStore{}
	p := New(sc, st, zap.NewNop())

	_, err := p.Run(context.Background(), []domain.Site{site("Acme")})
	require.NoError(t, err)

	sc.results["Acme"] = scrape.SiteResult{Jobs: []domain.Job{job("Acme", "Sound Designer", "Studio X", "audio", t0.Add(time.Hour))}}
	res, err := p.Run(context.Background(), []domain.Site{site("Acme")})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 1, res.JobCount)
	assert.True(t, st.jobs[0].DiscoveredAt.Equal(t0))
}

type pageFetcher struct {
	pages map[string]string
	fails map[string]bool
}

func (f *pageFetcher) Fetch(_ context.Context, rawURL string) (string, error) {
	if f.fails[rawURL] {
		return "", errors.New("connection reset")
	}
	page, ok := f.pages[rawURL]
	if !ok {
		return "", fmt.Errorf("unexpected url %s", rawURL)
	}
	return page, nil
}

const soundDesignerPage = `<html><body>
<div class="job"><span class="t">Sound Designer</span><span class="c">Studio X</span><span class="l">Remote</span><a href="/job/42">apply</a></div>
</body></html>`

func TestRun_WithScraperAcrossSites(t *testing.T) {
	s1 := domain.Site{Name: "S1", BaseURL: "https://s1.test/search?q=", Keywords: []string{"audio", "music", "sfx"}, Selectors: fullSelectors}
	s2 := domain.Site{Name: "S2", BaseURL: "https://s2.test/search?q=", Keywords: []string{"audio"}, Selectors: fullSelectors}
	f := &pageFetcher{
		pages: map[string]string{
			"https://s1.test/search?q=audio": soundDesignerPage,
			"https://s1.test/search?q=sfx":   soundDesignerPage,
			"https://s2.test/search?q=audio": soundDesignerPage,
		},
		fails: map[string]bool{"https://s1.test/search?q=music": true},
	}
	sc := scrape.NewScraper(f, scrape.WithClock(func() time.Time { return t0 }), scrape.WithLogger(zap.NewNop()))
	st := &memStore{}
	p := New(sc, st, zap.NewNop())

	res, err := p.Run(context.Background(), []domain.Site{s1, s2})
	require.NoError(t, err)

	assert.Equal(t, 1, res.FailedUnits)
	assert.Equal(t, 2, res.Added)
	assert.ElementsMatch(t, []string{"S1-Sound-Designer-Studio-X", "S2-Sound-Designer-Studio-X"}, jobIDs(res.Jobs))
	for _, j := range res.Jobs {
		assert.Equal(t, "audio", j.Keyword, j.ID)
		assert.Equal(t, "Remote", j.Location, j.ID)
		if j.Source == "S1" {
			assert.Equal(t, "https://s1.test/job/42", j.Link)
		} else {
			assert.Equal(t, "https://s2.test/job/42", j.Link)
		}
	}

	res, err = p.Run(context.Background(), []domain.Site{s1, s2})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, res.JobCount)
	assert.Len(t, st.jobs, 2)
}

func TestRun_CountsFailedUnitsAndSkipsInvalidSites(t *testing.T) {
	bad := site("Bad")
	bad.Selectors.Link = ""
	noKw := site("NoKeywords")
	noKw.Keywords = nil

	sc := &fakeScraper{results: map[string]scrape.SiteResult{
		"Acme":   {Jobs: []domain.Job{job("Acme", "Composer", "Big Games", "music", t0)}, FailedUnits: 2},
		"Boards": {FailedUnits: 1},
	}}

	res, err := New(sc, &memStore{}, zap.NewNop()).Run(context.Background(),
		[]domain.Site{site("Acme"), bad, noKw, site("Boards")})
	require.NoError(t, err)

	assert.Equal(t, 3, res.FailedUnits)
	assert.Equal(t, 2, res.SitesSkipped)
	assert.Equal(t, 1, res.JobCount)
	assert.ElementsMatch(t, []string{"Acme", "Boards"}, sc.calls)
}

func TestRun_SaveFailureIsPersistenceError(t *testing.T) {
	prior := []domain.Job{job("Acme", "Old Role", "Studio X", "audio", t0)}
	diskFull := errors.New("disk full")
	st := &memStore{jobs: prior, saveErr: diskFull}
	sc := &fakeScraper{results: map[string]scrape.SiteResult{
		"Acme": {Jobs: []domain.Job{job("Acme", "New Role", "Studio X", "audio", t0.Add(time.Hour))}},
	}}

	_, err := New(sc, st, zap.NewNop()).Run(context.Background(), []domain.Site{site("Acme")})

	require.Error(t, err)
	assert.True(t, eris.Is(err, domain.ErrPersistence))
	assert.True(t, eris.Is(err, diskFull))
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, jobIDs(prior), jobIDs(st.jobs))
}

func TestRun_LoadFailureStartsEmpty(t *testing.T) {
	st := &memStore{loadErr: errors.New("bad file")}
	sc := &fakeScraper{results: map[string]scrape.SiteResult{
		"Acme": {Jobs: []domain.Job{job("Acme", "Sound Designer", "Studio X", "audio", t0)}},
	}}

	res, err := New(sc, st, zap.NewNop()).Run(context.Background(), []domain.Site{site("Acme")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, st.saves)
}

func TestRun_NoSitesStillSaves(t *testing.T) {
	prior := []domain.Job{job("Acme", "Old Role", "Studio X", "audio", t0)}
	st := &memStore{jobs: prior}

	res, err := New(&fakeScraper{}, st, zap.NewNop()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.JobCount)
	assert.Equal(t, 0, res.Added)
}
