// Package registry holds the ordered list of configured sites. Mutations are
// validated, written to the Source, and only then made visible. A file source
// is shared with other processes: edits there are picked up on read, and
// mutations reload under its lock before applying.
package registry

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
)

type Registry struct {
	mu    sync.RWMutex
	sites []domain.Site
	stamp string
	src   Source
	log   *zap.Logger
}

// Open loads the registry from src. Unreadable data is logged and the
// registry starts empty.
func Open(src Source, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.L()
	}
	stamp := sourceStamp(src, log)
	sites, err := src.Load()
	if err != nil {
		log.Warn("load sites failed; starting with no sites", zap.Error(err))
		sites = nil
	}
	r := &Registry{src: src, log: log, stamp: stamp}
	for _, s := range sites {
		r.sites = append(r.sites, s.Clone())
	}
	log.Info("sites loaded", zap.Int("sites", len(r.sites)))
	return r
}

// List returns a copy of the sites in registry order.
func (r *Registry) List() []domain.Site {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.sites)
}

func (r *Registry) Len() int {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sites)
}

func (r *Registry) Get(i int) (domain.Site, error) {
	r.refresh()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := checkIndex(i, len(r.sites)); err != nil {
		return domain.Site{}, err
	}
	return r.sites[i].Clone(), nil
}

// Add appends site and returns it as stored.
func (r *Registry) Add(site domain.Site) (domain.Site, error) {
	site = Normalize(site)
	if err := ValidateSite(site); err != nil {
		return domain.Site{}, err
	}

	unlock, err := r.lock()
	if err != nil {
		return domain.Site{}, err
	}
	defer unlock()

	if err := checkUnique(r.sites, site.Name, -1); err != nil {
		return domain.Site{}, err
	}
	next := append(cloneAll(r.sites), site.Clone())
	if err := r.commit(next); err != nil {
		return domain.Site{}, err
	}
	return site.Clone(), nil
}

// Update replaces the site at index i.
func (r *Registry) Update(i int, site domain.Site) (domain.Site, error) {
	site = Normalize(site)

	unlock, err := r.lock()
	if err != nil {
		return domain.Site{}, err
	}
	defer unlock()

	if err := checkIndex(i, len(r.sites)); err != nil {
		return domain.Site{}, err
	}
	if err := ValidateSite(site); err != nil {
		return domain.Site{}, err
	}
	if err := checkUnique(r.sites, site.Name, i); err != nil {
		return domain.Site{}, err
	}
	next := cloneAll(r.sites)
	next[i] = site.Clone()
	if err := r.commit(next); err != nil {
		return domain.Site{}, err
	}
	return site.Clone(), nil
}

// Delete removes the site at index i and returns it.
func (r *Registry) Delete(i int) (domain.Site, error) {
	unlock, err := r.lock()
	if err != nil {
		return domain.Site{}, err
	}
	defer unlock()

	if err := checkIndex(i, len(r.sites)); err != nil {
		return domain.Site{}, err
	}
	removed := r.sites[i].Clone()
	next := make([]domain.Site, 0, len(r.sites)-1)
	next = append(next, cloneAll(r.sites[:i])...)
	next = append(next, cloneAll(r.sites[i+1:])...)
	if err := r.commit(next); err != nil {
		return domain.Site{}, err
	}
	return removed, nil
}

// lock takes the source lock (if any) and r.mu, then brings r.sites up to
// date with the source. The returned func releases both.
func (r *Registry) lock() (func(), error) {
	release := func() {}
	l, shared := r.src.(Locker)
	if shared {
		unlock, err := l.Lock()
		if err != nil {
			return nil, eris.Wrap(domain.WithKind(domain.ErrPersistence, err), "registry: lock")
		}
		release = unlock
	}

	r.mu.Lock()
	if shared {
		r.reloadLocked(sourceStamp(r.src, r.log))
	}
	return func() {
		r.mu.Unlock()
		release()
	}, nil
}

// refresh reloads the sites when the source changed since the last load.
func (r *Registry) refresh() {
	if _, ok := r.src.(Stamper); !ok {
		return
	}
	stamp := sourceStamp(r.src, r.log)

	r.mu.Lock()
	defer r.mu.Unlock()
	if stamp == r.stamp {
		return
	}
	r.reloadLocked(stamp)
}

// reloadLocked replaces r.sites from the source. A failed load keeps the
// current list. Caller holds r.mu.
func (r *Registry) reloadLocked(stamp string) {
	sites, err := r.src.Load()
	if err != nil {
		r.log.Warn("reload sites failed; keeping current list", zap.Error(err))
		return
	}
	r.sites = cloneAll(sites)
	r.stamp = stamp
	r.log.Debug("sites reloaded", zap.Int("sites", len(r.sites)))
}

// commit persists next and swaps it in. On a failed write memory is unchanged.
// Caller holds r.mu.
func (r *Registry) commit(next []domain.Site) error {
	if err := r.src.Save(next); err != nil {
		r.log.Error("save sites failed", zap.Error(err))
		return eris.Wrap(domain.WithKind(domain.ErrPersistence, err), "registry: save")
	}
	r.sites = next
	r.stamp = sourceStamp(r.src, r.log)
	return nil
}

func sourceStamp(src Source, log *zap.Logger) string {
	st, ok := src.(Stamper)
	if !ok {
		return ""
	}
	stamp, err := st.Stamp()
	if err != nil {
		log.Warn("stat sites failed", zap.Error(err))
	}
	return stamp
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return eris.Wrapf(domain.ErrIndexOutOfRange, "index %d, have %d sites", i, n)
	}
	return nil
}

func checkUnique(sites []domain.Site, name string, skip int) error {
	for i, s := range sites {
		if i == skip {
			continue
		}
		if strings.EqualFold(s.Name, name) {
			return eris.Wrapf(domain.ErrDuplicateSite, "site %q", name)
		}
	}
	return nil
}

func cloneAll(in []domain.Site) []domain.Site {
	out := make([]domain.Site, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
