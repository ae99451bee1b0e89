package scrape

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter rate-limits fetches per hostname so keywords of the same board
// don't hit it in a burst.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	r     rate.Limit
	b     int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		r:     rate.Limit(reqPerSec),
		b:     burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.hosts[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.hosts[host] = lim
	return lim
}

// Wait blocks until a request to rawURL's host is allowed or ctx ends.
// Unparseable URLs share one bucket.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if hl == nil {
		return nil
	}
	host := "_"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	return hl.limiterFor(host).Wait(ctx)
}
