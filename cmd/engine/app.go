package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/config"
	"jobscrape-engine/internal/events"
	"jobscrape-engine/internal/pipeline"
	"jobscrape-engine/internal/registry"
	"jobscrape-engine/internal/scrape"
	"jobscrape-engine/internal/service"
	"jobscrape-engine/internal/store"
)

// engine is everything a command needs, built from config.
type engine struct {
	cfg      config.Config
	log      *zap.Logger
	hub      *events.Hub
	registry *registry.Registry
	store    store.JobStore
	svc      *service.Service
}

// maxWait bounds how long a waiting run queues behind another one.
func buildEngine(ctx context.Context, cfg config.Config, log *zap.Logger, maxWait time.Duration) (*engine, error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "engine: data dir")
	}

	sitesPath := cfg.SitesPath()
	copied, err := registry.EnsureUserSites(sitesPath, cfg.App.DefaultSites)
	if err != nil {
		return nil, eris.Wrap(err, "engine: bootstrap sites")
	}
	if copied {
		log.Info("sites bootstrapped from default", zap.String("path", sitesPath), zap.String("default", cfg.App.DefaultSites))
	}
	reg := registry.Open(registry.NewFileSource(sitesPath), log.Named("registry"))

	st, err := store.Open(ctx, cfg, log.Named("store"))
	if err != nil {
		return nil, err
	}

	fetcher := scrape.NewHTTPFetcher(cfg.Scrape, scrape.NewHostLimiter(cfg.Scrape.HostRPS, cfg.Scrape.HostBurst))
	scraper := scrape.NewScraper(fetcher,
		scrape.WithConcurrency(cfg.Scrape.Concurrency),
		scrape.WithTimeout(cfg.Scrape.Timeout()),
		scrape.WithLogger(log.Named("scrape")),
	)
	hub := events.NewHub()
	svc := service.New(service.Deps{
		Registry: reg,
		Store:    st,
		Runner:   pipeline.New(scraper, st, log.Named("pipeline")),
		Gate:     pipeline.NewGate(cfg.LockPath()),
		Hub:      hub,
		Log:      log.Named("service"),
		MaxWait:  maxWait,
	})

	log.Info("engine ready",
		zap.String("data_dir", cfg.App.DataDir),
		zap.String("store", cfg.Store.Driver),
		zap.Int("sites", reg.Len()),
	)
	return &engine{cfg: cfg, log: log, hub: hub, registry: reg, store: st, svc: svc}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}
