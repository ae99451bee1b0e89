package httpapi

import (
	"context"

	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/events"
	"jobscrape-engine/internal/service"
)

// Service is what the handlers need from the engine.
type Service interface {
	TriggerRun(ctx context.Context, reqID string, wait bool) (service.RunSummary, error)
	Status() service.Status
	Jobs(ctx context.Context, f service.JobFilter) ([]domain.Job, error)
	Sites() []domain.Site
	AddSite(reqID string, site domain.Site) (domain.Site, error)
	UpdateSite(reqID string, i int, site domain.Site) (domain.Site, error)
	DeleteSite(reqID string, i int) (domain.Site, error)
}

type Deps struct {
	Service Service
	Hub     *events.Hub
	Log     *zap.Logger

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}
