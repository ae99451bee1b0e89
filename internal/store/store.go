// Package store persists the job corpus. Every backend saves the whole
// collection atomically and loads it newest first.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/config"
	"jobscrape-engine/internal/domain"
)

// JobStore is the durable job corpus.
type JobStore interface {
	// Load returns the stored jobs ordered by DiscoveredAt descending.
	// Missing or unreadable data yields an empty slice, not an error.
	Load(ctx context.Context) ([]domain.Job, error)
	// Save replaces the stored collection. Either all of jobs is stored or
	// the previous content is left as it was.
	Save(ctx context.Context, jobs []domain.Job) error
	Close() error
}

// Open builds the backend named by cfg.Store.Driver.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (JobStore, error) {
	if log == nil {
		log = zap.L()
	}
	switch cfg.Store.Driver {
	case "", "file":
		return NewFileStore(cfg.StorePath(), log), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.StorePath(), log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "store: connect postgres")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, eris.Wrap(err, "store: ping postgres")
		}
		s := NewPostgres(pool, log)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}
