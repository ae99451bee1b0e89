package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
)

// Pool is the subset of *pgxpool.Pool the Postgres store uses.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var jobColumns = []string{"id", "seq", "title", "company", "location", "link", "source", "keyword", "discovered_at"}

// PostgresStore keeps the corpus in a Postgres table named jobs.
type PostgresStore struct {
	pool Pool
	log  *zap.Logger
}

func NewPostgres(pool Pool, log *zap.Logger) *PostgresStore {
	if log == nil {
		log = zap.L()
	}
	return &PostgresStore{pool: pool, log: log}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL,
	title         TEXT NOT NULL,
	company       TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	link          TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL,
	keyword       TEXT NOT NULL,
	discovered_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_discovered_at ON jobs (discovered_at DESC, seq);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Load(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, title, company, location, link, source, keyword, discovered_at FROM jobs ORDER BY discovered_at DESC, seq ASC")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query jobs")
	}
	defer rows.Close()

	out := []domain.Job{}
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Link, &j.Source, &j.Keyword, &j.DiscoveredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		j.DiscoveredAt = j.DiscoveredAt.UTC()
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate jobs")
	}
	return out, nil
}

// Save clears the table and COPYs the new collection in one transaction.
func (s *PostgresStore) Save(ctx context.Context, jobs []domain.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM jobs"); err != nil {
		return eris.Wrap(err, "postgres: clear jobs")
	}

	if len(jobs) > 0 {
		rows := make([][]any, len(jobs))
		for i, j := range jobs {
			rows[i] = []any{j.ID, i, j.Title, j.Company, j.Location, j.Link, j.Source, j.Keyword, j.DiscoveredAt}
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"jobs"}, jobColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return eris.Wrap(err, "postgres: copy jobs")
		}
		if n != int64(len(jobs)) {
			return eris.Errorf("postgres: copied %d of %d jobs", n, len(jobs))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	s.log.Debug("jobs saved", zap.String("driver", "postgres"), zap.Int("job_count", len(jobs)))
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
