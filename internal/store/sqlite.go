package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"jobscrape-engine/internal/domain"
)

// SQLiteStore keeps the corpus in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.L()
	}
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: ping")
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate brings the schema to the current user_version.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: migrate begin")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return eris.Wrap(err, "sqlite: read user_version")
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id            TEXT PRIMARY KEY,
  seq           INTEGER NOT NULL,
  title         TEXT NOT NULL,
  company       TEXT NOT NULL DEFAULT '',
  location      TEXT NOT NULL DEFAULT '',
  link          TEXT NOT NULL DEFAULT '',
  source        TEXT NOT NULL,
  keyword       TEXT NOT NULL,
  discovered_at INTEGER NOT NULL
);
`); err != nil {
		return eris.Wrap(err, "sqlite: create jobs")
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_jobs_discovered_at
ON jobs(discovered_at DESC, seq);
`); err != nil {
		return eris.Wrap(err, "sqlite: create index")
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return eris.Wrap(err, "sqlite: set user_version")
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, company, location, link, source, keyword, discovered_at
FROM jobs
ORDER BY discovered_at DESC, seq ASC;
`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query jobs")
	}
	defer rows.Close()

	out := []domain.Job{}
	for rows.Next() {
		var j domain.Job
		var at int64
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Link, &j.Source, &j.Keyword, &at); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		j.DiscoveredAt = time.Unix(0, at).UTC()
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate jobs")
	}
	return out, nil
}

func (s *SQLiteStore) Save(ctx context.Context, jobs []domain.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return eris.Wrap(err, "sqlite: clear jobs")
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (id, seq, title, company, location, link, source, keyword, discovered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for i, j := range jobs {
		if _, err := stmt.ExecContext(ctx,
			j.ID, i, j.Title, j.Company, j.Location, j.Link, j.Source, j.Keyword, j.DiscoveredAt.UnixNano(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", j.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit")
	}
	s.log.Debug("jobs saved", zap.String("driver", "sqlite"), zap.Int("job_count", len(jobs)))
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
