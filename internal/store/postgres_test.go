package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock, zap.NewNop()), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs").WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"jobs"}, jobColumns).WillReturnResult(3)
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), sampleJobs()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveEmptySkipsCopy(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCopyFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM jobs").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCopyFrom(pgx.Identifier{"jobs"}, jobColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Save(context.Background(), sampleJobs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: copy jobs")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	s, mock := newMockStore(t)
	jobs := sampleJobs()

	rows := pgxmock.NewRows([]string{"id", "title", "company", "location", "link", "source", "keyword", "discovered_at"})
	for _, j := range jobs {
		rows.AddRow(j.ID, j.Title, j.Company, j.Location, j.Link, j.Source, j.Keyword, j.DiscoveredAt)
	}
	mock.ExpectQuery("SELECT (.+) FROM jobs ORDER BY discovered_at DESC").WillReturnRows(rows)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ids(jobs), ids(got))
	assert.Equal(t, "Studio X", got[0].Company)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM jobs").WillReturnError(errors.New("connection refused"))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
