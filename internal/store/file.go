package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/fsutil"
)

// FileStore keeps the corpus as a JSON array in a single file.
type FileStore struct {
	path string
	log  *zap.Logger
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.L()
	}
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) ([]domain.Job, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("job store empty", zap.String("path", s.path))
		return []domain.Job{}, nil
	}
	if err != nil {
		s.log.Warn("job store unreadable; starting empty", zap.String("path", s.path), zap.Error(err))
		return []domain.Job{}, nil
	}

	var jobs []domain.Job
	if err := json.Unmarshal(b, &jobs); err != nil {
		s.log.Warn("job store corrupt; starting empty", zap.String("path", s.path), zap.Error(err))
		return []domain.Job{}, nil
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	domain.SortNewestFirst(jobs)
	return jobs, nil
}

func (s *FileStore) Save(_ context.Context, jobs []domain.Job) error {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	b, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: encode jobs")
	}
	if err := fsutil.WriteAtomic(s.path, b); err != nil {
		return eris.Wrap(err, "store: save")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
