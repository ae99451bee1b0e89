package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"jobscrape-engine/internal/domain"
	"jobscrape-engine/internal/fsutil"
)

// Source persists the ordered site list as a whole.
type Source interface {
	Load() ([]domain.Site, error)
	Save(sites []domain.Site) error
}

// Locker is implemented by sources that another process may write. Mutations
// hold the lock from reload through save.
type Locker interface {
	Lock() (unlock func(), err error)
}

// Stamper reports a token that changes whenever the stored list is rewritten.
type Stamper interface {
	Stamp() (string, error)
}

// LockWait bounds how long a mutation waits for another writer.
var LockWait = 10 * time.Second

type sitesFile struct {
	Sites []domain.Site `yaml:"sites"`
}

// FileSource keeps the sites in a YAML document with a top-level sites key.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load returns no sites and no error when the file does not exist.
func (f *FileSource) Load() ([]domain.Site, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sites: read")
	}
	var doc sitesFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, eris.Wrap(err, "sites: parse")
	}
	return doc.Sites, nil
}

func (f *FileSource) Save(sites []domain.Site) error {
	if sites == nil {
		sites = []domain.Site{}
	}
	b, err := yaml.Marshal(&sitesFile{Sites: sites})
	if err != nil {
		return eris.Wrap(err, "sites: encode")
	}
	return eris.Wrap(fsutil.WriteAtomic(f.Path, b), "sites: write")
}

// Stamp is the file's modification time and size, or "" when it is missing.
func (f *FileSource) Stamp() (string, error) {
	fi, err := os.Stat(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "sites: stat")
	}
	return fmt.Sprintf("%d:%d", fi.ModTime().UnixNano(), fi.Size()), nil
}

// Lock takes the advisory lock at Path.lock, waiting up to LockWait.
func (f *FileSource) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return nil, eris.Wrap(err, "sites: lock dir")
	}
	fl := flock.New(f.Path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), LockWait)
	defer cancel()
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, eris.Wrap(err, "sites: lock")
	}
	if !ok {
		return nil, eris.New("sites: lock held by another writer")
	}
	return func() { _ = fl.Unlock() }, nil
}
