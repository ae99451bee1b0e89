package registry

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// EnsureUserSites copies defaultPath to userPath when userPath does not exist
// yet. A missing default is not an error; the registry then starts empty.
func EnsureUserSites(userPath, defaultPath string) (copied bool, err error) {
	_, err = os.Stat(userPath)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, eris.Wrap(err, "sites: stat")
	}
	if defaultPath == "" {
		return false, nil
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sites: open default")
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(userPath), 0o755); err != nil {
		return false, eris.Wrap(err, "sites: mkdir")
	}
	dst, err := os.Create(userPath)
	if err != nil {
		return false, eris.Wrap(err, "sites: create")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return false, eris.Wrap(err, "sites: copy default")
	}
	return true, nil
}
