// Package fsutil holds small file helpers shared by the stores.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteAtomic replaces path with data. The bytes go to path.tmp, are synced,
// and renamed over path; the previous file is kept as path.bak.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "write: mkdir")
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return eris.Wrap(err, "write: open tmp")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrap(err, "write: tmp")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrap(err, "write: sync tmp")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "write: close tmp")
	}

	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(bak)
		if err := copyFile(path, bak); err != nil {
			_ = os.Remove(tmp)
			return eris.Wrap(err, "write: backup")
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "write: rename")
	}
	return nil
}

// copyFile keeps path in place while the backup is taken, so a failed rename
// never leaves path missing.
func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o644)
}
