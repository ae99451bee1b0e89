package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic_CreatesDirsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")

	require.NoError(t, WriteAtomic(path, []byte("one")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "no backup on first write")
}

func TestWriteAtomic_KeepsPreviousAsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, WriteAtomic(path, []byte("two")))
	require.NoError(t, WriteAtomic(path, []byte("three")))

	cur, err := os.ReadFile(path)
	require.NoError(t, err)
	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)

	assert.Equal(t, "three", string(cur))
	assert.Equal(t, "two", string(bak))
}

func TestWriteAtomic_FailureKeepsOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	assert.Error(t, WriteAtomic(path, []byte("two")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(b))
}
