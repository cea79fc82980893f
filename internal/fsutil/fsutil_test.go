package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteFileAtomicCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "file.txt")
	require.NoError(t, WriteFileAtomic(path, []byte("x"), 0o600))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteFileAtomicCrashBeforeRenameKeepsOldBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	require.NoError(t, WriteFileAtomic(path, []byte("before"), 0o644))

	// Simulate a crash between temp write and rename.
	rename = func(oldpath, newpath string) error {
		return errors.New("injected crash")
	}
	defer func() { rename = os.Rename }()

	err := WriteFileAtomic(path, []byte("after"), 0o644)
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "before", string(data), "failed write must not touch the target")

	// No temp litter left behind next to the file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "backups", "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	require.NoError(t, CopyFile(dst, src))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestArchiveFileNumbersCollisions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v"), 0o644))
		_, err := ArchiveFile(path, "migrated")
		require.NoError(t, err)
	}

	assert.FileExists(t, path+".migrated")
	assert.FileExists(t, path+".migrated.1")
	assert.FileExists(t, path+".migrated.2")
}

func TestArchiveFileMissingSource(t *testing.T) {
	got, err := ArchiveFile(filepath.Join(t.TempDir(), "absent"), "migrated")
	require.NoError(t, err)
	assert.Empty(t, got)
}
