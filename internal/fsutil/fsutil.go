// Package fsutil provides the file-replacement discipline everything in
// switchboard relies on: a file is only ever replaced by writing a sibling
// temp file and renaming it into place, so readers observe either the old
// bytes or the new bytes, never a partial write.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// rename is swappable so tests can simulate a crash between the temp write
// and the rename.
var rename = os.Rename

// WriteFileAtomic writes data to path by way of a temp file in the same
// directory. If anything fails before the final rename, the previous file
// at path is left byte-for-byte intact.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename temp file over %s: %w", path, err)
	}
	return nil
}

// CopyFile copies src to dst atomically. Used for backup slots.
func CopyFile(dst, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	return WriteFileAtomic(dst, data, info.Mode().Perm())
}

// ArchiveFile moves path aside to "<path>.<suffix>", appending a counter
// rather than overwriting an existing archive. Returns the archive path,
// or "" if path does not exist.
func ArchiveFile(path, suffix string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}
	candidate := path + "." + suffix
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			break
		}
		candidate = fmt.Sprintf("%s.%s.%d", path, suffix, n)
	}
	if err := rename(path, candidate); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return candidate, nil
}
