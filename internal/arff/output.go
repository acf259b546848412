package arff

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another run holds the output lock.
var ErrLocked = errors.New("output file is locked by another run")

// DefaultTimestampLayout renders run times like "_-_2013-05-14_1000".
const DefaultTimestampLayout = "_-_2006-01-02_1504"

// Naming builds run-stamped output paths.
type Naming struct {
	Dir    string
	Prefix string
	Layout string
	Format Format
}

// Path returns <dir>/<prefix><now formatted by layout>.<ext>.
func (n Naming) Path(now time.Time) string {
	layout := n.Layout
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	format := n.Format
	if format == "" {
		format = FormatARFF
	}
	name := n.Prefix + now.Format(layout) + "." + format.Ext()
	return filepath.Join(n.Dir, name)
}

// WriteFile writes t to path under an exclusive lock. The table is
// written to a temporary file next to path and renamed into place, so
// a failed run never leaves a truncated table behind.
func WriteFile(path string, t *Table, f Format) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lockFile, err := acquireFileLock(path)
	if err != nil {
		return err
	}
	defer releaseFileLock(lockFile)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Write(tmp, t, f); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// acquireFileLock takes an exclusive non-blocking lock on path + ".lock".
func acquireFileLock(path string) (*os.File, error) {
	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, path, err)
	}

	return lockFile, nil
}

// releaseFileLock releases the lock and removes the lock file.
func releaseFileLock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}

	lockPath := lockFile.Name()
	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()

	return os.Remove(lockPath)
}
