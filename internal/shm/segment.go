// Package shm maps named, fixed-size memory segments shared between
// processes on one host, each guarded by a process-shared lock.
//
// A segment named "orders" lives at <dir>/orders. The lock is an exclusive
// flock on the segment file, which the kernel releases when the holding
// process exits, so a crashed agent can never wedge the others.
package shm

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

var (
	ErrNotFound    = errors.New("shared segment not found")
	ErrClosed      = errors.New("shared segment closed")
	ErrInvalidName = errors.New("invalid segment name")
	ErrUnsupported = errors.New("shared segments are not supported on " + runtime.GOOS)
	ErrLock        = errors.New("segment lock failed")
)

// DefaultDir is the tmpfs mount used for segments on Linux, or the system
// temp directory elsewhere.
func DefaultDir() string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func segmentPath(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	if dir == "" {
		dir = DefaultDir()
	}
	return filepath.Join(dir, name), nil
}
