//go:build unix

package shm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

type Segment struct {
	name string
	path string

	// flock is held per open file description, so goroutines sharing this
	// handle must also be serialized in-process.
	mu     sync.Mutex
	file   *os.File
	data   []byte
	closed bool
}

// Create builds a fresh segment of size bytes, hands its zeroed memory to
// init, then atomically replaces any segment already published under name.
// Attachers never see a segment init has not finished with.
func Create(dir, name string, size int, init func(mem []byte) error) (*Segment, error) {
	path, err := segmentPath(dir, name)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("create segment %s: size must be positive, got %d", name, size)
	}

	tmp := path + ".tmp-" + strconv.Itoa(os.Getpid())
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create segment %s: %w", name, err)
	}
	fail := func(err error) (*Segment, error) {
		_ = f.Close()
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		return fail(fmt.Errorf("size segment %s: %w", name, err))
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fail(fmt.Errorf("map segment %s: %w", name, err))
	}
	if init != nil {
		if err := init(data); err != nil {
			_ = unix.Munmap(data)
			return fail(fmt.Errorf("initialize segment %s: %w", name, err))
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = unix.Munmap(data)
		return fail(fmt.Errorf("publish segment %s: %w", name, err))
	}
	return &Segment{name: name, path: path, file: f, data: data}, nil
}

// Open attaches to an existing segment without modifying it.
func Open(dir, name string) (*Segment, error) {
	path, err := segmentPath(dir, name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open segment %s: %w", name, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat segment %s: %w", name, err)
	}
	if fi.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("map segment %s: %w", name, err)
	}
	return &Segment{name: name, path: path, file: f, data: data}, nil
}

func (s *Segment) Name() string { return s.name }
func (s *Segment) Path() string { return s.path }
func (s *Segment) Size() int    { return len(s.data) }

// Lock takes the in-process mutex and then the cross-process flock. The
// returned slice is the mapped memory; it must not be used after Unlock.
func (s *Segment) Lock() ([]byte, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	for {
		err := unix.Flock(int(s.file.Fd()), unix.LOCK_EX)
		if err == nil {
			return s.data, nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s: %v", ErrLock, s.name, err)
	}
}

func (s *Segment) Unlock() error {
	defer s.mu.Unlock()
	if err := unix.Flock(int(s.file.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("%w: unlock %s: %v", ErrLock, s.name, err)
	}
	return nil
}

// Close unmaps the segment and releases the handle; the segment itself stays
// published for other processes.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	errUnmap := unix.Munmap(s.data)
	s.data = nil
	errClose := s.file.Close()
	return errors.Join(errUnmap, errClose)
}

// Remove closes the handle and unlinks the segment. Subsequent Open calls
// fail with ErrNotFound.
func (s *Segment) Remove() error {
	errClose := s.Close()
	errRemove := os.Remove(s.path)
	if errors.Is(errRemove, fs.ErrNotExist) {
		errRemove = nil
	}
	return errors.Join(errClose, errRemove)
}

// Remove unlinks a segment by name, if present.
func Remove(dir, name string) error {
	path, err := segmentPath(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove segment %s: %w", name, err)
	}
	return nil
}
