//go:build unix

package shm

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "SHM_HELPER_DIR"

func TestCreateAndOpenShareMemory(t *testing.T) {
	dir := t.TempDir()

	a, err := Create(dir, "orders", 4096, func(mem []byte) error {
		copy(mem, "hello")
		return nil
	})
	require.NoError(t, err)
	defer a.Remove()

	b, err := Open(dir, "orders")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 4096, b.Size())

	mem, err := b.Lock()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(mem[:5]))
	copy(mem, "world")
	require.NoError(t, b.Unlock())

	mem, err = a.Lock()
	require.NoError(t, err)
	assert.Equal(t, "world", string(mem[:5]))
	require.NoError(t, a.Unlock())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(t.TempDir(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b"} {
		_, err := Open(t.TempDir(), name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestCreateReplacesExisting(t *testing.T) {
	dir := t.TempDir()

	old, err := Create(dir, "orders", 64, func(mem []byte) error {
		copy(mem, "old")
		return nil
	})
	require.NoError(t, err)
	defer old.Close()

	fresh, err := Create(dir, "orders", 64, nil)
	require.NoError(t, err)
	defer fresh.Remove()

	b, err := Open(dir, "orders")
	require.NoError(t, err)
	defer b.Close()

	mem, err := b.Lock()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 3), mem[:3])
	require.NoError(t, b.Unlock())
}

func TestLockExcludesOtherHandles(t *testing.T) {
	dir := t.TempDir()
	a, err := Create(dir, "orders", 64, nil)
	require.NoError(t, err)
	defer a.Remove()

	b, err := Open(dir, "orders")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Lock()
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		if _, err := b.Lock(); err == nil {
			close(acquired)
			_ = b.Unlock()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second handle acquired a held lock")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, a.Unlock())
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second handle never acquired the released lock")
	}
}

func TestRemoveThenOpenFails(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "orders", 64, nil)
	require.NoError(t, err)

	require.NoError(t, s.Remove())
	_, err = s.Lock()
	assert.ErrorIs(t, err, ErrClosed)

	_, err = Open(dir, "orders")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, Remove(dir, "orders"))
}

// TestLockReleasedOnProcessDeath runs a child that takes the lock and exits
// without unlocking.
func TestLockReleasedOnProcessDeath(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, "orders", 64, nil)
	require.NoError(t, err)
	defer s.Remove()

	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperHoldLockAndExit$")
	cmd.Env = append(os.Environ(), helperEnv+"="+dir)
	require.NoError(t, cmd.Run())

	done := make(chan error, 1)
	go func() {
		_, err := s.Lock()
		if err == nil {
			err = s.Unlock()
		}
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lock still held after the holder exited")
	}
}

func TestHelperHoldLockAndExit(t *testing.T) {
	dir := os.Getenv(helperEnv)
	if dir == "" {
		t.Skip("helper process only")
	}
	s, err := Open(dir, "orders")
	if err != nil {
		os.Exit(2)
	}
	if _, err := s.Lock(); err != nil {
		os.Exit(3)
	}
	os.Exit(0)
}
