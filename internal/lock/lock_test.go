package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	lock := New("/tmp/build", "demo")
	assert.Equal(t, "/tmp/build/.gantry/locks/demo.lock", lock.Path())
}

func TestLock_AcquireRelease(t *testing.T) {
	tmpDir := t.TempDir()
	lock := New(tmpDir, "demo")

	require.NoError(t, lock.Acquire())

	_, err := os.Stat(filepath.Join(tmpDir, ".gantry", "locks", "demo.lock"))
	require.NoError(t, err)

	require.NoError(t, lock.Release())

	_, err = os.Stat(lock.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestLock_DoubleAcquire(t *testing.T) {
	tmpDir := t.TempDir()
	lock1 := New(tmpDir, "demo")
	lock2 := New(tmpDir, "demo")

	require.NoError(t, lock1.Acquire())
	defer lock1.Release()

	err := lock2.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))
	assert.Contains(t, err.Error(), "another build of demo is running")
}

func TestLock_DifferentNames(t *testing.T) {
	tmpDir := t.TempDir()
	a := New(tmpDir, "demo")
	b := New(tmpDir, "other")

	require.NoError(t, a.Acquire())
	defer a.Release()
	require.NoError(t, b.Acquire())
	defer b.Release()
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	assert.NoError(t, New(t.TempDir(), "demo").Release())
}

func TestWithLock(t *testing.T) {
	executed := false
	err := WithLock(t.TempDir(), "demo", func() error {
		executed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)
}

func TestWithLock_Blocked(t *testing.T) {
	tmpDir := t.TempDir()
	lock := New(tmpDir, "demo")
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	err := WithLock(tmpDir, "demo", func() error {
		t.Fatal("fn must not run while locked")
		return nil
	})
	assert.ErrorIs(t, err, ErrLocked)
}

func TestWithLock_PropagatesError(t *testing.T) {
	want := errors.New("build failed")
	err := WithLock(t.TempDir(), "demo", func() error { return want })
	assert.ErrorIs(t, err, want)
}
