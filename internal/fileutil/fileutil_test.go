package fileutil_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cameronsjo/gantry/internal/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	t.Parallel()

	t.Run("copies content into new directories", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		srcPath := filepath.Join(tmpDir, "nginx.conf")
		dstPath := filepath.Join(tmpDir, "out", "web", "nginx.conf")
		require.NoError(t, os.WriteFile(srcPath, []byte("worker_processes 1;"), 0644))

		require.NoError(t, fileutil.CopyFile(srcPath, dstPath))

		got, err := os.ReadFile(dstPath)
		require.NoError(t, err)
		assert.Equal(t, "worker_processes 1;", string(got))
	})

	t.Run("preserves file permissions", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		srcPath := filepath.Join(tmpDir, "entrypoint.sh")
		dstPath := filepath.Join(tmpDir, "copy.sh")
		require.NoError(t, os.WriteFile(srcPath, []byte("#!/bin/sh"), 0755))

		require.NoError(t, fileutil.CopyFile(srcPath, dstPath))

		info, err := os.Stat(dstPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	})

	t.Run("returns error for non-existent source", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		err := fileutil.CopyFile(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "dst"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects symlinks", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		target := filepath.Join(tmpDir, "target")
		link := filepath.Join(tmpDir, "link")
		require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
		require.NoError(t, os.Symlink(target, link))

		err := fileutil.CopyFile(link, filepath.Join(tmpDir, "dst"))
		assert.ErrorIs(t, err, fileutil.ErrSymlinkNotSupported)
	})
}

func TestCopyDir(t *testing.T) {
	t.Parallel()

	t.Run("copies service folder without declaration", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		srcDir := filepath.Join(tmpDir, "web")
		dstDir := filepath.Join(tmpDir, "out", "web")

		require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "conf", "service.yml"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "service.yml"), []byte("name: web"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "Dockerfile"), []byte("FROM nginx"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, "conf", "site.conf"), []byte("server {}"), 0644))

		require.NoError(t, fileutil.CopyDir(srcDir, dstDir, "service.yml"))

		_, err := os.Stat(filepath.Join(dstDir, "service.yml"))
		assert.True(t, os.IsNotExist(err), "top-level declaration is excluded")

		got, err := os.ReadFile(filepath.Join(dstDir, "Dockerfile"))
		require.NoError(t, err)
		assert.Equal(t, "FROM nginx", string(got))

		got, err = os.ReadFile(filepath.Join(dstDir, "conf", "site.conf"))
		require.NoError(t, err)
		assert.Equal(t, "server {}", string(got))

		info, err := os.Stat(filepath.Join(dstDir, "conf", "service.yml"))
		require.NoError(t, err, "nested entries with an excluded name are kept")
		assert.True(t, info.IsDir())
	})

	t.Run("copies empty directories", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		srcDir := filepath.Join(tmpDir, "dynamic")
		require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "empty"), 0755))

		require.NoError(t, fileutil.CopyDir(srcDir, filepath.Join(tmpDir, "dst")))

		info, err := os.Stat(filepath.Join(tmpDir, "dst", "empty"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects symlinks", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		srcDir := filepath.Join(tmpDir, "src")
		require.NoError(t, os.MkdirAll(srcDir, 0755))
		require.NoError(t, os.Symlink("/etc/hosts", filepath.Join(srcDir, "hosts")))

		err := fileutil.CopyDir(srcDir, filepath.Join(tmpDir, "dst"))
		assert.ErrorIs(t, err, fileutil.ErrSymlinkNotSupported)
	})
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "docker-compose.yml")
	require.NoError(t, fileutil.WriteFile(path, []byte("services: {}\n"), 0644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "services: {}\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteWith_FailureLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	err := fileutil.WriteWith(path, 0644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
