package preflight

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPath fakes PATH lookups so only the given binaries exist.
func withPath(t *testing.T, present ...string) {
	t.Helper()

	found := make(map[string]bool, len(present))
	for _, name := range present {
		found[name] = true
	}

	prev := lookPath
	lookPath = func(name string) (string, error) {
		if found[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = prev })
}

func TestCheck(t *testing.T) {
	t.Run("binary present", func(t *testing.T) {
		withPath(t, "docker")

		results := Check()
		require.Len(t, results, len(Binaries))
		assert.True(t, results[0].Found())
		assert.Equal(t, "/usr/bin/docker", results[0].Path)
	})

	t.Run("binary missing", func(t *testing.T) {
		withPath(t)

		results := Check()
		require.Len(t, results, len(Binaries))
		assert.False(t, results[0].Found())
		assert.Equal(t, "docker", results[0].Binary.Name)
	})
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name    string
		present []string
		require []string
		wantErr string
	}{
		{name: "all present", present: []string{"docker"}, require: []string{"docker"}},
		{name: "nothing required", require: nil},
		{
			name:    "known binary missing",
			require: []string{"docker"},
			wantErr: "missing binary: docker (Install Docker: https://docs.docker.com/get-docker/)",
		},
		{
			name:    "unknown binary missing",
			present: []string{"docker"},
			require: []string{"docker", "podman"},
			wantErr: "missing binary: podman",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPath(t, tt.present...)

			err := Require(tt.require...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingBinary))
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestBinaries(t *testing.T) {
	for _, bin := range Binaries {
		assert.NotEmpty(t, bin.Name)
		assert.NotEmpty(t, bin.Purpose, bin.Name)
		assert.NotEmpty(t, bin.InstallHint, bin.Name)
	}
}
