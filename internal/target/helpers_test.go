package target

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/docker"
	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/router"
	"github.com/cameronsjo/gantry/internal/schema"
)

var testValidator = schema.MustNew()

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// demoModel loads a group with a built service (api), an image service
// (cache), and a traefik router shipping a dynamic-config folder.
func demoModel(t *testing.T) *deploy.Model {
	t.Helper()

	root := filepath.Join(t.TempDir(), "demo")
	writeFile(t, filepath.Join(root, "service.yml"), `name: demo
network: net0
router:
  provider: traefik
  config: traefik.yml
  args:
    dynamic-config: dynamic
services:
  - api
  - cache
`)
	writeFile(t, filepath.Join(root, "traefik.yml"), "providers:\n  docker:\n    network: {{ service.network }}\n")
	writeFile(t, filepath.Join(root, "dynamic", "middlewares.yml"), "http: {}\n")
	writeFile(t, filepath.Join(root, "api", "service.yml"), `name: api
build-args:
  VERSION: "1.4"
entrypoint: /api
`)
	writeFile(t, filepath.Join(root, "api", "Dockerfile"), "FROM golang:1.24\n")
	writeFile(t, filepath.Join(root, "api", "conf", "app.toml"), "port = 80\n")
	writeFile(t, filepath.Join(root, "cache", "service.yml"), "name: cache\nimage: redis:7\ninternal: true\n")

	group, err := manifest.NewLoader(testValidator, router.Default(testValidator)).LoadGroup(context.Background(), root)
	require.NoError(t, err)
	return deploy.Build(group)
}

// fakeBuilder records image builds and pulls.
type fakeBuilder struct {
	builds   []docker.BuildRequest
	pulls    []string
	buildErr error
}

func (f *fakeBuilder) BuildImage(_ context.Context, req docker.BuildRequest) error {
	f.builds = append(f.builds, req)
	return f.buildErr
}

func (f *fakeBuilder) PullImage(_ context.Context, ref string) error {
	f.pulls = append(f.pulls, ref)
	return nil
}
