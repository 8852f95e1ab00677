package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default for test isolation.
// Cobra commands are package globals, so flag values and their Changed
// state otherwise leak between executions.
func resetFlags(t *testing.T) {
	t.Helper()

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					require.NoError(t, sv.Replace(nil))
				} else {
					require.NoError(t, f.Value.Set(f.DefValue))
				}
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// executeCmd executes the root command with the given args and returns the output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)

	buf := new(bytes.Buffer)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeGroup creates a demo group and returns its folder. webEnv is
// appended to the web service's declaration.
func writeGroup(t *testing.T, webEnv string) string {
	t.Helper()

	t.Setenv("GANTRY_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := filepath.Join(t.TempDir(), "demo")
	writeFile(t, filepath.Join(root, "service.yml"), `name: demo
network: "{{ service.folder | base }}-net"
router:
  provider: traefik
  config: traefik.yml
services:
  - web
  - api
`)
	writeFile(t, filepath.Join(root, "traefik.yml"), "providers:\n  docker:\n    network: {{ service.network }}\n")
	writeFile(t, filepath.Join(root, "web", "service.yml"), "name: web\nimage: nginx:1.25\n"+webEnv)
	writeFile(t, filepath.Join(root, "api", "service.yml"), "name: api\nentrypoint: /api\n")
	writeFile(t, filepath.Join(root, "api", "Dockerfile"), "FROM golang:1.24\n")
	return root
}
