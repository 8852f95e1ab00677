package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCmd(t *testing.T) {
	root := writeGroup(t, "")

	_, err := executeCmd(t, "validate", "-s", root)
	require.NoError(t, err)
}

func TestValidateCmd_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, root string)
		args   []string
	}{
		{
			name: "name mismatch",
			mutate: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "api", "service.yml"), "name: backend\n")
			},
		},
		{
			name: "undefined variable",
			mutate: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "web", "service.yml"), "name: web\nimage: \"{{ registry }}/nginx\"\n")
			},
		},
		{
			name:   "malformed variable",
			mutate: func(t *testing.T, root string) {},
			args:   []string{"-V", "novalue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeGroup(t, "")
			tt.mutate(t, root)

			_, err := executeCmd(t, append([]string{"validate", "-s", root}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestValidateCmd_Variables(t *testing.T) {
	root := writeGroup(t, "environment:\n  ENV: \"{{ deploy.env }}\"\n")

	_, err := executeCmd(t, "validate", "-s", root)
	assert.Error(t, err, "variable is undefined without --var")

	_, err = executeCmd(t, "validate", "-s", root, "-V", "deploy.env=prod")
	assert.NoError(t, err)
}
