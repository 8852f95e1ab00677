package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]any
		overlay map[string]any
		want    map[string]any
	}{
		{
			name:    "basic merge overlay wins",
			base:    map[string]any{"key1": "base1", "key2": "base2"},
			overlay: map[string]any{"key2": "overlay2", "key3": "overlay3"},
			want:    map[string]any{"key1": "base1", "key2": "overlay2", "key3": "overlay3"},
		},
		{
			name: "nested maps merge recursively",
			base: map[string]any{
				"service": map[string]any{"network": "n1", "name": "demo"},
			},
			overlay: map[string]any{
				"service": map[string]any{"folder": "./web"},
			},
			want: map[string]any{
				"service": map[string]any{"network": "n1", "name": "demo", "folder": "./web"},
			},
		},
		{
			name:    "scalar replaces map",
			base:    map[string]any{"service": map[string]any{"name": "demo"}},
			overlay: map[string]any{"service": "flat"},
			want:    map[string]any{"service": "flat"},
		},
		{
			name:    "lists are replaced",
			base:    map[string]any{"routes": []any{"/a", "/b"}},
			overlay: map[string]any{"routes": []any{"/c"}},
			want:    map[string]any{"routes": []any{"/c"}},
		},
		{
			name:    "nil base",
			base:    nil,
			overlay: map[string]any{"a": 1},
			want:    map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeepMerge(tt.base, tt.overlay))
		})
	}
}

func TestDeepMerge_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"service": map[string]any{"network": "n1"}}
	overlay := map[string]any{"service": map[string]any{"folder": "./web"}}

	merged := DeepMerge(base, overlay)
	merged["service"].(map[string]any)["network"] = "changed"

	assert.Equal(t, map[string]any{"network": "n1"}, base["service"])
	assert.Equal(t, map[string]any{"folder": "./web"}, overlay["service"])
}

func TestContext_Lookup(t *testing.T) {
	ctx := Context{
		"service": map[string]any{"network": "n1"},
		"nested":  Context{"inner": map[string]any{"value": 3}},
	}

	v, ok := ctx.Lookup("service.network")
	assert.True(t, ok)
	assert.Equal(t, "n1", v)

	v, ok = ctx.Lookup("nested.inner.value")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = ctx.Lookup("service.missing")
	assert.False(t, ok)

	_, ok = ctx.Lookup("service.network.deeper")
	assert.False(t, ok)
}

func TestServiceFolder(t *testing.T) {
	ctx := Context{"service": map[string]any{"network": "n1"}}.Merge(ServiceFolder("web"))

	v, ok := ctx.Lookup("service.folder")
	require.True(t, ok)
	assert.Equal(t, "./web", v)

	v, ok = ctx.Lookup("service.network")
	require.True(t, ok)
	assert.Equal(t, "n1", v)
}

func TestParseVariables(t *testing.T) {
	ctx, err := ParseVariables([]string{"env=prod", "service.domain=example.com", "service.tier=web", "env=staging", "empty="})
	require.NoError(t, err)

	assert.Equal(t, Context{
		"env":     "staging",
		"empty":   "",
		"service": map[string]any{"domain": "example.com", "tier": "web"},
	}, ctx)
}

func TestParseVariables_Invalid(t *testing.T) {
	tests := []string{"novalue", "=x", "bad path=x", "a..b=x"}

	for _, assignment := range tests {
		t.Run(assignment, func(t *testing.T) {
			_, err := ParseVariables([]string{assignment})
			assert.Error(t, err)
		})
	}
}
