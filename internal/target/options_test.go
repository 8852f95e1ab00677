package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    Options
		wantErr string
	}{
		{name: "none", raw: nil, want: Options{}},
		{name: "flag", raw: []string{"overwrite"}, want: Options{"overwrite": ""}},
		{name: "key value", raw: []string{"skip-build=yes"}, want: Options{"skip-build": "yes"}},
		{name: "both", raw: []string{"overwrite", "skip-build"}, want: Options{"overwrite": "", "skip-build": ""}},
		{name: "empty value", raw: []string{"overwrite="}, want: Options{"overwrite": ""}},
		{name: "empty option", raw: []string{""}, wantErr: "option cannot be empty"},
		{name: "empty key", raw: []string{"=1"}, wantErr: "option cannot be empty"},
		{name: "unknown", raw: []string{"push"}, wantErr: `target does not support "push"`},
		{name: "too many equals", raw: []string{"overwrite=a=b"}, wantErr: `must be "key" or "key=value"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(ImageOptions, tt.raw)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrInvalidOption)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptions_Has(t *testing.T) {
	opts := Options{"overwrite": ""}
	assert.True(t, opts.Has("overwrite"))
	assert.False(t, opts.Has("skip-build"))
}
