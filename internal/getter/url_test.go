package getter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawFileURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "release asset",
			src:      "https://github.com/kubernetes-sigs/kustomize/releases/download/kustomize%2Fv5.0.0/kustomize_v5.0.0_linux_amd64.tar.gz",
			expected: "https://github.com/kubernetes-sigs/kustomize/releases/download/kustomize%2Fv5.0.0/kustomize_v5.0.0_linux_amd64.tar.gz?archive=false",
		},
		{
			name:     "existing query kept",
			src:      "http://127.0.0.1:8080/asset.tar.gz?token=abc",
			expected: "http://127.0.0.1:8080/asset.tar.gz?archive=false&token=abc",
		},
		{
			name:     "archive param overridden",
			src:      "https://example.com/asset?archive=tar.gz",
			expected: "https://example.com/asset?archive=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := rawFileURL(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRawFileURL_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "file scheme", src: "file:///tmp/asset.tar.gz", wantErr: "unsupported asset url scheme"},
		{name: "no scheme", src: "example.com/asset.tar.gz", wantErr: "unsupported asset url scheme"},
		{name: "unparseable", src: "https://exa mple.com/%zz", wantErr: "parsing asset url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := rawFileURL(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
