package getter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/setup-kustomize/internal/getter"
	"github.com/donaldgifford/setup-kustomize/internal/testutil"
)

func TestNew(t *testing.T) {
	t.Parallel()

	// Verify New doesn't panic with zero options.
	g := getter.New(getter.Opts{})
	assert.NotNil(t, g)
}

func TestDownloadTool_KeepsArchivePacked(t *testing.T) {
	t.Parallel()

	archive := testutil.TarGz(t, map[string]string{"kustomize": "#!/bin/sh\necho kustomize\n"})
	srv := testutil.NewAssetServer(t, map[string][]byte{
		"/kustomize_v5.0.0_linux_amd64.tar.gz": archive,
	})

	tempDir := t.TempDir()
	g := getter.New(getter.Opts{TempDir: tempDir})

	path, err := g.DownloadTool(t.Context(), srv.URL+"/kustomize_v5.0.0_linux_amd64.tar.gz")
	require.NoError(t, err)

	assert.Equal(t, tempDir, filepath.Dir(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, archive, content, "downloaded file is the raw archive")
	assert.Equal(t, 1, srv.Hits(), "no HEAD probe before GET")
}

func TestDownloadTool_UniqueNames(t *testing.T) {
	t.Parallel()

	srv := testutil.NewAssetServer(t, map[string][]byte{"/asset": []byte("data")})
	g := getter.New(getter.Opts{TempDir: t.TempDir()})

	first, err := g.DownloadTool(t.Context(), srv.URL+"/asset")
	require.NoError(t, err)

	second, err := g.DownloadTool(t.Context(), srv.URL+"/asset")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDownloadTool_NotFound(t *testing.T) {
	t.Parallel()

	srv := testutil.NewAssetServer(t, nil)
	g := getter.New(getter.Opts{TempDir: t.TempDir()})

	_, err := g.DownloadTool(t.Context(), srv.URL+"/missing.tar.gz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downloading")
}

func TestDownloadTool_UnsupportedScheme(t *testing.T) {
	t.Parallel()

	g := getter.New(getter.Opts{TempDir: t.TempDir()})

	_, err := g.DownloadTool(t.Context(), "file:///etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported asset url scheme")
}

func TestExtractTar(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "asset")
	require.NoError(t, os.WriteFile(archivePath, testutil.TarGz(t, map[string]string{
		"kustomize":  "binary",
		"LICENSE":    "Apache-2.0",
		"docs/notes": "nested",
	}), 0o644))

	g := getter.New(getter.Opts{TempDir: tempDir})

	dir, err := g.ExtractTar(t.Context(), archivePath)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "kustomize"))
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))
	assert.FileExists(t, filepath.Join(dir, "LICENSE"))
	assert.FileExists(t, filepath.Join(dir, "docs", "notes"))
}

func TestExtractTar_NotGzip(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	archivePath := filepath.Join(tempDir, "asset")
	require.NoError(t, os.WriteFile(archivePath, []byte("plain text"), 0o644))

	g := getter.New(getter.Opts{TempDir: tempDir})

	_, err := g.ExtractTar(t.Context(), archivePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting")
}
