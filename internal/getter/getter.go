// Package getter wraps hashicorp/go-getter for downloading and unpacking
// release assets.
package getter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	cleanhttp "github.com/hashicorp/go-cleanhttp"
	getter "github.com/hashicorp/go-getter/v2"
)

// Opts configures a Getter.
type Opts struct {
	// TempDir receives downloads and extracted trees. Defaults to os.TempDir().
	TempDir string
	// HTTPClient is used for asset downloads. Defaults to a pooled go-cleanhttp client.
	HTTPClient *http.Client
	// Logger for debug output.
	Logger *slog.Logger
}

// Getter downloads assets over HTTP and extracts tar archives.
type Getter struct {
	client  *getter.Client
	tempDir string
	logger  *slog.Logger
}

// New creates a Getter.
func New(opts Opts) *Getter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Getter{
		client: &getter.Client{
			Getters: []getter.Getter{
				&getter.HttpGetter{Client: httpClient, DoNotCheckHeadFirst: true},
			},
			DisableSymlinks: true,
		},
		tempDir: tempDir,
		logger:  logger,
	}
}

// DownloadTool downloads src to a uniquely named file under the temp dir and
// returns its path. The file is stored as-is, never unpacked.
func (g *Getter) DownloadTool(ctx context.Context, src string) (string, error) {
	fullSrc, err := rawFileURL(src)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(g.tempDir, uuid.NewString())
	g.logger.Debug("downloading file", "src", src, "dest", dest)

	req := &getter.Request{
		Src:             fullSrc,
		Dst:             dest,
		GetMode:         getter.ModeFile,
		DisableSymlinks: true,
	}

	if _, err := g.client.Get(ctx, req); err != nil {
		return "", fmt.Errorf("downloading %s: %w", src, err)
	}

	return dest, nil
}

// ExtractTar unpacks a gzip-compressed tar archive into a new directory under
// the temp dir and returns that directory.
func (g *Getter) ExtractTar(ctx context.Context, archive string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(g.tempDir, uuid.NewString())
	g.logger.Debug("extracting archive", "archive", archive, "dest", dest)

	d := &getter.TarGzipDecompressor{}
	if err := d.Decompress(dest, archive, true, 0); err != nil {
		return "", fmt.Errorf("extracting %s: %w", archive, err)
	}

	return dest, nil
}
