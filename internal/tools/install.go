package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Fetcher downloads an asset and unpacks it.
type Fetcher interface {
	DownloadTool(ctx context.Context, url string) (string, error)
	ExtractTar(ctx context.Context, archive string) (string, error)
}

// Cache stores extracted binaries keyed by tool, version and architecture.
type Cache interface {
	Find(tool, version, arch string) (string, bool)
	CacheFile(src, targetName, tool, version, arch string) (string, error)
}

// InstallOpts configures EnsureLocal.
type InstallOpts struct {
	// Tool is the cache key tool name and the binary base name.
	Tool string
	// Version is the resolved version used as cache key.
	Version string
	// AssetURL is where the release archive is downloaded from on a miss.
	AssetURL string
	// Platform decides the binary file name and the cache arch key.
	Platform Platform
	// Cache is looked up first and populated on a miss.
	Cache Cache
	// Fetcher downloads and extracts the archive on a miss.
	Fetcher Fetcher
	// Logger for progress output.
	Logger *slog.Logger
}

// Installed describes a binary available on disk.
type Installed struct {
	// Dir contains the binary and is what gets added to PATH.
	Dir string
	// Binary is the full path of the executable.
	Binary string
	// CacheHit is true when nothing was downloaded.
	CacheHit bool
}

// EnsureLocal returns the cached binary for Tool at Version, downloading,
// extracting and caching the release archive first if it is not cached yet.
func EnsureLocal(ctx context.Context, opts *InstallOpts) (*Installed, error) {
	if opts.Cache == nil || opts.Fetcher == nil {
		return nil, errors.New("install requires a cache and a fetcher")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	arch := opts.Platform.Normalized().Arch
	name := BinaryName(opts.Tool, opts.Platform)

	if dir, ok := opts.Cache.Find(opts.Tool, opts.Version, arch); ok {
		logger.Info(fmt.Sprintf("Found %s version %s in cache", opts.Tool, opts.Version))

		return &Installed{Dir: dir, Binary: filepath.Join(dir, name), CacheHit: true}, nil
	}

	logger.Info(fmt.Sprintf("No %s version %s in cache", opts.Tool, opts.Version))

	archive, err := opts.Fetcher.DownloadTool(ctx, opts.AssetURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s %s: %w", opts.Tool, opts.Version, err)
	}

	logger.Info(fmt.Sprintf("Downloaded %s version %s", opts.Tool, opts.Version), "url", opts.AssetURL)

	extracted, err := opts.Fetcher.ExtractTar(ctx, archive)
	if err != nil {
		return nil, fmt.Errorf("extracting %s %s: %w", opts.Tool, opts.Version, err)
	}

	dir, err := opts.Cache.CacheFile(filepath.Join(extracted, name), name, opts.Tool, opts.Version, arch)
	if err != nil {
		return nil, fmt.Errorf("caching %s %s: %w", opts.Tool, opts.Version, err)
	}

	logger.Info(fmt.Sprintf("Cached %s version %s", opts.Tool, opts.Version), "dir", dir)

	return &Installed{Dir: dir, Binary: filepath.Join(dir, name)}, nil
}
