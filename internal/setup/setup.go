// Package setup runs the install pipeline: resolve a release, pick its asset
// for the platform, make the binary available locally and publish its
// directory on PATH.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/setup-kustomize/internal/release"
	"github.com/donaldgifford/setup-kustomize/internal/tools"
)

// Step outputs.
const (
	OutputVersion = "version"
	OutputPath    = "path"
)

// Resolver finds the release for a requested version.
type Resolver interface {
	Resolve(ctx context.Context, requested string) (*release.Release, bool)
}

// Publisher exposes the installed binary to later steps.
type Publisher interface {
	AddPath(dir string) error
	SetOutput(name, value string) error
}

// Opts configures Run.
type Opts struct {
	// Project supplies the tool name and tag prefix.
	Project release.Project
	// RequestedVersion is "latest" or a bare version such as "5.4.1".
	RequestedVersion string
	// Platform is the target OS and architecture as given by the caller.
	Platform tools.Platform
	// StrictAsset fails the run when several assets match the platform.
	StrictAsset bool

	Resolver  Resolver
	Cache     tools.Cache
	Fetcher   tools.Fetcher
	Publisher Publisher
	Logger    *slog.Logger
}

// Result describes a completed run.
type Result struct {
	// Version is the resolved version, the release tag without its prefix.
	Version string
	// Tag is the release tag.
	Tag string
	// Asset is the name of the selected release asset.
	Asset string
	// Dir is the directory added to PATH.
	Dir string
	// Binary is the full path of the installed executable.
	Binary string
	// CacheHit is true when nothing was downloaded.
	CacheHit bool
}

// ResolutionError reports that no release matches the requested version.
type ResolutionError struct {
	Version string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("release with version %s not found", e.Version)
}

// AssetError reports that no usable asset exists for the platform.
type AssetError struct {
	Version string
	OS      string
	Arch    string
	Err     error
}

func (e *AssetError) Error() string {
	if errors.Is(e.Err, tools.ErrAmbiguousAsset) {
		return fmt.Sprintf("asset for release %s for platform %s arch %s is ambiguous: %v", e.Version, e.OS, e.Arch, e.Err)
	}

	return fmt.Sprintf("asset for release %s for platform %s arch %s not found", e.Version, e.OS, e.Arch)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// Run executes the pipeline. Nothing is published unless every earlier stage
// succeeds.
func Run(ctx context.Context, opts *Opts) (*Result, error) {
	if opts.Resolver == nil || opts.Publisher == nil {
		return nil, errors.New("setup requires a resolver and a publisher")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tool := opts.Project.ToolName

	rel, ok := opts.Resolver.Resolve(ctx, opts.RequestedVersion)
	if !ok {
		return nil, &ResolutionError{Version: opts.RequestedVersion}
	}

	version := opts.Project.VersionFromTag(rel.TagName)
	logger.Info(fmt.Sprintf("Evaluated %s version %s", tool, version))

	asset, err := tools.SelectAsset(rel.Assets, opts.Platform, opts.StrictAsset)
	if err != nil {
		return nil, &AssetError{
			Version: opts.RequestedVersion,
			OS:      opts.Platform.OS,
			Arch:    opts.Platform.Arch,
			Err:     err,
		}
	}

	logger.Debug("selected asset",
		"release", rel.Name, "asset", asset.Name, "size", asset.Size, "content_type", asset.ContentType)

	installed, err := tools.EnsureLocal(ctx, &tools.InstallOpts{
		Tool:     tool,
		Version:  version,
		AssetURL: asset.BrowserDownloadURL,
		Platform: opts.Platform,
		Cache:    opts.Cache,
		Fetcher:  opts.Fetcher,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	if err := opts.Publisher.AddPath(installed.Dir); err != nil {
		return nil, fmt.Errorf("publishing %s path: %w", tool, err)
	}

	logger.Info(fmt.Sprintf("Add %s version %s path", tool, version))

	for _, out := range []struct{ name, value string }{
		{OutputVersion, version},
		{OutputPath, installed.Dir},
	} {
		if err := opts.Publisher.SetOutput(out.name, out.value); err != nil {
			return nil, fmt.Errorf("publishing %s output: %w", out.name, err)
		}
	}

	return &Result{
		Version:  version,
		Tag:      rel.TagName,
		Asset:    asset.Name,
		Dir:      installed.Dir,
		Binary:   installed.Binary,
		CacheHit: installed.CacheHit,
	}, nil
}
