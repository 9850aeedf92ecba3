package release

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LatestVersion is the requested version that selects the newest release.
const LatestVersion = "latest"

// API is the subset of the GitHub releases API the resolver needs.
type API interface {
	ListReleases(ctx context.Context, owner, repo string, perPage int) ([]Release, error)
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error)
}

// Resolver turns a requested version into one release of a project.
type Resolver struct {
	api     API
	project Project
	perPage int
	logger  *slog.Logger
}

// NewResolver creates a Resolver for project backed by api.
func NewResolver(api API, project Project, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		api:     api,
		project: project,
		perPage: MaxPerPage,
		logger:  logger,
	}
}

// Resolve returns the release for requested, which is either LatestVersion or
// a bare version number such as "5.4.1". API failures are logged and reported
// as not found; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, requested string) (*Release, bool) {
	if requested == LatestVersion {
		return r.latest(ctx)
	}

	return r.byVersion(ctx, requested)
}

func (r *Resolver) latest(ctx context.Context) (*Release, bool) {
	releases, err := r.api.ListReleases(ctx, r.project.Owner, r.project.Repo, r.perPage)
	if err != nil {
		r.logError("list releases", err)

		return nil, false
	}

	rel := Latest(releases, r.project.TagPrefix)
	if rel == nil {
		r.logger.Debug("no release carries the project tag prefix",
			"prefix", r.project.TagPrefix, "listed", len(releases))

		return nil, false
	}

	return rel, true
}

func (r *Resolver) byVersion(ctx context.Context, version string) (*Release, bool) {
	if strings.HasPrefix(version, "v") {
		r.logger.Warn("requested version starts with \"v\"; versions are expected without it",
			"version", version, "tag", r.project.Tag(version))
	}

	rel, err := r.api.GetReleaseByTag(ctx, r.project.Owner, r.project.Repo, r.project.Tag(version))
	if err != nil {
		r.logError("get release by tag", err)

		return nil, false
	}

	return rel, true
}

func (r *Resolver) logError(op string, err error) {
	r.logger.Error(op+" failed", "err", err)
	r.logger.Debug(op+" error details", "detail", fmt.Sprintf("%#v", err))
}
