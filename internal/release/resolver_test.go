package release_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/setup-kustomize/internal/release"
)

type fakeAPI struct {
	releases []release.Release
	listErr  error
	byTag    map[string]*release.Release
	tagErr   error

	listCalls int
	tags      []string
	perPage   int
}

func (f *fakeAPI) ListReleases(_ context.Context, _, _ string, perPage int) ([]release.Release, error) {
	f.listCalls++
	f.perPage = perPage

	return f.releases, f.listErr
}

func (f *fakeAPI) GetReleaseByTag(_ context.Context, _, _, tag string) (*release.Release, error) {
	f.tags = append(f.tags, tag)

	if f.tagErr != nil {
		return nil, f.tagErr
	}

	rel, ok := f.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("getting release %s: %w", tag, release.ErrNotFound)
	}

	return rel, nil
}

func TestResolver_Latest(t *testing.T) {
	t.Parallel()

	t1 := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		releases: []release.Release{
			{TagName: "kustomize/v5.0.0", CreatedAt: t1},
			{TagName: "other/v1.0.0", CreatedAt: t1.Add(time.Hour)},
		},
	}

	r := release.NewResolver(api, release.Kustomize(), nil)

	rel, ok := r.Resolve(t.Context(), release.LatestVersion)
	require.True(t, ok)
	assert.Equal(t, "kustomize/v5.0.0", rel.TagName)
	assert.Equal(t, 1, api.listCalls)
	assert.Equal(t, release.MaxPerPage, api.perPage)
	assert.Empty(t, api.tags)
}

func TestResolver_Latest_NoProjectReleases(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		releases: []release.Release{{TagName: "kyaml/v0.14.0", CreatedAt: time.Now()}},
	}

	r := release.NewResolver(api, release.Kustomize(), nil)

	rel, ok := r.Resolve(t.Context(), release.LatestVersion)
	assert.False(t, ok)
	assert.Nil(t, rel)
}

func TestResolver_Latest_ListError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{listErr: errors.New("connection reset")}

	r := release.NewResolver(api, release.Kustomize(), nil)

	rel, ok := r.Resolve(t.Context(), release.LatestVersion)
	assert.False(t, ok)
	assert.Nil(t, rel)
	assert.Equal(t, 1, api.listCalls, "no retry")
	assert.Empty(t, api.tags, "no fall-through to a tag lookup")
}

func TestResolver_ExactVersion(t *testing.T) {
	t.Parallel()

	want := &release.Release{TagName: "kustomize/v4.5.7", Name: "kustomize v4.5.7"}
	api := &fakeAPI{byTag: map[string]*release.Release{"kustomize/v4.5.7": want}}

	r := release.NewResolver(api, release.Kustomize(), nil)

	rel, ok := r.Resolve(t.Context(), "4.5.7")
	require.True(t, ok)
	assert.Equal(t, want, rel)
	assert.Equal(t, []string{"kustomize/v4.5.7"}, api.tags)
	assert.Zero(t, api.listCalls)
	assert.Equal(t, "4.5.7", release.Kustomize().VersionFromTag(rel.TagName))
}

func TestResolver_ExactVersion_NotFound(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}

	r := release.NewResolver(api, release.Kustomize(), nil)

	_, ok := r.Resolve(t.Context(), "9.9.9")
	assert.False(t, ok)
	assert.Equal(t, []string{"kustomize/v9.9.9"}, api.tags)
}

func TestResolver_ExactVersion_APIError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{tagErr: &release.APIError{StatusCode: 502, URL: "https://api.github.com"}}

	r := release.NewResolver(api, release.Kustomize(), nil)

	_, ok := r.Resolve(t.Context(), "5.0.0")
	assert.False(t, ok)
	assert.Len(t, api.tags, 1)
}

func TestResolver_VPrefixedVersionUsedVerbatim(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}

	r := release.NewResolver(api, release.Kustomize(), nil)

	_, ok := r.Resolve(t.Context(), "v5.0.0")
	assert.False(t, ok)
	assert.Equal(t, []string{"kustomize/vv5.0.0"}, api.tags)
}
