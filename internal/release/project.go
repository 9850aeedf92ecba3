package release

import (
	"slices"
	"strings"
)

// Project identifies the upstream repository and the tag namespace a tool is
// released under. Several sub-projects share the kustomize release feed, so
// tags carry a "<name>/" prefix.
type Project struct {
	Owner     string
	Repo      string
	TagPrefix string
	ToolName  string
}

// Kustomize returns the coordinates of the kustomize CLI releases.
func Kustomize() Project {
	return Project{
		Owner:     "kubernetes-sigs",
		Repo:      "kustomize",
		TagPrefix: "kustomize/",
		ToolName:  "kustomize",
	}
}

// Tag builds the exact release tag for a bare version number.
//
//	Kustomize().Tag("5.4.1") → "kustomize/v5.4.1"
func (p Project) Tag(version string) string {
	return p.TagPrefix + "v" + version
}

// VersionFromTag strips the project prefix and the leading "v" from a tag.
func (p Project) VersionFromTag(tag string) string {
	return strings.TrimPrefix(tag, p.TagPrefix+"v")
}

// Latest returns the newest release whose tag starts with prefix, or nil if
// there is none. Releases are stably sorted by creation time and the last one
// wins, so on equal timestamps the later-listed release is picked.
func Latest(releases []Release, prefix string) *Release {
	matching := make([]Release, 0, len(releases))

	for i := range releases {
		if strings.HasPrefix(releases[i].TagName, prefix) {
			matching = append(matching, releases[i])
		}
	}

	if len(matching) == 0 {
		return nil
	}

	slices.SortStableFunc(matching, func(a, b Release) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return &matching[len(matching)-1]
}
